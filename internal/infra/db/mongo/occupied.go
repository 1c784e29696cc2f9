package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staycal/internal/domain/availability"
)

const occupiedCollection = "occupied_dates"

// OccupiedBackend stores one document per occupied day and property.
//
// Save is not atomic. It upserts the new dates first and then deletes the
// property's dates that are no longer listed, in one ordered bulk write. A
// failure part way leaves a superset of the old and new calendars, never a
// partial one, and readers may briefly observe that superset.
type OccupiedBackend struct {
	col      *mongo.Collection
	property string
	now      func() time.Time
}

type occupiedDocument struct {
	ID        string    `bson:"_id"`
	Property  string    `bson:"property"`
	Date      string    `bson:"date"`
	CreatedAt time.Time `bson:"created_at"`
}

func NewOccupiedBackend(ctx context.Context, db *mongo.Database, property string, now func() time.Time) (*OccupiedBackend, error) {
	if now == nil {
		now = time.Now
	}
	col := db.Collection(occupiedCollection)
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "property", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return &OccupiedBackend{col: col, property: property, now: now}, nil
}

func (b *OccupiedBackend) Name() string { return "mongo" }

func (b *OccupiedBackend) Load(ctx context.Context) ([]string, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cur, err := b.col.Find(ctx, bson.D{{Key: "property", Value: b.property}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []occupiedDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", availability.ErrMalformedPayload, err)
	}
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Date)
	}
	return out, nil
}

func (b *OccupiedBackend) Save(ctx context.Context, dates []string) error {
	keep := make([]string, 0, len(dates))
	models := make([]mongo.WriteModel, 0, len(dates)+1)
	now := b.now().UTC()
	for _, d := range dates {
		keep = append(keep, d)
		doc := occupiedDocument{ID: documentID(b.property, d), Property: b.property, Date: d, CreatedAt: now}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: "_id", Value: doc.ID}}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	models = append(models, mongo.NewDeleteManyModel().SetFilter(bson.D{
		{Key: "property", Value: b.property},
		{Key: "date", Value: bson.D{{Key: "$nin", Value: keep}}},
	}))
	_, err := b.col.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	return err
}

func documentID(property, date string) string {
	return property + "|" + date
}

var _ availability.Backend = (*OccupiedBackend)(nil)
