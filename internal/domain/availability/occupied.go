package availability

import (
	"sort"

	"staycal/internal/domain/shared/daterange"
)

// OccupiedSet is a set of calendar days kept in ascending order.
type OccupiedSet struct {
	days []daterange.Date
}

// NewOccupiedSet builds a set from dates, dropping duplicates and zero values.
func NewOccupiedSet(dates ...daterange.Date) *OccupiedSet {
	s := &OccupiedSet{days: make([]daterange.Date, 0, len(dates))}
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		s.Add(d)
	}
	return s
}

// ParseOccupiedSet parses a list of YYYY-MM-DD strings. Any malformed entry
// fails the whole list.
func ParseOccupiedSet(values []string) (*OccupiedSet, error) {
	s := &OccupiedSet{days: make([]daterange.Date, 0, len(values))}
	for _, raw := range values {
		d, err := daterange.Parse(raw)
		if err != nil {
			return nil, err
		}
		s.Add(d)
	}
	return s, nil
}

func (s *OccupiedSet) search(d daterange.Date) (int, bool) {
	i := sort.Search(len(s.days), func(i int) bool {
		return !s.days[i].Before(d)
	})
	return i, i < len(s.days) && s.days[i].Equal(d)
}

func (s *OccupiedSet) Has(d daterange.Date) bool {
	if s == nil {
		return false
	}
	_, ok := s.search(d)
	return ok
}

// Add inserts d and reports whether it was absent.
func (s *OccupiedSet) Add(d daterange.Date) bool {
	i, ok := s.search(d)
	if ok {
		return false
	}
	s.days = append(s.days, daterange.Date{})
	copy(s.days[i+1:], s.days[i:])
	s.days[i] = d
	return true
}

// Remove deletes d and reports whether it was present.
func (s *OccupiedSet) Remove(d daterange.Date) bool {
	i, ok := s.search(d)
	if !ok {
		return false
	}
	s.days = append(s.days[:i], s.days[i+1:]...)
	return true
}

// Toggle flips membership and reports whether d is occupied afterwards.
func (s *OccupiedSet) Toggle(d daterange.Date) bool {
	if s.Remove(d) {
		return false
	}
	s.Add(d)
	return true
}

// AnyBetween reports whether a member lies strictly between from and to.
func (s *OccupiedSet) AnyBetween(from, to daterange.Date) bool {
	if s == nil || !from.Before(to) {
		return false
	}
	i := sort.Search(len(s.days), func(i int) bool {
		return s.days[i].After(from)
	})
	return i < len(s.days) && s.days[i].Before(to)
}

func (s *OccupiedSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.days)
}

// Dates returns a sorted copy of the members.
func (s *OccupiedSet) Dates() []daterange.Date {
	if s == nil {
		return nil
	}
	out := make([]daterange.Date, len(s.days))
	copy(out, s.days)
	return out
}

// Strings returns the members in canonical form, ascending.
func (s *OccupiedSet) Strings() []string {
	if s == nil {
		return []string{}
	}
	return daterange.Strings(s.days)
}

func (s *OccupiedSet) Clone() *OccupiedSet {
	return &OccupiedSet{days: s.Dates()}
}

// Equal compares membership, ignoring insertion order.
func (s *OccupiedSet) Equal(other *OccupiedSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := range s.days {
		if !s.days[i].Equal(other.days[i]) {
			return false
		}
	}
	return true
}
