package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PropertyFile is the YAML description of the rental. Environment variables
// override any value set here.
type PropertyFile struct {
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
	Policy   struct {
		MinimumNights     *int `yaml:"minimum_nights"`
		AdvanceNoticeDays *int `yaml:"advance_notice_days"`
	} `yaml:"policy"`
}

func LoadPropertyFile(path string) (PropertyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PropertyFile{}, fmt.Errorf("reading property file: %w", err)
	}
	var pf PropertyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return PropertyFile{}, fmt.Errorf("parsing property file %s: %w", path, err)
	}
	return pf, nil
}

func (pf PropertyFile) apply(cfg *Config) {
	if pf.Name != "" {
		cfg.Property = pf.Name
	}
	if pf.Timezone != "" {
		cfg.Timezone = pf.Timezone
	}
	if pf.Policy.MinimumNights != nil {
		cfg.MinimumNights = *pf.Policy.MinimumNights
	}
	if pf.Policy.AdvanceNoticeDays != nil {
		cfg.AdvanceNoticeDays = *pf.Policy.AdvanceNoticeDays
	}
}
