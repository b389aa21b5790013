package console

import (
	_ "embed"
	"fmt"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/orthodoxmetrics/logdeck/internal/model"
)

//go:embed seeds.yml
var seedsYAML []byte

type seedSpec struct {
	AgeSeconds  int            `yaml:"age_seconds"`
	Level       string         `yaml:"level"`
	Source      string         `yaml:"source"`
	Message     string         `yaml:"message"`
	Component   string         `yaml:"component"`
	Hash        string         `yaml:"hash"`
	Occurrences int            `yaml:"occurrences"`
	Details     map[string]any `yaml:"details"`
}

var (
	seedOnce sync.Once
	seedSets map[string][]seedSpec
)

func loadSeeds() map[string][]seedSpec {
	seedOnce.Do(func() {
		if err := yaml.Unmarshal(seedsYAML, &seedSets); err != nil {
			// The fixture is embedded; a parse failure is a build defect.
			panic(fmt.Sprintf("console: bad seeds.yml: %v", err))
		}
	})
	return seedSets
}

// SeedRecords returns the degraded-mode dataset for the named console,
// with timestamps anchored to now.
func SeedRecords(console string, now time.Time) []model.LogRecord {
	specs := loadSeeds()[console]
	records := make([]model.LogRecord, 0, len(specs))
	for i, s := range specs {
		rec := model.LogRecord{
			ID:              fmt.Sprintf("seed-%s-%d", console, i+1),
			Timestamp:       now.Add(-time.Duration(s.AgeSeconds) * time.Second),
			Level:           model.Level(s.Level),
			Source:          model.Source(s.Source),
			Message:         s.Message,
			Details:         model.StructuredDetails(s.Details),
			SourceComponent: s.Component,
			Hash:            s.Hash,
			Occurrences:     s.Occurrences,
		}
		rec.Normalize()
		records = append(records, rec)
	}
	return records
}

// SeedAggregated returns the historical console's degraded-mode dataset.
// Occurrence counts here are static mock values; the real path trusts the
// store's grouping.
func SeedAggregated(now time.Time) []model.AggregatedLogEntry {
	records := SeedRecords("history", now)
	entries := make([]model.AggregatedLogEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, model.AggregatedLogEntry{
			LogRecord:       rec,
			FirstOccurrence: rec.Timestamp,
			LatestTimestamp: now,
		})
	}
	return entries
}
