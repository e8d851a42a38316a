package service

import "github.com/acadset/course-load-api/internal/models"

// GenerateWeightTable expands a weight configuration into its table. Entry i
// receives maxWeight - i*interval; generation stops before the first value
// that is zero or below, so the last entry holds the smallest positive
// weight. Preference ranks start at 1, experience years at 0.
func GenerateWeightTable(cfg models.WeightConfig) []models.WeightEntry {
	if cfg.MaxWeight <= 0 || cfg.Interval <= 0 {
		return nil
	}
	start := 1
	if cfg.Kind == models.WeightKindExperienceYears {
		start = 0
	}
	var entries []models.WeightEntry
	for i := start; ; i++ {
		weight := cfg.MaxWeight - float64(i-start)*cfg.Interval
		if weight <= 0 {
			break
		}
		entries = append(entries, models.WeightEntry{Index: i, Weight: weight})
	}
	return entries
}

// weightFor resolves an index against a generated table. Missing lookups
// resolve to zero rather than erroring.
func weightFor(entries []models.WeightEntry, index int) float64 {
	for _, entry := range entries {
		if entry.Index == index {
			return entry.Weight
		}
	}
	return 0
}
