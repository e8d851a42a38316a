package models

import "time"

// WeightKind distinguishes the two configured weight tables.
type WeightKind string

const (
	WeightKindPreferenceRank  WeightKind = "PREFERENCE_RANK"
	WeightKindExperienceYears WeightKind = "EXPERIENCE_YEARS"
)

// WeightConfig holds the two scalars a weight table is generated from.
// Entry i receives maxWeight - i*interval, generated until the value drops
// to zero or below.
type WeightConfig struct {
	ID        string     `db:"id" json:"id"`
	Kind      WeightKind `db:"kind" json:"kind"`
	MaxWeight float64    `db:"max_weight" json:"max_weight"`
	Interval  float64    `db:"interval" json:"interval"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// WeightEntry is one generated table row: an index (rank or years of
// experience) and its weight.
type WeightEntry struct {
	Index  int     `json:"index"`
	Weight float64 `json:"weight"`
}
