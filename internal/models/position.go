package models

import "time"

// Position is an academic rank granting a teaching-load exemption.
// Expected load for an instructor is the standard full load minus the
// exemption of their position.
type Position struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Exemption float64   `db:"exemption" json:"exemption"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
