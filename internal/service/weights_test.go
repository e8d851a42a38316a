package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadset/course-load-api/internal/models"
)

func TestGenerateWeightTablePreferenceRank(t *testing.T) {
	entries := GenerateWeightTable(models.WeightConfig{
		Kind:      models.WeightKindPreferenceRank,
		MaxWeight: 10,
		Interval:  3,
	})

	require.Len(t, entries, 4)
	assert.Equal(t, 1, entries[0].Index)
	assert.InDelta(t, 10.0, entries[0].Weight, 1e-9)
	assert.Equal(t, 4, entries[3].Index)
	assert.InDelta(t, 1.0, entries[3].Weight, 1e-9)
}

func TestGenerateWeightTableExperienceYears(t *testing.T) {
	entries := GenerateWeightTable(models.WeightConfig{
		Kind:      models.WeightKindExperienceYears,
		MaxWeight: 5,
		Interval:  2,
	})

	// Experience tables index from zero years.
	require.Len(t, entries, 3)
	assert.Equal(t, 0, entries[0].Index)
	assert.InDelta(t, 5.0, entries[0].Weight, 1e-9)
	assert.Equal(t, 2, entries[2].Index)
	assert.InDelta(t, 1.0, entries[2].Weight, 1e-9)
}

func TestGenerateWeightTableStopsBeforeZero(t *testing.T) {
	entries := GenerateWeightTable(models.WeightConfig{
		Kind:      models.WeightKindPreferenceRank,
		MaxWeight: 6,
		Interval:  3,
	})

	// 6, 3, then 0 which is excluded.
	require.Len(t, entries, 2)
	assert.InDelta(t, 3.0, entries[1].Weight, 1e-9)
}

func TestGenerateWeightTableInvalidScalars(t *testing.T) {
	assert.Nil(t, GenerateWeightTable(models.WeightConfig{MaxWeight: 0, Interval: 1}))
	assert.Nil(t, GenerateWeightTable(models.WeightConfig{MaxWeight: 10, Interval: 0}))
	assert.Nil(t, GenerateWeightTable(models.WeightConfig{MaxWeight: -1, Interval: -1}))
}

func TestWeightFor(t *testing.T) {
	entries := []models.WeightEntry{{Index: 1, Weight: 10}, {Index: 2, Weight: 7}}

	assert.InDelta(t, 7.0, weightFor(entries, 2), 1e-9)
	assert.Zero(t, weightFor(entries, 9))
	assert.Zero(t, weightFor(nil, 1))
}
