package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFilename(t *testing.T) {
	rng, ok := FromFilename("Relatorio_05-10-2025_11-10-2025.xlsx")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC), rng.Start)
	assert.Equal(t, time.Date(2025, 10, 11, 0, 0, 0, 0, time.UTC), rng.End)
	assert.Equal(t, "05-10-2025_11-10-2025", rng.Label())
}

func TestFromFilenameSwapsReversedDates(t *testing.T) {
	rng, ok := FromFilename("11-10-2025_05-10-2025.xlsx")
	require.True(t, ok)
	assert.True(t, rng.Start.Before(rng.End))
}

func TestFromFilenameWithoutWindow(t *testing.T) {
	rng, ok := FromFilename("relatorio.xlsx")
	assert.False(t, ok)
	assert.True(t, rng.IsZero())
}

func TestContains(t *testing.T) {
	rng, ok := FromFilename("05-10-2025_11-10-2025")
	require.True(t, ok)

	assert.True(t, rng.Contains(time.Date(2025, 10, 5, 23, 59, 0, 0, time.UTC)))
	assert.True(t, rng.Contains(time.Date(2025, 10, 11, 0, 0, 0, 0, time.UTC)))
	assert.False(t, rng.Contains(time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC)))
	assert.False(t, rng.Contains(time.Date(2025, 10, 12, 0, 0, 0, 0, time.UTC)))
}

func TestZeroRangeContainsEverything(t *testing.T) {
	var rng Range
	assert.True(t, rng.Contains(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, rng.Contains(time.Date(2090, 1, 1, 0, 0, 0, 0, time.UTC)))
}
