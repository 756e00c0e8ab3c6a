package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parisLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	return loc
}

func TestNormalizeTimeEmpty(t *testing.T) {
	loc := parisLocation(t)

	assert.Nil(t, NormalizeTime("", loc))
	assert.Nil(t, NormalizeTime("   ", loc))
}

func TestNormalizeTimeUnparseable(t *testing.T) {
	loc := parisLocation(t)

	assert.Nil(t, NormalizeTime("not-a-time", loc))
	assert.Nil(t, NormalizeTime("2024/03/04 08:00", loc))
}

func TestNormalizeTimeNaiveAttachesZone(t *testing.T) {
	loc := parisLocation(t)

	got := NormalizeTime("2024-03-04T08:00:00", loc)
	require.NotNil(t, got)

	want := time.Date(2024, time.March, 4, 8, 0, 0, 0, loc)
	assert.True(t, got.Equal(want), "naive input keeps its wall-clock time in the target zone")
	assert.Equal(t, loc, got.Location())
}

func TestNormalizeTimeNaiveWithoutSeconds(t *testing.T) {
	loc := parisLocation(t)

	got := NormalizeTime("2024-03-04T08:00", loc)
	require.NotNil(t, got)
	assert.True(t, got.Equal(time.Date(2024, time.March, 4, 8, 0, 0, 0, loc)))
}

func TestNormalizeTimeAwareConverts(t *testing.T) {
	loc := parisLocation(t)

	got := NormalizeTime("2024-03-04T08:00:00Z", loc)
	require.NotNil(t, got)

	// Same instant, expressed in the target zone: 08:00 UTC is 09:00 in Paris.
	assert.True(t, got.Equal(time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, loc, got.Location())
}

func TestNormalizeTimeAwareWithOffset(t *testing.T) {
	loc := parisLocation(t)

	got := NormalizeTime("2024-03-04T08:00+01:00", loc)
	require.NotNil(t, got)
	assert.Equal(t, 8, got.Hour())
	assert.Equal(t, "2024-03-04T08:00:00+01:00", got.Format(uidTimeLayout))
}
