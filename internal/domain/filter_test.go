package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterFixture() History {
	return History{
		rec("30-12-2023 10:00", 1200, LevelHigh),
		rec("01-01-2024 10:00", 500, LevelLow),
		rec("01-01-2024 11:00", 1300, LevelNormal),
		rec("05-01-2024 09:00", 100, LevelHigh),
	}
}

func timestamps(h History) []string {
	out := make([]string, len(h))
	for i, r := range h {
		out[i] = r.Timestamp
	}
	return out
}

func TestFilter_NoCriteriaReversesHistory(t *testing.T) {
	h := filterFixture()
	got := Filter(h, Criteria{})
	assert.Equal(t, []string{
		"05-01-2024 09:00", "01-01-2024 11:00", "01-01-2024 10:00", "30-12-2023 10:00",
	}, timestamps(got))
	assert.Equal(t, "30-12-2023 10:00", h[0].Timestamp, "input must not be reordered")
}

func TestFilter_DateRangeInclusive(t *testing.T) {
	c, err := ParseCriteria("2024-01-01", "01-01-2024", "", "ALL")
	require.NoError(t, err)
	assert.Equal(t, []string{"01-01-2024 11:00", "01-01-2024 10:00"}, timestamps(Filter(filterFixture(), c)))

	c, err = ParseCriteria("2023-12-31", "", "", "")
	require.NoError(t, err)
	assert.Len(t, Filter(filterFixture(), c), 3)

	c, err = ParseCriteria("", "2023-12-30", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"30-12-2023 10:00"}, timestamps(Filter(filterFixture(), c)))
}

func TestFilter_Categories(t *testing.T) {
	c, err := ParseCriteria("", "", "detected", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"01-01-2024 11:00", "30-12-2023 10:00"}, timestamps(Filter(filterFixture(), c)))

	c, err = ParseCriteria("", "", "NOT DETECTED", "HIGH")
	require.NoError(t, err)
	assert.Equal(t, []string{"05-01-2024 09:00"}, timestamps(Filter(filterFixture(), c)))

	c, err = ParseCriteria("", "", "NOT_DETECTED", "normal")
	require.NoError(t, err)
	assert.Empty(t, Filter(filterFixture(), c))
}

func TestParseCriteria_Invalid(t *testing.T) {
	_, err := ParseCriteria("tomorrow", "", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start date")

	_, err = ParseCriteria("", "2024-13-01", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end date")

	_, err = ParseCriteria("", "", "maybe", "")
	require.Error(t, err)

	_, err = ParseCriteria("", "", "", "EXTREME")
	require.Error(t, err)
}
