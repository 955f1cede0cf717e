package dbtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodParseAndValue(t *testing.T) {
	tod, err := ParseTod("09:30")
	require.NoError(t, err)
	assert.Equal(t, "09:30", tod.String())
	assert.Equal(t, 570, tod.Minutes())

	v, err := tod.Value()
	require.NoError(t, err)
	assert.Equal(t, "09:30:00", v)

	_, err = ParseTod("9.30")
	assert.Error(t, err)
}

func TestTodScan(t *testing.T) {
	var tod Tod
	require.NoError(t, tod.Scan([]byte("11:00:00")))
	assert.Equal(t, "11:00", tod.String())

	require.NoError(t, tod.Scan(time.Date(2024, 3, 1, 13, 15, 0, 0, time.Local)))
	assert.Equal(t, "13:15", tod.String())

	assert.Error(t, tod.Scan(42))
}

func TestTodJSON(t *testing.T) {
	var payload struct {
		Start Tod `json:"start"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"08:05"}`), &payload))
	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"08:05"}`, string(out))
}

func TestDates(t *testing.T) {
	d, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", FormatDate(d))
	assert.True(t, SameDate(d, time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)))
	assert.False(t, SameDate(d, d.AddDate(0, 0, 1)))
	assert.Equal(t, "", FormatDate(time.Time{}))

	loc := time.FixedZone("WIB", 7*3600)
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC) // 03:00 besoknya di WIB
	assert.Equal(t, "2024-03-02", FormatDate(TodayIn(loc, now)))
}
