package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolku_backend/internals/configs"
	"schoolku_backend/internals/features/school/exams/slips/dto"
	"schoolku_backend/internals/helpers/dbtime"
)

type fakeGen struct {
	calls    int
	gotNow   time.Time
	gotLoc   *time.Location
	gotAhead int
	report   *dto.AutogenReport
	err      error
}

func (f *fakeGen) GenerateMissingForUpcoming(_ context.Context, now time.Time, loc *time.Location, daysAhead int) (*dto.AutogenReport, error) {
	f.calls++
	f.gotNow, f.gotLoc, f.gotAhead = now, loc, daysAhead
	return f.report, f.err
}

func TestRunOnceStoresReport(t *testing.T) {
	now := time.Date(2024, 2, 25, 1, 30, 0, 0, time.UTC)
	gen := &fakeGen{report: &dto.AutogenReport{Datesheets: 1, Classes: 2, Created: 5}}
	j := NewSlipAutogen(gen, SlipAutogenConfig{DaysAhead: 7})
	j.Now = func() time.Time { return now }

	rep, err := j.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Created)
	assert.Equal(t, now, gen.gotNow)
	assert.Equal(t, 7, gen.gotAhead)
	require.NotNil(t, gen.gotLoc)
	assert.Equal(t, "Asia/Jakarta", gen.gotLoc.String()) // default kalau Timezone kosong

	last, lastErr := j.Last()
	assert.NoError(t, lastErr)
	assert.Same(t, rep, last)
}

func TestRunOnceError(t *testing.T) {
	gen := &fakeGen{err: errors.New("db down")}
	j := NewSlipAutogen(gen, SlipAutogenConfig{})

	_, err := j.RunOnce(context.Background())
	assert.EqualError(t, err, "db down")
	_, lastErr := j.Last()
	assert.Error(t, lastErr)
}

func TestStartDisabled(t *testing.T) {
	j := NewSlipAutogen(&fakeGen{}, SlipAutogenConfig{Enabled: false, Schedule: "* * * * *"})
	c, err := j.Start(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestStartBadSchedule(t *testing.T) {
	j := NewSlipAutogen(&fakeGen{}, SlipAutogenConfig{Enabled: true, Schedule: "bukan cron"})
	_, err := j.Start(context.Background())
	assert.Error(t, err)
}

func TestStartRegistersEntry(t *testing.T) {
	j := NewSlipAutogen(&fakeGen{}, SlipAutogenConfig{Enabled: true, Schedule: "30 1 * * *"})
	c, err := j.Start(context.Background())
	require.NoError(t, err)
	require.NotNil(t, c)
	defer c.Stop()
	assert.Len(t, c.Entries(), 1)
}

func TestConfigFrom(t *testing.T) {
	cfg := ConfigFrom(configs.AppConfig{SlipAutogenEnabled: true, SlipAutogenCron: "0 2 * * *", SlipAutogenDaysAhead: 3, SchoolTZ: "Asia/Makassar"})
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "0 2 * * *", cfg.Schedule)
	assert.Equal(t, 3, cfg.DaysAhead)
	assert.Equal(t, "Asia/Makassar", cfg.Timezone)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
}

func TestRunOncePassesSchoolTimezone(t *testing.T) {
	gen := &fakeGen{report: &dto.AutogenReport{}}
	j := NewSlipAutogen(gen, SlipAutogenConfig{Timezone: "Asia/Makassar"})
	j.Now = func() time.Time { return time.Date(2024, 2, 29, 17, 0, 0, 0, time.UTC) }

	_, err := j.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, gen.gotLoc)
	assert.Equal(t, "Asia/Makassar", gen.gotLoc.String())
	// 17:00 UTC = 01:00 WITA keesokan harinya
	assert.Equal(t, "2024-03-01", dbtime.FormatDate(dbtime.TodayIn(gen.gotLoc, gen.gotNow)))
}
