package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"schoolku_backend/internals/configs"
	"schoolku_backend/internals/features/school/exams/slips/dto"
	"schoolku_backend/internals/helpers/dbtime"
)

// Generator: bagian slip service yang dipakai job autogen.
type Generator interface {
	GenerateMissingForUpcoming(ctx context.Context, now time.Time, loc *time.Location, daysAhead int) (*dto.AutogenReport, error)
}

type SlipAutogenConfig struct {
	Enabled   bool
	Schedule  string
	DaysAhead int
	Timezone  string // IANA, "hari ini" dihitung di zona sekolah
	Timeout   time.Duration
}

func ConfigFrom(cfg configs.AppConfig) SlipAutogenConfig {
	return SlipAutogenConfig{
		Enabled:   cfg.SlipAutogenEnabled,
		Schedule:  cfg.SlipAutogenCron,
		DaysAhead: cfg.SlipAutogenDaysAhead,
		Timezone:  cfg.SchoolTZ,
		Timeout:   10 * time.Minute,
	}
}

type SlipAutogen struct {
	Gen Generator
	Cfg SlipAutogenConfig
	Now func() time.Time

	mu      sync.Mutex
	last    *dto.AutogenReport
	lastErr error
}

func NewSlipAutogen(gen Generator, cfg SlipAutogenConfig) *SlipAutogen {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	return &SlipAutogen{Gen: gen, Cfg: cfg, Now: time.Now}
}

// RunOnce: satu putaran, dipanggil cron atau manual.
func (j *SlipAutogen) RunOnce(ctx context.Context) (*dto.AutogenReport, error) {
	ctx, cancel := context.WithTimeout(ctx, j.Cfg.Timeout)
	defer cancel()

	start := time.Now()
	loc := dbtime.SchoolLocation(j.Cfg.Timezone)
	log.Printf("[SLIP-AUTOGEN] mulai (days_ahead=%d tz=%s)", j.Cfg.DaysAhead, loc)
	rep, err := j.Gen.GenerateMissingForUpcoming(ctx, j.Now(), loc, j.Cfg.DaysAhead)

	j.mu.Lock()
	j.last, j.lastErr = rep, err
	j.mu.Unlock()

	if err != nil {
		log.Printf("[SLIP-AUTOGEN] ❌ gagal: %v", err)
		return rep, err
	}
	log.Printf("[SLIP-AUTOGEN] ✅ selesai dalam %s | datesheets=%d classes=%d created=%d skipped=%d failed=%d",
		time.Since(start).Truncate(time.Millisecond), rep.Datesheets, rep.Classes, rep.Created, rep.Skipped, rep.Failed)
	return rep, nil
}

// Last: hasil putaran terakhir (nil kalau belum pernah jalan).
func (j *SlipAutogen) Last() (*dto.AutogenReport, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last, j.lastErr
}

// Start mendaftarkan job ke cron. Return nil kalau dimatikan via ENV.
// Caller wajib Stop() saat shutdown.
func (j *SlipAutogen) Start(ctx context.Context) (*cron.Cron, error) {
	if !j.Cfg.Enabled {
		log.Println("[SLIP-AUTOGEN] disabled (SLIP_AUTOGEN_ENABLED=false)")
		return nil, nil
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(j.Cfg.Schedule, func() {
		_, _ = j.RunOnce(ctx)
	}); err != nil {
		return nil, err
	}
	c.Start()
	log.Printf("[SLIP-AUTOGEN] scheduled: %q", j.Cfg.Schedule)
	return c, nil
}
