// Package refresher periodically reloads every Recommended row, persists the
// ranked listings and DeFi metrics, and pushes the result to live clients.
package refresher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/idhash"
	"markets-lab/internal/observability"
	"markets-lab/internal/query"
	"markets-lab/internal/recommended"
	"markets-lab/internal/storage"
)

// DefaultInterval is used when Options.Interval is zero.
const DefaultInterval = time.Minute

// ErrRunInProgress is returned by RunOnce while another run is active.
var ErrRunInProgress = errors.New("refresh already running")

// Broadcaster pushes a value to live subscribers.
type Broadcaster interface {
	Broadcast(v any) error
}

// Options configures a Refresher.
type Options struct {
	Page        *recommended.Page
	Snapshots   storage.SnapshotStore
	Metrics     storage.MetricsStore
	Broadcaster Broadcaster // optional
	Interval    time.Duration
	Now         func() time.Time
	Logger      *zap.Logger
}

// Status is the refresher state reported on /status.
type Status struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	Started   time.Time `json:"started"`
	LastRun   time.Time `json:"last_run,omitempty"`
	LastRunID string    `json:"last_run_id,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	Runs      int       `json:"runs"`
	Failures  int       `json:"failures"`
	Running   bool      `json:"running"`
}

// Result summarizes one run.
type Result struct {
	RunID            string
	SnapshotsWritten int
	MetricsWritten   int
	Duration         time.Duration
}

// Refresher drives the refresh loop.
type Refresher struct {
	page        *recommended.Page
	snapshots   storage.SnapshotStore
	metrics     storage.MetricsStore
	broadcaster Broadcaster
	interval    time.Duration
	now         func() time.Time
	logger      *zap.Logger

	mu        sync.Mutex
	started   time.Time
	running   bool
	lastRun   time.Time
	lastRunID string
	lastErr   error
	runs      int
	failures  int
}

// New creates a Refresher.
func New(opts Options) *Refresher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Refresher{
		page:        opts.Page,
		snapshots:   opts.Snapshots,
		metrics:     opts.Metrics,
		broadcaster: opts.Broadcaster,
		interval:    interval,
		now:         now,
		logger:      logger.Named("refresher"),
		started:     now(),
	}
}

// Run refreshes immediately and then on every tick until ctx is done.
// Ticks that arrive while a run is active are skipped.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("starting refresh loop", zap.Duration("interval", r.interval))

	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	if _, err := r.RunOnce(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			r.logger.Debug("refresh already running, skipping")
			return
		}
		r.logger.Warn("refresh failed", zap.Error(err))
	}
}

// RunOnce performs one refresh. Persistence and broadcast failures do not
// stop the remaining steps; the first error is returned.
func (r *Refresher) RunOnce(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrRunInProgress
	}
	r.running = true
	r.mu.Unlock()

	start := r.now()
	res := &Result{RunID: uuid.NewString()}
	log := r.logger.With(zap.String("run_id", res.RunID))
	log.Debug("refresh started")

	var errs []error
	if err := r.page.Load(ctx, nil, query.Options{ForceRefetch: true}); err != nil {
		errs = append(errs, fmt.Errorf("load: %w", err))
	}
	if _, err := r.page.Sources().FetchOpportunitiesMetadata(ctx, []domain.OpportunityKey{recommended.SaversOpportunityKey}, query.Options{ForceRefetch: true}); err != nil {
		errs = append(errs, fmt.Errorf("savers metadata: %w", err))
	}

	nowMs := start.UnixMilli()
	n, err := r.persistSnapshots(ctx, nowMs)
	res.SnapshotsWritten = n
	if err != nil {
		errs = append(errs, err)
	}
	n, err = r.persistMetrics(ctx, nowMs)
	res.MetricsWritten = n
	if err != nil {
		errs = append(errs, err)
	}

	if r.broadcaster != nil {
		update := recommended.Update{
			Type:      recommended.UpdateTypeRows,
			RunID:     res.RunID,
			Timestamp: nowMs,
			Rows:      r.page.Views(nil),
		}
		if err := r.broadcaster.Broadcast(update); err != nil {
			errs = append(errs, fmt.Errorf("broadcast: %w", err))
		}
	}

	res.Duration = r.now().Sub(start)
	runErr := errors.Join(errs...)

	status := "success"
	if runErr != nil {
		status = "error"
	} else {
		observability.UpdateLastRefresh(r.now().Unix())
	}
	observability.RecordRefreshRun(status, res.Duration.Seconds())

	r.mu.Lock()
	r.running = false
	r.lastRun = r.now()
	r.lastRunID = res.RunID
	r.lastErr = runErr
	r.runs++
	if runErr != nil {
		r.failures++
	}
	r.mu.Unlock()

	log.Info("refresh completed",
		zap.String("status", status),
		zap.Int("snapshots", res.SnapshotsWritten),
		zap.Int("metrics", res.MetricsWritten),
		zap.Duration("duration", res.Duration))

	if runErr != nil {
		return res, runErr
	}
	return res, nil
}

// persistSnapshots stores the ranked listing of every loaded category.
func (r *Refresher) persistSnapshots(ctx context.Context, nowMs int64) (int, error) {
	if r.snapshots == nil {
		return 0, nil
	}
	written := 0
	for _, cat := range domain.AllCategories {
		set := r.page.Sources().Category(cat)
		if set.IsLoading {
			continue
		}
		observability.UpdateCategorySize(string(cat), len(set.IDs))

		snap := &domain.CategorySnapshot{
			SnapshotID: idhash.ComputeSnapshotID(cat, nowMs, set.IDs),
			Category:   cat,
			AssetIDs:   append([]caip.AssetID(nil), set.IDs...),
			FetchedAt:  nowMs,
			CreatedAt:  nowMs,
		}
		err := r.snapshots.Insert(ctx, snap)
		switch {
		case err == nil:
			written++
		case errors.Is(err, storage.ErrDuplicateKey):
			// same listing already stored for this instant
		default:
			return written, fmt.Errorf("insert snapshot %s: %w", cat, err)
		}
	}
	return written, nil
}

// persistMetrics appends APY and volume points for the DeFi rows.
func (r *Refresher) persistMetrics(ctx context.Context, nowMs int64) (int, error) {
	if r.metrics == nil {
		return 0, nil
	}

	var points []*domain.MetricsPoint
	seen := make(map[string]struct{})
	add := func(p *domain.MetricsPoint) {
		k := string(p.Category) + "|" + string(p.AssetID)
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		points = append(points, p)
	}

	if assets, _ := r.page.Sources().Portals(nil); assets != nil {
		for _, id := range assets.IDs {
			m := assets.ByID[id].Metrics
			add(&domain.MetricsPoint{
				AssetID:     id,
				Category:    domain.CategoryOneClickDefi,
				TimestampMs: nowMs,
				APY:         m.APY,
				VolumeUSD1d: m.VolumeUSD1d,
			})
		}
	}
	for _, meta := range r.page.Sources().OpportunitiesMetadata([]domain.OpportunityKey{recommended.SaversOpportunityKey}) {
		if meta.AssetID == "" {
			continue
		}
		add(&domain.MetricsPoint{
			AssetID:     meta.AssetID,
			Category:    domain.CategoryThorchainSavers,
			TimestampMs: nowMs,
			APY:         meta.APY,
		})
	}

	if len(points) == 0 {
		return 0, nil
	}
	if err := r.metrics.InsertBulk(ctx, points); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return 0, nil
		}
		return 0, fmt.Errorf("insert metrics: %w", err)
	}
	return len(points), nil
}

// Status returns the current state.
func (r *Refresher) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Status{
		Status:    "running",
		Uptime:    r.now().Sub(r.started).Round(time.Second).String(),
		Started:   r.started,
		LastRun:   r.lastRun,
		LastRunID: r.lastRunID,
		Runs:      r.runs,
		Failures:  r.failures,
		Running:   r.running,
	}
	if r.lastErr != nil {
		s.Status = "degraded"
		s.LastError = r.lastErr.Error()
	}
	return s
}
