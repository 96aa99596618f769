package refresh

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lecturelink/backend/internal/models"
)

// DefaultSweepInterval is how often the background sweep runs.
const DefaultSweepInterval = 3 * time.Hour

// RecordLister streams every stored record to a callback.
type RecordLister interface {
	StreamAll(ctx context.Context, fn func(*models.VideoRecord) error) error
}

// Summary reports one sweep over all records.
type Summary struct {
	// Total is the number of records scanned.
	Total int
	// Updated is the number of role URLs reissued and persisted.
	Updated int
	// Failed is the number of records that hit an error.
	Failed int

	StartedAt time.Time
	Duration  time.Duration
}

// Status is a snapshot of the sweep schedule.
type Status struct {
	Running  bool
	Sweeping bool
	Interval time.Duration
	NextRun  time.Time
	LastRun  time.Time
}

// Sweeper periodically walks all records and refreshes URLs that expire soon.
type Sweeper struct {
	lister    RecordLister
	refresher *Refresher
	interval  time.Duration
	margin    time.Duration
	logger    *zap.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	triggerCh chan struct{}
	sweeping  bool
	nextRun   time.Time
	lastRun   time.Time

	// sweepMu serializes sweeps so a manual trigger cannot overlap a
	// scheduled run.
	sweepMu sync.Mutex
}

// NewSweeper creates a sweeper. margin is the freshness margin applied to
// every role during a sweep.
func NewSweeper(lister RecordLister, refresher *Refresher, interval, margin time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		lister:    lister,
		refresher: refresher,
		interval:  interval,
		margin:    margin,
		logger:    logger,
		triggerCh: make(chan struct{}, 1),
	}
}

// Start begins the sweep loop. Call Stop() to release resources.
func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.nextRun = time.Now().UTC().Add(s.interval)
	s.mu.Unlock()

	go s.run(ctx)
	s.logger.Info("url sweeper started", zap.Duration("interval", s.interval), zap.Duration("margin", s.margin))
}

// Stop stops the sweep loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.cancel = nil
	done := s.done
	s.mu.Unlock()
	<-done
	s.logger.Info("url sweeper stopped")
}

// Trigger requests an immediate sweep. Returns false when a trigger is
// already pending or the sweeper is not running; triggering does not reset
// the interval schedule.
func (s *Sweeper) Trigger() bool {
	s.mu.Lock()
	running := s.cancel != nil
	s.mu.Unlock()
	if !running {
		return false
	}
	select {
	case s.triggerCh <- struct{}{}:
		return true
	default:
		return false
	}
}

// RunOnce performs a single synchronous sweep.
func (s *Sweeper) RunOnce(ctx context.Context) Summary {
	return s.sweep(ctx)
}

// Status returns a snapshot of the schedule.
func (s *Sweeper) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running:  s.cancel != nil,
		Sweeping: s.sweeping,
		Interval: s.interval,
		NextRun:  s.nextRun,
		LastRun:  s.lastRun,
	}
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.triggerCh:
			s.sweep(ctx)
		case <-ticker.C:
			s.mu.Lock()
			s.nextRun = time.Now().UTC().Add(s.interval)
			s.mu.Unlock()
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) Summary {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	s.mu.Lock()
	s.sweeping = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.sweeping = false
		s.mu.Unlock()
	}()

	sum := Summary{StartedAt: time.Now().UTC()}
	s.logger.Info("url sweep started")

	err := s.lister.StreamAll(ctx, func(rec *models.VideoRecord) error {
		sum.Total++
		out, err := s.refresher.EnsureFresh(ctx, rec, models.AllRoles, s.margin, ReasonBackground)
		if err != nil {
			sum.Failed++
			s.logger.Warn("sweep refresh failed",
				zap.String("group_id", rec.GroupID),
				zap.Error(err))
		}
		if out.Persisted {
			sum.Updated += len(out.Issued)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("url sweep aborted", zap.Error(err))
	}

	sum.Duration = time.Since(sum.StartedAt)
	s.mu.Lock()
	s.lastRun = sum.StartedAt
	s.mu.Unlock()

	s.logger.Info("url sweep completed",
		zap.Int("updated", sum.Updated),
		zap.Int("total", sum.Total),
		zap.Int("failed", sum.Failed),
		zap.Duration("duration", sum.Duration))
	return sum
}
