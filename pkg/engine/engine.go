// Package engine is the optimizer facade: load a player pool once, then run
// Monte Carlo or genetic lineup optimization with progress callbacks and
// cooperative cancellation. An Engine runs one operation at a time; pool,
// correlation matrix, and rating calculator are shared read-only across runs.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/internal/optimizer"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/config"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/logger"
	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// Option customizes an Engine at construction.
type Option func(*Engine)

// WithLogger replaces the component logger.
func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) { e.log = log }
}

// WithProgress registers the coarse progress callback. Intermediate updates
// are rate limited; stage transitions and completion always fire.
func WithProgress(fn types.ProgressFunc) Option {
	return func(e *Engine) { e.progress = fn }
}

// WithStatus registers the human-readable status callback.
func WithStatus(fn types.StatusFunc) Option {
	return func(e *Engine) { e.status = fn }
}

// WithSeed fixes every random decision so identical runs reproduce the same
// lineups, samples, and rankings.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// Engine orchestrates pool preparation, lineup construction or evolution,
// performance sampling, contest scoring, and ranking.
type Engine struct {
	cfg  *config.Config
	log  *logrus.Entry
	seed int64

	progress types.ProgressFunc
	status   types.StatusFunc
	limiter  *rate.Limiter

	emitMu      sync.Mutex
	lastStage   types.ProgressStage
	lastPercent float64

	runMu     sync.Mutex
	cancelMu  sync.Mutex
	cancelRun context.CancelFunc

	pool                  *optimizer.PlayerPool
	correlations          *optimizer.CorrelationMatrix
	nexus                 *optimizer.NexusCalculator
	seeds                 []types.Lineup
	prioritizeProjections bool
	initialized           bool
}

// New builds an engine over cfg; nil cfg takes the package defaults.
func New(cfg *config.Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	e := &Engine{
		cfg:  cfg,
		log:  logger.WithComponent("engine"),
		seed: time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(e)
	}

	updates := cfg.ProgressUpdatesPerSecond
	if updates <= 0 {
		updates = 20
	}
	e.limiter = rate.NewLimiter(rate.Limit(updates), 1)
	return e
}

// Initialize loads the player pool, exposure settings, and any pre-existing
// seed lineups. Seeds count toward exposure and duplicate detection on
// simulation runs. Initialize may be called again to swap slates.
func (e *Engine) Initialize(playerPool []types.PlayerInput, exposure types.ExposureSettings, seeds []types.Lineup) error {
	pool, err := optimizer.NewPlayerPool(playerPool, exposure)
	if err != nil {
		return err
	}

	e.pool = pool
	e.correlations = optimizer.NewCorrelationMatrix(pool, optimizer.DefaultCorrelationConfig())
	e.nexus = optimizer.NewNexusCalculator(pool)
	e.seeds = append([]types.Lineup(nil), seeds...)
	e.prioritizeProjections = exposure.Global.PrioritizeProjections
	e.initialized = true

	e.log.WithFields(logrus.Fields{
		"players": len(pool.Players),
		"teams":   len(pool.TeamCodes),
		"seeds":   len(seeds),
	}).Info("engine initialized")
	return nil
}

// Cancel stops the in-flight run at its next suspension point. Partial
// lineups are discarded and the run returns a Cancelled error. Calling
// Cancel with no run in flight is a no-op.
func (e *Engine) Cancel() {
	e.cancelMu.Lock()
	cancel := e.cancelRun
	e.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// beginRun derives the run context Cancel() can reach and resets progress
// bookkeeping. The returned cleanup releases both.
func (e *Engine) beginRun(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	e.cancelMu.Lock()
	e.cancelRun = cancel
	e.cancelMu.Unlock()

	e.emitMu.Lock()
	e.lastStage = ""
	e.lastPercent = -1
	e.emitMu.Unlock()

	return ctx, func() {
		e.cancelMu.Lock()
		e.cancelRun = nil
		e.cancelMu.Unlock()
		cancel()
	}
}

func (e *Engine) requireInitialized() error {
	if !e.initialized {
		return types.NewEngineError(types.ErrKindInvalidInput,
			"engine not initialized: call Initialize before running")
	}
	return nil
}

// emitProgress forwards a progress update, keeping percent monotone within
// a run and rate limiting same-stage updates. Stage transitions and the
// 100 mark always pass.
func (e *Engine) emitProgress(percent float64, stage types.ProgressStage) {
	if e.progress == nil {
		return
	}
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	if stage == e.lastStage {
		if percent <= e.lastPercent {
			return
		}
		if percent < 100 && !e.limiter.Allow() {
			return
		}
	}
	e.lastStage = stage
	e.lastPercent = percent
	e.progress(percent, stage)
}

// failRun reports a terminal error through both callbacks at the last
// observed percent.
func (e *Engine) failRun(err error) {
	e.emitMu.Lock()
	percent := e.lastPercent
	if percent < 0 {
		percent = 0
	}
	e.emitMu.Unlock()

	if e.progress != nil {
		e.progress(percent, types.StageError)
	}
	e.emitStatus("run failed: %v", err)
}

func (e *Engine) emitStatus(format string, args ...interface{}) {
	if e.status == nil {
		return
	}
	e.status(fmt.Sprintf(format, args...))
}
