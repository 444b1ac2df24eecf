package council

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lumenfin/CouncilGo/internal/agents"
	"github.com/lumenfin/CouncilGo/internal/models"
)

// liveBoard is the shared in-progress view of the collection. Analysts
// that start later see clones of whatever their peers have already
// posted; nothing on the board is ever handed out by reference.
type liveBoard struct {
	mu    sync.Mutex
	views map[string]*models.Proposal
}

func newLiveBoard() *liveBoard {
	return &liveBoard{views: make(map[string]*models.Proposal)}
}

func (b *liveBoard) post(p *models.Proposal) {
	b.mu.Lock()
	b.views[p.Agent] = p
	b.mu.Unlock()
}

// snapshot clones every posted proposal under the lock, so callers can
// read and mutate freely while collection continues.
func (b *liveBoard) snapshot() agents.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(agents.Snapshot, len(b.views))
	for name, p := range b.views {
		out[name] = p.Clone()
	}
	return out
}

// Collector fans analyst proposals out concurrently. Individual
// failures retry with a growing backoff and finally degrade to a
// neutral stance; collection as a whole never fails.
type Collector struct {
	analysts []agents.Analyst
	attempts int
	backoff  time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

func NewCollector(analysts []agents.Analyst, attempts int, backoff, timeout time.Duration, logger *zap.Logger) *Collector {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		analysts: analysts,
		attempts: attempts,
		backoff:  backoff,
		timeout:  timeout,
		logger:   logger.Named("collector"),
	}
}

// Collect gathers one proposal per analyst. The returned error map
// records, per analyst, the final error behind any neutral fallback;
// analysts that succeeded are absent from it.
func (c *Collector) Collect(ctx context.Context, req *models.Request) (map[string]*models.Proposal, map[string]string) {
	board := newLiveBoard()

	var mu sync.Mutex
	failures := make(map[string]string)

	var wg sync.WaitGroup
	for _, analyst := range c.analysts {
		wg.Add(1)
		go func(a agents.Analyst) {
			defer wg.Done()
			p, err := c.collectOne(ctx, req, a, board)
			if err != nil {
				p = models.NeutralProposal(a.Name(),
					"Unable to produce proposal: "+err.Error(),
					"defaulted to a neutral stance after exhausting retries")
				mu.Lock()
				failures[a.Name()] = err.Error()
				mu.Unlock()
				c.logger.Warn("analyst exhausted retries, posting neutral fallback",
					zap.String("analyst", a.Name()), zap.Error(err))
			}
			board.post(p)
		}(analyst)
	}
	wg.Wait()

	return board.snapshot(), failures
}

func (c *Collector) collectOne(ctx context.Context, req *models.Request, a agents.Analyst, board *liveBoard) (*models.Proposal, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		attemptCtx := ctx
		cancel := func() {}
		if c.timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		}
		p, err := a.Propose(attemptCtx, req, board.snapshot())
		cancel()
		if err == nil {
			return p, nil
		}
		lastErr = err
		c.logger.Warn("proposal attempt failed",
			zap.String("analyst", a.Name()),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < c.attempts {
			if err := sleepCtx(ctx, c.backoff*time.Duration(attempt)); err != nil {
				return nil, lastErr
			}
		}
	}
	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
