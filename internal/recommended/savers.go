package recommended

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"markets-lab/internal/domain"
	"markets-lab/internal/query"
)

// SaversOpportunityKey selects THORChain savers opportunities.
var SaversOpportunityKey = domain.OpportunityKey{
	DefiType:     domain.DefiTypeStaking,
	DefiProvider: domain.DefiProviderThorchainSavers,
}

// ThorchainSavers refreshes savers opportunities when the savers row
// becomes visible. The refresh only fills the query cache.
type ThorchainSavers struct {
	sources *Sources
	logger  *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewThorchainSavers creates an inactive ThorchainSavers.
func NewThorchainSavers(sources *Sources, logger *zap.Logger) *ThorchainSavers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThorchainSavers{sources: sources, logger: logger.Named("savers")}
}

// Activate starts the one-shot refresh: opportunity ids, then metadata,
// both bypassing the cache. It is a no-op while a previous activation is
// still live. Failures are logged.
func (t *ThorchainSavers) Activate(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)
		t.refresh(ctx)
	}()
}

// Deactivate cancels an in-flight refresh and waits for it to stop.
func (t *ThorchainSavers) Deactivate() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Wait blocks until the current activation's refresh has finished.
func (t *ThorchainSavers) Wait() {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (t *ThorchainSavers) refresh(ctx context.Context) {
	force := query.Options{ForceRefetch: true}

	ids, err := t.sources.FetchOpportunityIDs(ctx, SaversOpportunityKey, force)
	if err != nil {
		t.logger.Warn("savers opportunity ids refresh failed", zap.Error(err))
		return
	}

	meta, err := t.sources.FetchOpportunitiesMetadata(ctx, []domain.OpportunityKey{SaversOpportunityKey}, force)
	if err != nil {
		t.logger.Warn("savers metadata refresh failed", zap.Error(err))
		return
	}

	t.logger.Debug("savers opportunities refreshed", zap.Int("ids", len(ids)), zap.Int("metadata", len(meta)))
}
