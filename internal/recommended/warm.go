package recommended

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/storage"
)

// Warm seeds every row from its latest stored snapshot so the page renders
// before the first upstream fetch. The one-click DeFi row takes its APY and
// volume from the latest stored metrics; metrics may be nil. Rows already
// cached or never snapshotted are skipped. It returns the rows seeded.
func (p *Page) Warm(ctx context.Context, snapshots storage.SnapshotStore, metrics storage.MetricsStore) (int, error) {
	if snapshots == nil {
		return 0, nil
	}

	warmed := 0
	for _, cat := range domain.AllCategories {
		snap, err := snapshots.Latest(ctx, cat)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return warmed, fmt.Errorf("latest snapshot %s: %w", cat, err)
		}

		var byID map[caip.AssetID]domain.OpportunityMetrics
		if cat == domain.CategoryOneClickDefi && metrics != nil && len(snap.AssetIDs) > 0 {
			points, err := metrics.Latest(ctx, snap.AssetIDs)
			if err != nil {
				return warmed, fmt.Errorf("latest metrics: %w", err)
			}
			byID = make(map[caip.AssetID]domain.OpportunityMetrics, len(points))
			for id, pt := range points {
				byID[id] = domain.OpportunityMetrics{APY: pt.APY, VolumeUSD1d: pt.VolumeUSD1d}
			}
		}

		ok, err := p.sources.Warm(cat, snap.AssetIDs, byID, time.UnixMilli(snap.FetchedAt))
		if err != nil {
			return warmed, err
		}
		if ok {
			warmed++
		}
	}
	p.logger.Debug("warmed rows from snapshots", zap.Int("rows", warmed))
	return warmed, nil
}
