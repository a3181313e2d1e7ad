package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"markets-lab/internal/caip"
	"markets-lab/internal/domain"
	"markets-lab/internal/storage"
)

// AssetStore implements storage.AssetStore using PostgreSQL.
type AssetStore struct {
	pool *Pool
}

// NewAssetStore creates a new AssetStore.
func NewAssetStore(pool *Pool) *AssetStore {
	return &AssetStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AssetStore = (*AssetStore)(nil)

// Upsert inserts or replaces an asset keyed by asset_id.
func (s *AssetStore) Upsert(ctx context.Context, a *domain.Asset) error {
	if a == nil || a.AssetID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO assets (
			asset_id, chain_id, symbol, name, network_name, decimals, color, icon, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (asset_id) DO UPDATE SET
			chain_id = EXCLUDED.chain_id,
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			network_name = EXCLUDED.network_name,
			decimals = EXCLUDED.decimals,
			color = EXCLUDED.color,
			icon = EXCLUDED.icon,
			updated_at = EXCLUDED.updated_at
	`

	start := time.Now()
	_, err := s.pool.Exec(ctx, query,
		string(a.AssetID),
		string(a.ChainID),
		a.Symbol,
		a.Name,
		a.NetworkName,
		a.Precision,
		a.Color,
		a.Icon,
		a.UpdatedAt,
	)
	observe("asset_upsert", start, err)
	if err != nil {
		return fmt.Errorf("upsert asset: %w", err)
	}
	return nil
}

// GetByID retrieves an asset by its id. Returns ErrNotFound if not exists.
func (s *AssetStore) GetByID(ctx context.Context, assetID caip.AssetID) (*domain.Asset, error) {
	query := `
		SELECT asset_id, chain_id, symbol, name, network_name, decimals, color, icon, updated_at
		FROM assets
		WHERE asset_id = $1
	`

	start := time.Now()
	row := s.pool.QueryRow(ctx, query, string(assetID))
	a, err := scanAsset(row)
	observe("asset_get", start, err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get asset by id: %w", err)
	}
	return a, nil
}

// List retrieves all assets ordered by asset_id ASC.
func (s *AssetStore) List(ctx context.Context) ([]*domain.Asset, error) {
	query := `
		SELECT asset_id, chain_id, symbol, name, network_name, decimals, color, icon, updated_at
		FROM assets
		ORDER BY asset_id ASC
	`

	start := time.Now()
	rows, err := s.pool.Query(ctx, query)
	observe("asset_list", start, err)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var result []*domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assets: %w", err)
	}
	return result, nil
}

// scanAsset scans a single row into Asset.
func scanAsset(row pgx.Row) (*domain.Asset, error) {
	var a domain.Asset
	var assetID, chainID string

	err := row.Scan(
		&assetID,
		&chainID,
		&a.Symbol,
		&a.Name,
		&a.NetworkName,
		&a.Precision,
		&a.Color,
		&a.Icon,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.AssetID = caip.AssetID(assetID)
	a.ChainID = caip.ChainID(chainID)
	return &a, nil
}
