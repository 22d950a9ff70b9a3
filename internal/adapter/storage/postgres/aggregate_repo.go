package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bedrock-relay/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// AggregateRepo implements ports.AggregateStore on the aggregates table.
// Documents are namespaced by owner, mirroring Aleph's per-address aggregates.
type AggregateRepo struct {
	pool  Pool
	owner string
	now   func() time.Time
}

// NewAggregateRepo creates a new AggregateRepo.
func NewAggregateRepo(pool Pool, owner string) *AggregateRepo {
	return &AggregateRepo{pool: pool, owner: owner, now: time.Now}
}

func (r *AggregateRepo) FetchAggregate(ctx context.Context, key string) (map[string]interface{}, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT content FROM aggregates WHERE owner = $1 AND key = $2`,
		r.owner, key,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrAggregateNotFound
		}
		return nil, fmt.Errorf("querying aggregate: %w", err)
	}

	content := make(map[string]interface{})
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("decoding aggregate: %w", err)
	}
	return content, nil
}

// CreateAggregate upserts key, replacing the stored document.
func (r *AggregateRepo) CreateAggregate(ctx context.Context, key string, content map[string]interface{}) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encoding aggregate: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO aggregates (owner, key, content, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (owner, key) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`,
		r.owner, key, raw, r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upserting aggregate: %w", err)
	}
	return nil
}
