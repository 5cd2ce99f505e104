package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hours-reconciliation-backend/internal/models"
	"hours-reconciliation-backend/internal/services/aggregation"
)

const (
	keyPrefix     = "recon:summary"
	generationKey = keyPrefix + ":gen"
)

// SummaryCache stores summary reports in redis. Entries are keyed by a
// generation counter so that one INCR invalidates every cached report
// after runs are added or removed.
type SummaryCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSummaryCache(rdb *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{rdb: rdb, ttl: ttl}
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func (c *SummaryCache) GetSummary(ctx context.Context, filter models.RowFilter) (*aggregation.Report, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, false, err
	}
	val, err := c.rdb.Get(ctx, summaryKey(gen, filter)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached summary: %w", err)
	}

	var report aggregation.Report
	if err := json.Unmarshal(val, &report); err != nil {
		return nil, false, fmt.Errorf("decode cached summary: %w", err)
	}
	return &report, true, nil
}

func (c *SummaryCache) SetSummary(ctx context.Context, filter models.RowFilter, report *aggregation.Report) error {
	gen, err := c.generation(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := c.rdb.Set(ctx, summaryKey(gen, filter), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached summary: %w", err)
	}
	return nil
}

// Invalidate bumps the generation; stale entries expire through their TTL.
func (c *SummaryCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("invalidate summary cache: %w", err)
	}
	return nil
}

func (c *SummaryCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read summary cache generation: %w", err)
	}
	return gen, nil
}

func summaryKey(gen int64, filter models.RowFilter) string {
	sum := sha256.Sum256([]byte(filter.Key()))
	return fmt.Sprintf("%s:%d:%s", keyPrefix, gen, hex.EncodeToString(sum[:]))
}
