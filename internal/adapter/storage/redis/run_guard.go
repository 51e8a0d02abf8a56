package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// RunGuard implements ports.RunGuard using Redis SET NX.
//
// One key per (campaign, period) pair absorbs duplicate scheduler ticks
// before they reach the database. The TTL outlives the period slightly so
// a tick firing at the period boundary still sees the guard.
type RunGuard struct {
	client *goredis.Client
	prefix string
}

// NewRunGuard creates a new Redis-backed campaign run guard.
func NewRunGuard(client *goredis.Client) *RunGuard {
	return &RunGuard{
		client: client,
		prefix: "campaign-run:",
	}
}

// MarkTriggered returns true if this caller is the first to trigger the
// (campaign, period) pair.
func (g *RunGuard) MarkTriggered(ctx context.Context, campaignID uuid.UUID, periodKey string, ttl time.Duration) (bool, error) {
	key := g.prefix + campaignID.String() + ":" + periodKey
	ok, err := g.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis run guard: %w", err)
	}
	return ok, nil
}
