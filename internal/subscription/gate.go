package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"arabic-chatbot.app/internal/logger/sl"
	"arabic-chatbot.app/internal/models"
	"arabic-chatbot.app/internal/remote"
)

type Fetcher interface {
	GetSubscription(ctx context.Context, token, userID string) (*models.Subscription, error)
}

type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// cachedRecord stores the raw answer so expiry is re-evaluated on every check.
type cachedRecord struct {
	Found        bool                `json:"found"`
	Subscription models.Subscription `json:"subscription"`
}

// Gate resolves a user's subscription at most once per cache TTL.
type Gate struct {
	fetcher Fetcher
	cache   Cache
	ttl     time.Duration
	now     func() time.Time
}

func NewGate(fetcher Fetcher, cache Cache, ttl time.Duration) *Gate {
	return &Gate{
		fetcher: fetcher,
		cache:   cache,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(userID string) string {
	return "subscription:" + userID
}

// Check returns the access decision for userID. A non-nil error always comes
// with a StateNone decision so callers fail closed.
func (g *Gate) Check(ctx context.Context, userID, token string) (Decision, error) {
	const op = "subscription.Gate.Check"

	var rec cachedRecord
	found, err := g.cache.Get(ctx, cacheKey(userID), &rec)
	if err != nil {
		slog.Warn("Subscription cache read failed", "user_id", userID, sl.Err(err))
	}
	if found && err == nil {
		return g.evaluate(rec), nil
	}

	sub, err := g.fetcher.GetSubscription(ctx, token, userID)
	switch {
	case errors.Is(err, remote.ErrNotFound):
		rec = cachedRecord{Found: false}
	case err != nil:
		return Decision{State: StateNone}, fmt.Errorf("%s: %w", op, err)
	default:
		rec = cachedRecord{Found: true, Subscription: *sub}
	}

	if err := g.cache.Set(ctx, cacheKey(userID), rec, g.ttl); err != nil {
		slog.Warn("Subscription cache write failed", "user_id", userID, sl.Err(err))
	}
	return g.evaluate(rec), nil
}

func (g *Gate) evaluate(rec cachedRecord) Decision {
	if !rec.Found {
		return Decision{State: StateNone}
	}
	return Evaluate(&rec.Subscription, g.now())
}

// Invalidate drops the cached record after a state-changing call such as a
// trial start or a captured payment.
func (g *Gate) Invalidate(ctx context.Context, userID string) {
	if err := g.cache.Invalidate(ctx, cacheKey(userID)); err != nil {
		slog.Warn("Subscription cache invalidation failed", "user_id", userID, sl.Err(err))
	}
}
