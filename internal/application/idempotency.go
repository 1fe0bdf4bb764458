package application

import (
	"context"
	"fmt"
	"time"

	"github.com/Kilat-Pet-Delivery/service-marketplace/internal/common/cache"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IdempotencyTTL is how long a create request key is remembered.
const IdempotencyTTL = 24 * time.Hour

// idempotencyKeys maps client-supplied request keys to the aggregate they created.
type idempotencyKeys struct {
	store  cache.Store
	logger *zap.Logger
}

func (k idempotencyKeys) key(scope string, userID uuid.UUID, requestKey string) string {
	return fmt.Sprintf("idem:%s:%s:%s", scope, userID, requestKey)
}

// claim reserves requestKey for newID. When the key was already claimed it
// returns the earlier aggregate ID and false. An empty key, a missing store or a
// store failure all proceed without deduplication.
func (k idempotencyKeys) claim(ctx context.Context, scope string, userID uuid.UUID, requestKey string, newID uuid.UUID) (uuid.UUID, bool) {
	if requestKey == "" || k.store == nil {
		return uuid.Nil, true
	}
	key := k.key(scope, userID, requestKey)

	ok, err := k.store.PutIfAbsent(ctx, key, newID.String(), IdempotencyTTL)
	if err != nil {
		k.logger.Warn("idempotency store unavailable", zap.String("key", key), zap.Error(err))
		return uuid.Nil, true
	}
	if ok {
		return uuid.Nil, true
	}

	existing, found, err := k.store.Get(ctx, key)
	if err != nil || !found {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(existing)
	if err != nil {
		k.logger.Warn("corrupt idempotency entry", zap.String("key", key), zap.String("value", existing))
		return uuid.Nil, true
	}
	return id, false
}

// release forgets a claim whose create did not commit.
func (k idempotencyKeys) release(ctx context.Context, scope string, userID uuid.UUID, requestKey string) {
	if requestKey == "" || k.store == nil {
		return
	}
	key := k.key(scope, userID, requestKey)
	if err := k.store.Delete(ctx, key); err != nil {
		k.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(err))
	}
}
