package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spintom/inserf/internal/apperr"
)

// ErrCheckoutInFlight is returned when a request reuses the key of a checkout
// that has not finished yet.
var ErrCheckoutInFlight = apperr.New(apperr.Conflict, "El pedido ya se está procesando")

// DefaultIdempotencyTTL is how long a checkout key is remembered.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyGuard remembers which checkout produced which order.
type IdempotencyGuard interface {
	// Begin reserves key. It returns the order id of an earlier completed
	// checkout with the same key, or zero when the caller should proceed.
	Begin(ctx context.Context, key string) (int, error)
	Complete(ctx context.Context, key string, orderID int) error
	// Release forgets a reserved key so the checkout can be retried.
	Release(ctx context.Context, key string) error
}

const pendingMarker = "pending"

type RedisGuard struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisGuard(rdb redis.Cmdable, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &RedisGuard{rdb: rdb, ttl: ttl}
}

func redisKey(key string) string {
	return "idempotent-key:checkout:" + key
}

func (g *RedisGuard) Begin(ctx context.Context, key string) (int, error) {
	ok, err := g.rdb.SetNX(ctx, redisKey(key), pendingMarker, g.ttl).Result()
	if err != nil {
		return 0, err
	}
	if ok {
		return 0, nil
	}

	val, err := g.rdb.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls
		return 0, ErrCheckoutInFlight
	}
	if err != nil {
		return 0, err
	}
	return parseStoredOrder(val)
}

func (g *RedisGuard) Complete(ctx context.Context, key string, orderID int) error {
	return g.rdb.Set(ctx, redisKey(key), strconv.Itoa(orderID), g.ttl).Err()
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	return g.rdb.Del(ctx, redisKey(key)).Err()
}

func parseStoredOrder(val string) (int, error) {
	if val == pendingMarker {
		return 0, ErrCheckoutInFlight
	}
	id, err := strconv.Atoi(val)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("idempotency key holds %q", val)
	}
	return id, nil
}

// MemoryGuard is the single-process IdempotencyGuard used without Redis.
type MemoryGuard struct {
	mu   sync.Mutex
	keys map[string]memoryEntry
	ttl  time.Duration
	now  func() time.Time
}

type memoryEntry struct {
	value   string
	expires time.Time
}

func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &MemoryGuard{keys: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (g *MemoryGuard) Begin(ctx context.Context, key string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if e, ok := g.keys[key]; ok && now.Before(e.expires) {
		return parseStoredOrder(e.value)
	}
	g.keys[key] = memoryEntry{value: pendingMarker, expires: now.Add(g.ttl)}
	return 0, nil
}

func (g *MemoryGuard) Complete(ctx context.Context, key string, orderID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keys[key] = memoryEntry{value: strconv.Itoa(orderID), expires: g.now().Add(g.ttl)}
	return nil
}

func (g *MemoryGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
	return nil
}

// CheckoutIdempotent runs Checkout at most once per (client, key). A repeated
// key returns the order of the first call and replayed is true. An empty key
// always checks out.
func (s *Service) CheckoutIdempotent(ctx context.Context, clientID int, key string, in CheckoutInput) (po PurchaseOrder, replayed bool, err error) {
	guard := s.guard
	if key == "" || guard == nil {
		po, err = s.Checkout(ctx, clientID, in)
		return po, false, err
	}

	scoped := strconv.Itoa(clientID) + ":" + key
	orderID, err := guard.Begin(ctx, scoped)
	if err != nil {
		return PurchaseOrder{}, false, err
	}
	if orderID > 0 {
		po, err = s.Get(ctx, clientID, orderID)
		return po, true, err
	}

	po, err = s.Checkout(ctx, clientID, in)
	if err != nil {
		if rerr := guard.Release(context.WithoutCancel(ctx), scoped); rerr != nil {
			s.log.Error().Err(rerr).Str("key", key).Msg("release idempotency key")
		}
		return PurchaseOrder{}, false, err
	}
	if cerr := guard.Complete(context.WithoutCancel(ctx), scoped, po.ID); cerr != nil {
		s.log.Error().Err(cerr).Str("key", key).Int("order_id", po.ID).Msg("store idempotency key")
	}
	return po, false, nil
}
