package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/fjod/go_bookstore/inventory-service/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	stockKeyPrefix       = "inventory:stock:"
	reservationKeyPrefix = "inventory:reservation:"
	expiringKey          = "inventory:reservations:expiring"

	// settled reservations are kept this long for inspection
	reservationRetention = 24 * time.Hour
)

// script results
const (
	resultOK          = 1
	resultShort       = 0
	resultMissing     = -1
	resultWrongStatus = -2
	resultExpired     = -3
)

// KEYS: stock keys..., reservation key, expiring zset
// ARGV: id, checkout id, created ms, expires ms, then sku/qty pairs
var reserveScript = redis.NewScript(`
local n = #KEYS - 2
local resKey = KEYS[n + 1]
local zkey = KEYS[n + 2]

for i = 1, n do
	if redis.call('EXISTS', KEYS[i]) == 0 then
		return -1
	end
	local total = tonumber(redis.call('HGET', KEYS[i], 'total') or '0')
	local reserved = tonumber(redis.call('HGET', KEYS[i], 'reserved') or '0')
	if total - reserved < tonumber(ARGV[4 + 2 * i]) then
		return 0
	end
end

for i = 1, n do
	redis.call('HINCRBY', KEYS[i], 'reserved', ARGV[4 + 2 * i])
	redis.call('HSET', resKey, 'item:' .. ARGV[3 + 2 * i], ARGV[4 + 2 * i])
end
redis.call('HSET', resKey, 'status', 'reserved', 'checkout_id', ARGV[2], 'created_at', ARGV[3], 'expires_at', ARGV[4])
redis.call('ZADD', zkey, ARGV[4], ARGV[1])
return 1
`)

// KEYS: reservation key, expiring zset
// ARGV: id, final status (released|expired), now ms, stock key prefix, retention ms
var releaseScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
if redis.call('HGET', KEYS[1], 'status') ~= 'reserved' then
	return -2
end
if ARGV[2] == 'expired' and tonumber(redis.call('HGET', KEYS[1], 'expires_at')) > tonumber(ARGV[3]) then
	return -3
end

local fields = redis.call('HGETALL', KEYS[1])
for i = 1, #fields, 2 do
	local f = fields[i]
	if string.sub(f, 1, 5) == 'item:' then
		redis.call('HINCRBY', ARGV[4] .. string.sub(f, 6), 'reserved', -tonumber(fields[i + 1]))
	end
end
redis.call('HSET', KEYS[1], 'status', ARGV[2])
redis.call('ZREM', KEYS[2], ARGV[1])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// KEYS: reservation key, expiring zset
// ARGV: id, now ms, stock key prefix, retention ms
var confirmScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
if redis.call('HGET', KEYS[1], 'status') ~= 'reserved' then
	return -2
end
if tonumber(redis.call('HGET', KEYS[1], 'expires_at')) < tonumber(ARGV[2]) then
	return -3
end

local fields = redis.call('HGETALL', KEYS[1])
for i = 1, #fields, 2 do
	local f = fields[i]
	if string.sub(f, 1, 5) == 'item:' then
		local key = ARGV[3] .. string.sub(f, 6)
		local qty = tonumber(fields[i + 1])
		redis.call('HINCRBY', key, 'total', -qty)
		redis.call('HINCRBY', key, 'reserved', -qty)
	end
end
redis.call('HSET', KEYS[1], 'status', 'confirmed')
redis.call('ZREM', KEYS[2], ARGV[1])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 1
`)

// RedisStore keeps the ledger in Redis hashes. Every reservation state
// change is a single Lua script, so holds are atomic across SKUs and across
// inventory-service replicas.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
	ttl    time.Duration

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return newRedisStore(client, time.Now, ReservationTTL, CleanupInterval)
}

func newRedisStore(client *redis.Client, now func() time.Time, ttl, sweep time.Duration) *RedisStore {
	s := &RedisStore{
		client:      client,
		now:         now,
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop(sweep)
	return s
}

func stockKey(sku string) string {
	return stockKeyPrefix + sku
}

func reservationKey(id string) string {
	return reservationKeyPrefix + id
}

func (s *RedisStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			_, _ = s.expireReservations(ctx)
			cancel()
		case <-s.stopCleanup:
			return
		}
	}
}

// expireReservations releases every reservation whose deadline has passed and
// reports how many it expired.
func (s *RedisStore) expireReservations(ctx context.Context) (int, error) {
	nowMs := s.now().UnixMilli()
	ids, err := s.client.ZRangeByScore(ctx, expiringKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(nowMs, 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("list expiring reservations: %w", err)
	}

	expired := 0
	for _, id := range ids {
		res, err := releaseScript.Run(ctx, s.client,
			[]string{reservationKey(id), expiringKey},
			id, string(domain.StatusExpired), nowMs, stockKeyPrefix, reservationRetention.Milliseconds(),
		).Int()
		if err != nil {
			return expired, fmt.Errorf("expire reservation %s: %w", id, err)
		}
		if res == resultOK {
			expired++
		}
	}
	return expired, nil
}

func (s *RedisStore) GetStock(ctx context.Context, skus []string) ([]domain.StockRecord, error) {
	if len(skus) == 0 {
		return []domain.StockRecord{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(skus))
	for i, sku := range skus {
		cmds[i] = pipe.HGetAll(ctx, stockKey(sku))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis get stock: %w", err)
	}

	result := make([]domain.StockRecord, 0, len(skus))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		total, _ := strconv.ParseInt(fields["total"], 10, 32)
		reserved, _ := strconv.ParseInt(fields["reserved"], 10, 32)
		result = append(result, domain.StockRecord{
			SKU:      skus[i],
			Total:    int32(total),
			Reserved: int32(reserved),
		})
	}
	return result, nil
}

func (s *RedisStore) Reserve(ctx context.Context, checkoutID string, items []domain.ReservationItem) (*domain.Reservation, error) {
	merged := mergeItems(items)

	now := s.now()
	reservation := &domain.Reservation{
		ID:         uuid.NewString(),
		CheckoutID: checkoutID,
		Items:      append([]domain.ReservationItem(nil), items...),
		Status:     domain.StatusReserved,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	keys := make([]string, 0, len(merged)+2)
	args := make([]any, 0, 4+2*len(merged))
	args = append(args, reservation.ID, checkoutID, now.UnixMilli(), reservation.ExpiresAt.UnixMilli())
	for _, item := range merged {
		keys = append(keys, stockKey(item.SKU))
		args = append(args, item.SKU, item.Quantity)
	}
	keys = append(keys, reservationKey(reservation.ID), expiringKey)

	res, err := reserveScript.Run(ctx, s.client, keys, args...).Int()
	if err != nil {
		return nil, fmt.Errorf("redis reserve: %w", err)
	}
	switch res {
	case resultOK:
		return reservation, nil
	case resultShort:
		return nil, ErrInsufficientStock
	default:
		return nil, ErrSKUNotFound
	}
}

func (s *RedisStore) Confirm(ctx context.Context, reservationID string) error {
	res, err := confirmScript.Run(ctx, s.client,
		[]string{reservationKey(reservationID), expiringKey},
		reservationID, s.now().UnixMilli(), stockKeyPrefix, reservationRetention.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("redis confirm: %w", err)
	}
	return scriptError(res)
}

func (s *RedisStore) Release(ctx context.Context, reservationID string) error {
	res, err := releaseScript.Run(ctx, s.client,
		[]string{reservationKey(reservationID), expiringKey},
		reservationID, string(domain.StatusReleased), s.now().UnixMilli(), stockKeyPrefix, reservationRetention.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("redis release: %w", err)
	}
	return scriptError(res)
}

func (s *RedisStore) SetStock(ctx context.Context, sku string, quantity int32) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	key := stockKey(sku)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, "total", quantity)
	pipe.HSetNX(ctx, key, "reserved", 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set stock: %w", err)
	}
	return nil
}

// Close stops the sweeper. The Redis client is owned by the caller.
func (s *RedisStore) Close() error {
	close(s.stopCleanup)
	s.wg.Wait()
	return nil
}

func scriptError(res int) error {
	switch res {
	case resultOK:
		return nil
	case resultMissing:
		return ErrReservationNotFound
	case resultWrongStatus:
		return ErrInvalidStatus
	case resultExpired:
		return ErrReservationExpired
	default:
		return fmt.Errorf("unexpected script result %d", res)
	}
}

// mergeItems sums quantities per SKU, keeping first-seen order.
func mergeItems(items []domain.ReservationItem) []domain.ReservationItem {
	idx := make(map[string]int, len(items))
	merged := make([]domain.ReservationItem, 0, len(items))
	for _, item := range items {
		if i, ok := idx[item.SKU]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		idx[item.SKU] = len(merged)
		merged = append(merged, item)
	}
	return merged
}
