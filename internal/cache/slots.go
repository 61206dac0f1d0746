package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const slotTTL = 60 * time.Second

// SlotCache caches public availability responses per staff/service/day.
// It is strictly an accelerator for the picker: admission never reads it,
// and a stale hit at worst offers a slot that confirm will reject.
// A nil *SlotCache no-ops everywhere, so the core runs without Redis.
type SlotCache struct {
	rdb *redis.Client
}

func New(redisURL string) *SlotCache {
	if redisURL == "" {
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Println("slot cache disabled, bad REDIS_URL:", err)
		return nil
	}

	return &SlotCache{rdb: redis.NewClient(opts)}
}

func key(staffID, serviceID uint, date string, granularityMin int) string {
	return fmt.Sprintf("slots:%d:%d:%s:%d", staffID, serviceID, date, granularityMin)
}

func (c *SlotCache) Get(
	ctx context.Context,
	staffID, serviceID uint,
	date string,
	granularityMin int,
) ([]time.Time, bool) {

	if c == nil {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, key(staffID, serviceID, date, granularityMin)).Bytes()
	if err != nil {
		return nil, false
	}

	var out []time.Time
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *SlotCache) Set(
	ctx context.Context,
	staffID, serviceID uint,
	date string,
	granularityMin int,
	slots []time.Time,
) {

	if c == nil {
		return
	}

	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}

	if err := c.rdb.Set(ctx, key(staffID, serviceID, date, granularityMin), raw, slotTTL).Err(); err != nil {
		log.Println("slot cache set error:", err)
	}
}

// Invalidate drops every cached slot list for a staff member on one date.
// Called after any write that touches that staff's calendar.
func (c *SlotCache) Invalidate(ctx context.Context, staffID uint, date string) {
	if c == nil {
		return
	}
	c.deleteByPattern(ctx, fmt.Sprintf("slots:%d:*:%s:*", staffID, date))
}

// InvalidateAll drops every cached slot list for a staff member across all
// dates. Weekly template changes touch every future day at once.
func (c *SlotCache) InvalidateAll(ctx context.Context, staffID uint) {
	if c == nil {
		return
	}
	c.deleteByPattern(ctx, fmt.Sprintf("slots:%d:*", staffID))
}

func (c *SlotCache) deleteByPattern(ctx context.Context, pattern string) {
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			log.Println("slot cache invalidate error:", err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Println("slot cache scan error:", err)
	}
}
