package transport

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers dispatched update ids. MarkNew reports false when the id
// was already seen.
type Deduper interface {
	MarkNew(ctx context.Context, updateID int) (bool, error)
}

// MemoryDeduper keeps the last size ids in a ring.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[int]struct{}
	ring []int
	next int
}

func NewMemoryDeduper(size int) *MemoryDeduper {
	if size < 1 {
		size = 1
	}

	return &MemoryDeduper{
		seen: make(map[int]struct{}, size),
		ring: make([]int, 0, size),
	}
}

func (d *MemoryDeduper) MarkNew(_ context.Context, updateID int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[updateID]; ok {
		return false, nil
	}

	if len(d.ring) < cap(d.ring) {
		d.ring = append(d.ring, updateID)
	} else {
		delete(d.seen, d.ring[d.next])
		d.ring[d.next] = updateID
		d.next = (d.next + 1) % len(d.ring)
	}
	d.seen[updateID] = struct{}{}

	return true, nil
}

// RedisDeduper shares seen ids between processes through SETNX keys.
type RedisDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, prefix string, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (d *RedisDeduper) MarkNew(ctx context.Context, updateID int) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+strconv.Itoa(updateID), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("RedisDeduper.MarkNew: %w", err)
	}

	return ok, nil
}
