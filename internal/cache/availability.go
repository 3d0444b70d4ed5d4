package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go-ticket-storefront/internal/inventory"
	apperrors "go-ticket-storefront/pkg/app_errors"

	"github.com/redis/go-redis/v9"
)

// availabilityTTL 快取過期時間。可售數量是建議值，過期就退回帳本重讀
const availabilityTTL = 5 * time.Minute

// RedisAvailabilityCache 票種可售數量的 Redis 快取，開賣時預熱、
// 每次庫存異動後盡力刷新。許多閒置瀏覽器輪詢時不會打到帳本。
type RedisAvailabilityCache struct {
	client *redis.Client
}

func NewRedisAvailabilityCache(client *redis.Client) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{
		client: client,
	}
}

// 可售數量 key
func (c *RedisAvailabilityCache) getKey(key inventory.Key) string {
	return fmt.Sprintf("availability:%d:%d", key.EventID, key.TicketTypeID)
}

func (c *RedisAvailabilityCache) GetAvailability(ctx context.Context, key inventory.Key) (inventory.Availability, error) {
	result, err := c.client.HGetAll(ctx, c.getKey(key)).Result()
	if err != nil {
		return inventory.Availability{}, err
	}

	// 檢查 key 是否存在
	if len(result) == 0 {
		return inventory.Availability{}, apperrors.ErrTicketTypeNotFound
	}

	available, err := strconv.Atoi(result["available"])
	if err != nil {
		return inventory.Availability{}, fmt.Errorf("invalid available: %v", err)
	}

	capacity, err := strconv.Atoi(result["capacity"])
	if err != nil {
		return inventory.Availability{}, fmt.Errorf("invalid capacity: %v", err)
	}

	return inventory.Availability{Available: available, Capacity: capacity}, nil
}

func (c *RedisAvailabilityCache) SetAvailability(ctx context.Context, key inventory.Key, av inventory.Availability) error {
	redisKey := c.getKey(key)

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, redisKey, map[string]interface{}{
		"available": av.Available,
		"capacity":  av.Capacity,
	})
	pipe.Expire(ctx, redisKey, availabilityTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// WarmUp 開賣預熱：把票種目前的可售數量寫進快取
func (c *RedisAvailabilityCache) WarmUp(ctx context.Context, key inventory.Key, capacity, sold int) error {
	return c.SetAvailability(ctx, key, inventory.Availability{
		Available: capacity - sold,
		Capacity:  capacity,
	})
}
