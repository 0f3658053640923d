package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckAndSetRateLimit reserves one action slot for the user. Returns false
// when the user is still inside the previous window. A nil client disables
// rate limiting entirely.
func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, userID primitive.ObjectID, action string, window time.Duration) (bool, error) {
	if rdb == nil {
		return true, nil
	}

	key := fmt.Sprintf("rate_limit:user:%s:%s", userID.Hex(), action)

	wasSet, err := rdb.SetNX(ctx, key, "locked", window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}
