package quota

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/studiumlabs/voicebridge/pkg/domain/quota"
)

const creditsKeyPattern = "quota:credits:%s"

// RedisGuard keeps a per-user credit ledger in redis. A user without a ledger
// entry starts from the configured default grant.
type RedisGuard struct {
	redisClient  *redis.Client
	logger       *logrus.Logger
	defaultGrant int64
}

func NewRedisGuard(redisClient *redis.Client, logger *logrus.Logger, defaultGrant int64) quota.Guard {
	return &RedisGuard{
		redisClient:  redisClient,
		logger:       logger,
		defaultGrant: defaultGrant,
	}
}

func (g *RedisGuard) Precheck(ctx context.Context, userID string, estimatedCost int64) (bool, error) {
	balance, err := g.balance(ctx, userID)
	if err != nil {
		g.logger.WithError(err).Error("quota precheck failed to read balance")
		return false, err
	}
	return balance >= estimatedCost, nil
}

func (g *RedisGuard) Settle(ctx context.Context, userID string, cost int64, operation string) error {
	key := fmt.Sprintf(creditsKeyPattern, userID)

	// Seed the ledger first so the decrement consumes the default grant
	// instead of starting from zero.
	if err := g.redisClient.SetNX(ctx, key, g.defaultGrant, 0).Err(); err != nil {
		return fmt.Errorf("failed to seed quota ledger: %w", err)
	}

	remaining, err := g.redisClient.DecrBy(ctx, key, cost).Result()
	if err != nil {
		return fmt.Errorf("failed to settle quota: %w", err)
	}
	if remaining < 0 {
		if err := g.redisClient.Set(ctx, key, 0, 0).Err(); err != nil {
			return fmt.Errorf("failed to floor quota balance: %w", err)
		}
		remaining = 0
	}

	g.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"cost":      cost,
		"operation": operation,
		"remaining": remaining,
	}).Debug("quota settled")

	return nil
}

func (g *RedisGuard) balance(ctx context.Context, userID string) (int64, error) {
	key := fmt.Sprintf(creditsKeyPattern, userID)
	val, err := g.redisClient.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return g.defaultGrant, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quota balance: %w", err)
	}
	balance, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt quota balance for user %s: %w", userID, err)
	}
	return balance, nil
}
