package quota

import (
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/studiumlabs/voicebridge/pkg/config"
	"github.com/studiumlabs/voicebridge/pkg/domain/quota"
	"github.com/studiumlabs/voicebridge/pkg/infra/httpx"
)

const (
	ProviderHTTP  = "http"
	ProviderRedis = "redis"
)

// NewGuard selects the quota adapter named by configuration. An empty
// provider disables enforcement.
func NewGuard(
	cfg config.QuotaConfig,
	httpClient httpx.Client,
	redisClient *redis.Client,
	logger *logrus.Logger,
) (quota.Guard, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "noop":
		return NewNoopGuard(), nil
	case ProviderHTTP:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("quota http provider requires a base_url")
		}
		breaker := httpx.NewCircuitBreaker(
			"quota-service",
			cfg.Breaker.RecoveryTimeout,
			cfg.Breaker.FailureThreshold,
			cfg.Breaker.HalfOpenRequests,
		)
		return NewHTTPGuard(httpClient, logger, breaker, cfg.BaseURL, cfg.Token), nil
	case ProviderRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("quota redis provider requires a redis connection")
		}
		return NewRedisGuard(redisClient, logger, cfg.DefaultGrant), nil
	default:
		return nil, fmt.Errorf("unknown quota provider: %s", cfg.Provider)
	}
}
