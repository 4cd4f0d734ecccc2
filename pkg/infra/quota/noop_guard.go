package quota

import (
	"context"

	"github.com/studiumlabs/voicebridge/pkg/domain/quota"
)

// NoopGuard disables quota enforcement.
type NoopGuard struct{}

func NewNoopGuard() quota.Guard {
	return &NoopGuard{}
}

func (g *NoopGuard) Precheck(ctx context.Context, userID string, estimatedCost int64) (bool, error) {
	return true, nil
}

func (g *NoopGuard) Settle(ctx context.Context, userID string, cost int64, operation string) error {
	return nil
}
