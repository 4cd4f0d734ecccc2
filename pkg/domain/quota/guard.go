package quota

import "context"

// Guard enforces per-user usage limits around a voice bridge. Precheck runs
// before any upstream connection is opened; Settle runs once after teardown.
//
//go:generate mockery --name=Guard --dir=. --output=./mocks --filename=guard_mock.go --case=underscore --with-expecter
type Guard interface {
	Precheck(ctx context.Context, userID string, estimatedCost int64) (bool, error)
	Settle(ctx context.Context, userID string, cost int64, operation string) error
}
