package ports

import "context"

// HealthChecker verifies connectivity of one backing dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Name() string
}
