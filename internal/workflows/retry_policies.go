package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// RetryPolicyType selects one of the activity retry policies
type RetryPolicyType int

const (
	// StandardRetry for database-bound activities (3 attempts, 1s-1m backoff)
	StandardRetry RetryPolicyType = iota
	// NoRetry for best-effort activities
	NoRetry
)

// Non-retryable application error types raised by activities
const (
	ErrorTypeValidation = "ValidationError"
)

// GetRetryPolicy returns the retry policy for policyType
func GetRetryPolicy(policyType RetryPolicyType) *temporal.RetryPolicy {
	switch policyType {
	case NoRetry:
		return &temporal.RetryPolicy{
			MaximumAttempts: 1,
		}
	default:
		return &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ErrorTypeValidation},
		}
	}
}

// WithActivityOptions applies a start-to-close timeout and retry policy to ctx
func WithActivityOptions(ctx workflow.Context, timeout time.Duration, policyType RetryPolicyType) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		RetryPolicy:         GetRetryPolicy(policyType),
	})
}
