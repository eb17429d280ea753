package readiness

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// awaitCondition calls cond immediately and then every interval until it
// reports done, returns an error, or timeout elapses. Conditions swallow
// their transient errors; a returned error aborts the poll as is.
func awaitCondition(ctx context.Context, timeout, interval time.Duration, cond wait.ConditionWithContextFunc) error {
	err := wait.PollUntilContextTimeout(ctx, interval, timeout, true, cond)
	if err == nil || !wait.Interrupted(err) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w after %s", ErrPollTimeout, timeout)
}
