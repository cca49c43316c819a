/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package handle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/storagemodels"
)

// Creator ensures a resource exists, absorbing the window in which a resource
// of the same name is still being deleted by the backend.
type Creator struct {
	policy   storagemodels.RetryPolicy
	logger   *slog.Logger
	observer storagemodels.Observer
}

// NewCreator returns a Creator configured from opts.
func NewCreator(opts storagemodels.Options) *Creator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := opts.Observer
	if observer == nil {
		observer = storagemodels.NopObserver
	}
	return &Creator{
		policy:   opts.Retry.WithDefaults(),
		logger:   logger,
		observer: observer,
	}
}

// Create calls CreateIfNotExists on r. While the backend reports that the
// resource is being deleted it waits the policy interval and tries again;
// any other failure is returned at once as a ResourceUnavailableError.
func (c *Creator) Create(ctx context.Context, kind string, r datastore.Resource) error {
	if r == nil {
		return errors.NewInvalidArgumentError(kind, "the resource reference is nil")
	}

	start := time.Now()
	for attempt := 1; ; attempt++ {
		c.observer.CreateAttempt(kind)

		err := r.CreateIfNotExists(ctx)
		if err == nil {
			if attempt > 1 {
				c.logger.Info("resource created after being-deleted retries",
					"kind", kind, "name", r.Name(), "attempts", attempt)
			}
			return nil
		}

		if !errors.IsBeingDeleted(err) {
			return errors.NewResourceUnavailableError(kind, r.Name(), err)
		}

		if c.policy.Exhausted(attempt, start) {
			return &errors.ResourceUnavailableError{
				Kind:    kind,
				Name:    r.Name(),
				Message: fmt.Sprintf("still being deleted after %d attempts", attempt),
				Err:     err,
			}
		}

		c.observer.BeingDeletedRetry(kind)
		c.logger.Info("resource is being deleted, waiting to retry create",
			"kind", kind, "name", r.Name(), "attempt", attempt, "interval", c.policy.Interval)

		if err := sleep(ctx, c.policy.Interval); err != nil {
			return &errors.ResourceUnavailableError{
				Kind:    kind,
				Name:    r.Name(),
				Message: fmt.Sprintf("gave up waiting for deletion after %d attempts", attempt),
				Err:     err,
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
