package certificates

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	domain "github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
	"github.com/yungbote/neurobridge-certificates/internal/platform/redislock"
)

// ErrLockBusy is returned by a Locker when another holder kept the lock for
// the whole wait budget.
var ErrLockBusy = errors.New("certificate lock busy")

// keyedCoalescer runs at most one issuance per enrollment in this process and,
// when a Locker is set, across replicas.
type keyedCoalescer struct {
	log    *logger.Logger
	group  singleflight.Group
	locker Locker
}

// Do joins an in-flight call with the same callKey or starts one. callKey must
// cover every input that changes the result; the lock is per enrollment. The
// shared call outlives a cancelled waiter but keeps the starter's deadline.
func (c *keyedCoalescer) Do(ctx context.Context, enrollmentID uuid.UUID, callKey string, fn func(context.Context) (IssueResult, error)) (IssueResult, error) {
	ch := c.group.DoChan(callKey, func() (any, error) {
		runCtx, cancel := detach(ctx)
		defer cancel()
		return c.locked(runCtx, enrollmentID.String(), fn)
	})
	select {
	case <-ctx.Done():
		return IssueResult{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return IssueResult{}, res.Err
		}
		return res.Val.(IssueResult), nil
	}
}

func (c *keyedCoalescer) locked(ctx context.Context, key string, fn func(context.Context) (IssueResult, error)) (IssueResult, error) {
	if c.locker == nil {
		return fn(ctx)
	}
	lease, err := c.locker.Acquire(ctx, "certificate:issue:"+key)
	switch {
	case errors.Is(err, ErrLockBusy):
		return IssueResult{}, domain.IssuanceInProgress(key)
	case err != nil:
		// the unique index and the commit CAS still hold without the lock
		c.log.Warn("Issuance lock unavailable, continuing unlocked", "enrollment_id", key, "error", err)
		return fn(ctx)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			c.log.Warn("Issuance lock release failed", "enrollment_id", key, "error", err)
		}
	}()
	return fn(ctx)
}

func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(base, deadline)
	}
	return context.WithCancel(base)
}

type redisLocker struct {
	locker *redislock.Locker
}

// NewRedisLocker adapts a redislock.Locker. A nil locker yields nil.
func NewRedisLocker(l *redislock.Locker) Locker {
	if l == nil {
		return nil
	}
	return redisLocker{locker: l}
}

func (r redisLocker) Acquire(ctx context.Context, name string) (Unlocker, error) {
	lease, err := r.locker.Acquire(ctx, name)
	if errors.Is(err, redislock.ErrNotAcquired) {
		return nil, ErrLockBusy
	}
	if err != nil {
		return nil, err
	}
	return lease, nil
}
