// Package notify is the boundary to the outbound notification collaborator.
// Delivery is fire-and-forget: failures are logged and swallowed.
package notify

import (
	"context"

	"github.com/mathrush/engine/internal/logger"
	"github.com/mathrush/engine/internal/worker"
)

// Announcer delivers a message to one user.
type Announcer interface {
	Announce(ctx context.Context, userID int64, message string) error
}

// LogAnnouncer writes announcements to the log. Stands in for the real
// notification collaborator in development and tests.
type LogAnnouncer struct{}

func (LogAnnouncer) Announce(ctx context.Context, userID int64, message string) error {
	logger.FromContext(ctx).WithPrefix("notify").Info("announce: user_id=%d, message=%s", userID, message)
	return nil
}

// AnnounceJob carries one announcement through the worker pool.
type AnnounceJob struct {
	Announcer Announcer
	UserID    int64
	Message   string
}

func (j *AnnounceJob) Name() string { return "announce" }

func (j *AnnounceJob) Run(ctx context.Context) error {
	return j.Announcer.Announce(ctx, j.UserID, j.Message)
}

// Dispatcher fans announcements out through the pool without blocking the
// caller. A nil Dispatcher or a full queue silently drops.
type Dispatcher struct {
	pool      *worker.Pool
	announcer Announcer
}

func NewDispatcher(pool *worker.Pool, announcer Announcer) *Dispatcher {
	return &Dispatcher{pool: pool, announcer: announcer}
}

// Dispatch enqueues an announcement. Best-effort only.
func (d *Dispatcher) Dispatch(userID int64, message string) {
	if d == nil || d.pool == nil {
		return
	}
	d.pool.TrySubmit(&AnnounceJob{Announcer: d.announcer, UserID: userID, Message: message})
}
