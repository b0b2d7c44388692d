package playback

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/windfall/recap_client/internal/errors"
)

// Lease hands out the engine ownership token. Acquire fails with ENGINE_BUSY
// while another holder's token is live. Releasing a token that is no longer
// current is a no-op.
type Lease interface {
	Acquire(ctx context.Context) (string, error)
	Release(ctx context.Context, token string) error
}

func errBusy() error {
	return errors.New(errors.ErrEngineBusy, "speech engine is in use by another page")
}

// MemoryLease is an in-process Lease.
type MemoryLease struct {
	mu      sync.Mutex
	ttl     time.Duration
	token   string
	expires time.Time
	now     func() time.Time
}

// NewMemoryLease creates a lease whose tokens lapse after ttl. A zero ttl never lapses.
func NewMemoryLease(ttl time.Duration) *MemoryLease {
	return &MemoryLease{ttl: ttl, now: time.Now}
}

// Acquire implements Lease.
func (l *MemoryLease) Acquire(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.token != "" && (l.ttl == 0 || now.Before(l.expires)) {
		return "", errBusy()
	}

	l.token = uuid.NewString()
	l.expires = now.Add(l.ttl)
	return l.token, nil
}

// Release implements Lease.
func (l *MemoryLease) Release(ctx context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if token != "" && token == l.token {
		l.token = ""
	}
	return nil
}
