// Package session holds the authenticated caller for an operation.
//
// A Gate is resolved once, possibly after the operation that needs it has
// already started, and every mutating call waits on it before touching the
// store.
package session

import (
	"context"
	"sync"
	"time"

	apperrors "lenderhub/internal/pkg/errors"
)

const DefaultHydrationTimeout = 5 * time.Second

// Session is the resolved identity of the caller.
type Session struct {
	UserID    string
	OrgID     string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// Valid reports whether s carries an identity and has not expired at now.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.UserID == "" || s.OrgID == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Gate resolves to at most one session.
type Gate struct {
	timeout time.Duration
	once    sync.Once
	ready   chan struct{}
	session *Session
	now     func() time.Time
}

func NewGate(timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = DefaultHydrationTimeout
	}
	return &Gate{
		timeout: timeout,
		ready:   make(chan struct{}),
		now:     time.Now,
	}
}

// Resolved returns a gate that is already complete.
func Resolved(s *Session) *Gate {
	g := NewGate(0)
	g.Resolve(s)
	return g
}

// Resolve completes the gate. Later calls are ignored. Resolving with nil
// marks the caller as anonymous.
func (g *Gate) Resolve(s *Session) {
	g.once.Do(func() {
		g.session = s
		close(g.ready)
	})
}

// Ready is closed once the gate has been resolved.
func (g *Gate) Ready() <-chan struct{} {
	return g.ready
}

// Require blocks until the gate resolves, ctx is done or the hydration timeout
// elapses, and returns the session when it is usable.
func (g *Gate) Require(ctx context.Context) (*Session, error) {
	select {
	case <-g.ready:
	default:
		timer := time.NewTimer(g.timeout)
		defer timer.Stop()

		select {
		case <-g.ready:
		case <-ctx.Done():
			return nil, apperrors.Unauthorized("session not available: " + ctx.Err().Error())
		case <-timer.C:
			return nil, apperrors.Unauthorized("session hydration timed out")
		}
	}

	if g.session == nil {
		return nil, apperrors.Unauthorized("no active session")
	}
	if !g.session.Valid(g.now()) {
		return nil, apperrors.Unauthorized("session expired")
	}
	return g.session, nil
}

// Hydrate returns a gate resolved in the background by loader. A loader error
// resolves the gate anonymously.
func Hydrate(timeout time.Duration, loader func(ctx context.Context) (*Session, error)) *Gate {
	g := NewGate(timeout)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
		defer cancel()

		s, err := loader(ctx)
		if err != nil {
			s = nil
		}
		g.Resolve(s)
	}()
	return g
}

type gateKey struct{}

func WithGate(ctx context.Context, g *Gate) context.Context {
	return context.WithValue(ctx, gateKey{}, g)
}

func FromContext(ctx context.Context) (*Gate, bool) {
	g, ok := ctx.Value(gateKey{}).(*Gate)
	return g, ok && g != nil
}

// Require resolves the session carried by ctx. A context without a gate is
// unauthenticated.
func Require(ctx context.Context) (*Session, error) {
	g, ok := FromContext(ctx)
	if !ok {
		return nil, apperrors.Unauthorized("no session")
	}
	return g.Require(ctx)
}

// RequireOrg is Require plus a check that the caller acts on its own org.
func RequireOrg(ctx context.Context, orgID string) (*Session, error) {
	s, err := Require(ctx)
	if err != nil {
		return nil, err
	}
	if orgID != s.OrgID {
		return nil, apperrors.Unauthorized("organization does not match session")
	}
	return s, nil
}
