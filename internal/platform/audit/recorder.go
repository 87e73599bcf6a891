package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lenderhub/internal/platform/models"
)

const defaultWriteTimeout = 5 * time.Second

// Store persists audit entries.
type Store interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

// Entry describes one mutating action.
type Entry struct {
	OrgID        string
	UserID       string
	Action       models.AuditAction
	ResourceType models.ResourceType
	ResourceID   string
	Details      map[string]any
}

// Recorder appends audit entries on a best-effort basis. Record never
// returns an error: a failed write is logged and dropped.
type Recorder struct {
	store   Store
	logger  zerolog.Logger
	timeout time.Duration
	now     func() time.Time
}

type Option func(*Recorder)

func WithLogger(l zerolog.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

func WithTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:   store,
		logger:  log.Logger,
		timeout: defaultWriteTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record writes e. It runs detached from ctx cancellation so a caller that
// has already gone away still leaves a trail, bounded by the write timeout.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			r.warn(e, fmt.Errorf("panic: %v", p))
		}
	}()

	details := []byte("{}")
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			r.warn(e, fmt.Errorf("encode details: %w", err))
		} else {
			details = b
		}
	}

	entry := &models.AuditLog{
		OrgID:        e.OrgID,
		UserID:       e.UserID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Details:      details,
		CreatedAt:    r.now().UTC(),
	}

	if err := r.store.Append(ctx, entry); err != nil {
		r.warn(e, err)
	}
}

func (r *Recorder) warn(e Entry, err error) {
	r.logger.Warn().
		Err(err).
		Str("org_id", e.OrgID).
		Str("user_id", e.UserID).
		Str("action", string(e.Action)).
		Str("resource_type", string(e.ResourceType)).
		Str("resource_id", e.ResourceID).
		Msg("audit write failed")
}
