package service

import (
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/24f2006233/vyappar-smart/internal/port"
)

var tracer = otel.Tracer("github.com/24f2006233/vyappar-smart/internal/core/service")

type options struct {
	now       func() time.Time
	newID     func() string
	location  *time.Location
	publisher port.EventPublisher
}

type Option func(*options)

// WithClock replaces time.Now for timestamps and analytics windows.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the UUIDv7 id generator.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithLocation sets the time zone used for calendar day and month boundaries.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

// WithPublisher sets where invoice events go. Without it events are dropped.
func WithPublisher(p port.EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

func buildOptions(opts []Option) options {
	o := options{
		now:      time.Now,
		newID:    newID,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
