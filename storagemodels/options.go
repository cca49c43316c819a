/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"log/slog"
	"time"
)

// RetryPolicy bounds the wait-and-retry loop used while a resource is being deleted.
type RetryPolicy struct {
	MaxAttempts int           // Total create attempts, 0 for no limit (default: 60)
	Interval    time.Duration // Fixed wait between attempts (default: 1s)
	MaxDuration time.Duration // Overall time limit, 0 for no limit (default: 0)
}

// DefaultRetryInterval is the wait between create attempts when a policy sets none
const DefaultRetryInterval = time.Second

// DefaultRetryPolicy returns the default bounded retry policy
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 60,
		Interval:    DefaultRetryInterval,
	}
}

// RetryForever returns a policy that retries every second with no bound.
func RetryForever() RetryPolicy {
	return RetryPolicy{Interval: DefaultRetryInterval}
}

// WithDefaults returns p with a non-positive Interval replaced by
// DefaultRetryInterval, so that retries always wait between attempts.
func (p RetryPolicy) WithDefaults() RetryPolicy {
	if p.Interval <= 0 {
		p.Interval = DefaultRetryInterval
	}
	return p
}

// Exhausted reports whether another attempt is allowed after attempts tries
// that started at start.
func (p RetryPolicy) Exhausted(attempts int, start time.Time) bool {
	if p.MaxAttempts > 0 && attempts >= p.MaxAttempts {
		return true
	}
	if p.MaxDuration > 0 && time.Since(start)+p.Interval > p.MaxDuration {
		return true
	}
	return false
}

// Observer receives handle cache and creator events
type Observer interface {
	CacheHit(kind string)
	CacheMiss(kind string)
	CreateAttempt(kind string)
	BeingDeletedRetry(kind string)
}

type nopObserver struct{}

func (nopObserver) CacheHit(string)          {}
func (nopObserver) CacheMiss(string)         {}
func (nopObserver) CreateAttempt(string)     {}
func (nopObserver) BeingDeletedRetry(string) {}

// NopObserver discards all events.
var NopObserver Observer = nopObserver{}

// Options configures a helper
type Options struct {
	Retry          RetryPolicy   // Creator retry policy (default: DefaultRetryPolicy)
	Logger         *slog.Logger  // Structured logger (default: slog.Default())
	Observer       Observer      // Cache/creator events (default: NopObserver)
	PublicAccess   PublicAccess  // Access level applied to new containers (default: container)
	ReceiveTimeout time.Duration // How long a topic receive waits for a message (default: 5s)
}

// Option is a functional option for configuring a helper
type Option func(*Options)

// DefaultOptions returns default helper options
func DefaultOptions() Options {
	return Options{
		Retry:          DefaultRetryPolicy(),
		Logger:         slog.Default(),
		Observer:       NopObserver,
		PublicAccess:   PublicAccessContainer,
		ReceiveTimeout: 5 * time.Second,
	}
}

// ApplyOptions returns DefaultOptions with opts applied in order.
func ApplyOptions(opts ...Option) Options {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	options.Retry = options.Retry.WithDefaults()
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Observer == nil {
		options.Observer = NopObserver
	}
	return options
}

// WithRetryPolicy sets the creator retry policy
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(opts *Options) {
		opts.Retry = policy
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithObserver sets the cache/creator event observer
func WithObserver(observer Observer) Option {
	return func(opts *Options) {
		opts.Observer = observer
	}
}

// WithPublicAccess sets the access level applied to newly resolved containers
func WithPublicAccess(access PublicAccess) Option {
	return func(opts *Options) {
		opts.PublicAccess = access
	}
}

// WithReceiveTimeout sets how long a topic receive waits for a message
func WithReceiveTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.ReceiveTimeout = timeout
	}
}
