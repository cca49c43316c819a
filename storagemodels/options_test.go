/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"testing"
	"time"
)

func TestRetryPolicyExhausted(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		policy   RetryPolicy
		attempts int
		start    time.Time
		want     bool
	}{
		{"below max attempts", RetryPolicy{MaxAttempts: 3, Interval: time.Millisecond}, 2, now, false},
		{"at max attempts", RetryPolicy{MaxAttempts: 3, Interval: time.Millisecond}, 3, now, true},
		{"unbounded", RetryForever(), 1000, now.Add(-time.Hour), false},
		{"duration left", RetryPolicy{Interval: time.Millisecond, MaxDuration: time.Minute}, 5, now, false},
		{"duration spent", RetryPolicy{Interval: time.Second, MaxDuration: time.Second}, 1, now.Add(-2 * time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Exhausted(tt.attempts, tt.start); got != tt.want {
				t.Errorf("Exhausted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyOptions(t *testing.T) {
	opts := ApplyOptions()
	if opts.Retry != DefaultRetryPolicy() {
		t.Errorf("expected default retry policy, got %+v", opts.Retry)
	}
	if opts.PublicAccess != PublicAccessContainer {
		t.Errorf("expected container access by default, got %q", opts.PublicAccess)
	}
	if opts.Logger == nil || opts.Observer == nil {
		t.Fatal("expected logger and observer defaults")
	}

	opts = ApplyOptions(
		WithRetryPolicy(RetryForever()),
		WithPublicAccess(PublicAccessNone),
		WithReceiveTimeout(time.Second),
		WithLogger(nil),
		WithObserver(nil),
	)
	if opts.Retry.MaxAttempts != 0 || opts.Retry.Interval != time.Second {
		t.Errorf("expected unbounded 1s policy, got %+v", opts.Retry)
	}
	if opts.PublicAccess != PublicAccessNone {
		t.Errorf("expected none access, got %q", opts.PublicAccess)
	}
	if opts.ReceiveTimeout != time.Second {
		t.Errorf("expected 1s receive timeout, got %v", opts.ReceiveTimeout)
	}
	if opts.Logger == nil || opts.Observer == nil {
		t.Fatal("nil logger/observer should fall back to defaults")
	}

	opts = ApplyOptions(WithRetryPolicy(RetryPolicy{MaxAttempts: 3}))
	if opts.Retry.Interval != DefaultRetryInterval || opts.Retry.MaxAttempts != 3 {
		t.Errorf("expected a 1s interval to fill the zero value, got %+v", opts.Retry)
	}
}

func TestTableEntityKeys(t *testing.T) {
	type order struct {
		TableEntity
		Amount int
	}
	var e Entity = order{TableEntity: NewTableEntity("P1", "R1"), Amount: 10}
	pk, rk := e.Keys()
	if pk != "P1" || rk != "R1" {
		t.Errorf("Keys() = (%q, %q), want (P1, R1)", pk, rk)
	}
	if !PublicAccessBlob.Valid() || PublicAccess("public").Valid() {
		t.Error("PublicAccess.Valid mismatch")
	}
}
