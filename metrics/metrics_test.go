/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metrics_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/storagekit/datastore/mock"
	"github.com/suparena/storagekit/datastore/testmodels"
	"github.com/suparena/storagekit/metrics"
	"github.com/suparena/storagekit/queues"
	"github.com/suparena/storagekit/storagemodels"
)

func TestCollectorCountsQueueActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	svc := mock.NewQueueService()
	svc.BeingDeleted("emails", 2)
	helper := queues.New(svc,
		storagemodels.WithObserver(collector),
		storagemodels.WithRetryPolicy(storagemodels.RetryPolicy{MaxAttempts: 5, Interval: time.Millisecond}),
	)

	ctx := context.Background()
	require.NoError(t, queues.Enqueue(ctx, helper, "emails", &testmodels.Email{To: "a@example.com"}))
	require.NoError(t, queues.Enqueue(ctx, helper, "emails", &testmodels.Email{To: "b@example.com"}))

	count, err := testutil.GatherAndCount(reg,
		"storagekit_handle_cache_lookups_total",
		"storagekit_create_attempts_total",
		"storagekit_being_deleted_retries_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	expected := `
# HELP storagekit_being_deleted_retries_total Create retries caused by a resource still being deleted
# TYPE storagekit_being_deleted_retries_total counter
storagekit_being_deleted_retries_total{kind="queue"} 2
# HELP storagekit_create_attempts_total Remote create-if-not-exists calls by resource kind
# TYPE storagekit_create_attempts_total counter
storagekit_create_attempts_total{kind="queue"} 3
# HELP storagekit_handle_cache_lookups_total Handle cache lookups by resource kind and result (hit or miss)
# TYPE storagekit_handle_cache_lookups_total counter
storagekit_handle_cache_lookups_total{kind="queue",result="hit"} 1
storagekit_handle_cache_lookups_total{kind="queue",result="miss"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected)))
}

func TestDuplicateRegistrationSharesCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	second, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	first.CreateAttempt("table")
	second.CreateAttempt("table")

	expected := `
# HELP storagekit_create_attempts_total Remote create-if-not-exists calls by resource kind
# TYPE storagekit_create_attempts_total counter
storagekit_create_attempts_total{kind="table"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "storagekit_create_attempts_total"))
}

func TestConflictingRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "storagekit",
		Name:      "create_attempts_total",
		Help:      "Remote create-if-not-exists calls by resource kind",
	}))

	_, err := metrics.NewCollector(reg)
	assert.Error(t, err)
}

func TestUnregisteredCollector(t *testing.T) {
	collector, err := metrics.NewCollector(nil)
	require.NoError(t, err)
	collector.CacheHit("table")
}
