/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package metrics exports handle cache and creator events as Prometheus counters.
package metrics

import (
	stderrors "errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/suparena/storagekit/storagemodels"
)

const namespace = "storagekit"

// Collector implements storagemodels.Observer
type Collector struct {
	cacheLookups        *prometheus.CounterVec
	createAttempts      *prometheus.CounterVec
	beingDeletedRetries *prometheus.CounterVec
}

// NewCollector creates the counters and registers them on reg. A nil reg
// leaves them unregistered. Counters already registered on reg by an earlier
// Collector are shared with it.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handle_cache_lookups_total",
			Help:      "Handle cache lookups by resource kind and result (hit or miss)",
		}, []string{"kind", "result"}),
		createAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "create_attempts_total",
			Help:      "Remote create-if-not-exists calls by resource kind",
		}, []string{"kind"}),
		beingDeletedRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "being_deleted_retries_total",
			Help:      "Create retries caused by a resource still being deleted",
		}, []string{"kind"}),
	}

	if reg != nil {
		for _, vec := range []**prometheus.CounterVec{&c.cacheLookups, &c.createAttempts, &c.beingDeletedRetries} {
			if err := register(reg, vec); err != nil {
				return nil, fmt.Errorf("failed to register storagekit metrics: %w", err)
			}
		}
	}
	return c, nil
}

// register adds *vec to reg, or points *vec at the counter already there
func register(reg prometheus.Registerer, vec **prometheus.CounterVec) error {
	err := reg.Register(*vec)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !stderrors.As(err, &are) {
		return err
	}
	existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
	if !ok {
		return err
	}
	*vec = existing
	return nil
}

// CacheHit implements storagemodels.Observer
func (c *Collector) CacheHit(kind string) {
	c.cacheLookups.WithLabelValues(kind, "hit").Inc()
}

// CacheMiss implements storagemodels.Observer
func (c *Collector) CacheMiss(kind string) {
	c.cacheLookups.WithLabelValues(kind, "miss").Inc()
}

// CreateAttempt implements storagemodels.Observer
func (c *Collector) CreateAttempt(kind string) {
	c.createAttempts.WithLabelValues(kind).Inc()
}

// BeingDeletedRetry implements storagemodels.Observer
func (c *Collector) BeingDeletedRetry(kind string) {
	c.beingDeletedRetries.WithLabelValues(kind).Inc()
}

var _ storagemodels.Observer = (*Collector)(nil)
