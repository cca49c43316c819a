/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagekit

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/suparena/storagekit/account"
	"github.com/suparena/storagekit/blobs"
	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/metrics"
	"github.com/suparena/storagekit/queues"
	"github.com/suparena/storagekit/registry"
	"github.com/suparena/storagekit/storagemodels"
	"github.com/suparena/storagekit/tables"
	"github.com/suparena/storagekit/topics"
)

// Client bundles one helper per service. Helpers of services left out of the
// Config have no account and fail with a ResourceUnavailableError.
type Client struct {
	Tables *tables.Tables
	Queues *queues.Queues
	Blobs  *blobs.Blobs
	Topics *topics.Topics
}

// New resolves the account of every configured service, builds its driver
// through the registry and wraps it in a helper. opts are applied after the
// options derived from cfg.
func New(ctx context.Context, cfg Config, opts ...storagemodels.Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lookup, err := account.EnvLookup(cfg.EnvFiles...)
	if err != nil {
		return nil, err
	}

	all := cfg.options()
	if cfg.Metrics {
		collector, err := metrics.NewCollector(prometheus.DefaultRegisterer)
		if err != nil {
			return nil, err
		}
		all = append(all, storagemodels.WithObserver(collector))
	}
	all = append(all, opts...)
	logger := storagemodels.ApplyOptions(all...).Logger

	var (
		tableSvc datastore.TableService
		queueSvc datastore.QueueService
		blobSvc  datastore.BlobService
		topicSvc datastore.TopicService
	)

	if sc := cfg.Tables; sc != nil {
		tableSvc, err = build(ctx, sc, lookup, "table", account.DefaultTableKey, registry.TableDriver)
		if err != nil {
			return nil, err
		}
	}
	if sc := cfg.Queues; sc != nil {
		queueSvc, err = build(ctx, sc, lookup, "queue", account.DefaultQueueKey, registry.QueueDriver)
		if err != nil {
			return nil, err
		}
	}
	if sc := cfg.Blobs; sc != nil {
		blobSvc, err = build(ctx, sc, lookup, "blob", account.DefaultBlobKey, registry.BlobDriver)
		if err != nil {
			return nil, err
		}
	}
	if sc := cfg.Topics; sc != nil {
		topicSvc, err = build(ctx, sc, lookup, "topic", account.DefaultTopicKey, registry.TopicDriver)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("storagekit client ready",
		"tables", tableSvc != nil, "queues", queueSvc != nil, "blobs", blobSvc != nil, "topics", topicSvc != nil)

	return &Client{
		Tables: tables.New(tableSvc, all...),
		Queues: queues.New(queueSvc, all...),
		Blobs:  blobs.New(blobSvc, all...),
		Topics: topics.New(topicSvc, all...),
	}, nil
}

func build[S any](ctx context.Context, sc *ServiceConfig, lookup account.Lookup, kind, defaultKey string, driver func(string) (registry.Factory[S], error)) (S, error) {
	var zero S

	acct, err := sc.Source.Resolve(lookup, defaultKey)
	if err != nil {
		return zero, fmt.Errorf("%s account: %w", kind, err)
	}

	name := sc.Driver
	if name == "" {
		name = DefaultDriver(kind, acct.Provider)
	}
	if name == "" {
		return zero, fmt.Errorf("no default %s driver for provider %q", kind, acct.Provider)
	}

	factory, err := driver(name)
	if err != nil {
		return zero, err
	}
	svc, err := factory(ctx, acct)
	if err != nil {
		return zero, fmt.Errorf("%s driver %s: %w", kind, name, err)
	}
	return svc, nil
}

var defaultDrivers = map[string]map[string]string{
	account.ProviderAzure:  {"table": "azuretable", "queue": "azurequeue", "blob": "azureblob"},
	account.ProviderAWS:    {"table": "ddb", "queue": "sqsqueue", "blob": "s3blob"},
	account.ProviderGCP:    {"topic": "gcppubsub"},
	account.ProviderRedis:  {"queue": "redisqueue"},
	account.ProviderMemory: {"table": "memory", "queue": "memory", "blob": "memory", "topic": "memory"},
}

// DefaultDriver returns the driver used for a service kind when the config
// names none, or "" when the provider has no driver for it.
func DefaultDriver(kind, provider string) string {
	return defaultDrivers[provider][kind]
}
