/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package queues

import (
	"context"
	"log/slog"

	"github.com/suparena/storagekit/codec"
	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/handle"
	"github.com/suparena/storagekit/storagemodels"
)

// Queues resolves queue references by name. Queues are created on first use.
type Queues struct {
	service datastore.QueueService
	cache   *handle.Cache[datastore.Queue]
	logger  *slog.Logger
}

// New creates a Queues helper over service. A nil service yields a helper
// whose operations fail with a ResourceUnavailableError.
func New(service datastore.QueueService, opts ...storagemodels.Option) *Queues {
	options := storagemodels.ApplyOptions(opts...)

	var resolve func(string) datastore.Queue
	if service != nil {
		resolve = service.Queue
	}

	return &Queues{
		service: service,
		cache:   handle.NewCache(errors.KindQueue, resolve, handle.NewCreator(options), options.Observer),
		logger:  options.Logger,
	}
}

// GetQueue returns the cached reference for name, creating the queue when
// createIfMissing is set. A missing queue is reported as ResourceNotFound.
func (q *Queues) GetQueue(ctx context.Context, name string, createIfMissing bool) (datastore.Queue, error) {
	if err := q.check(name); err != nil {
		return nil, err
	}
	queue, ok, err := q.cache.GetOrCreate(ctx, name, createIfMissing)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewResourceNotFoundError(errors.KindQueue, name)
	}
	return queue, nil
}

// CreateQueue creates the named queue if needed and caches its reference
func (q *Queues) CreateQueue(ctx context.Context, name string) (datastore.Queue, error) {
	return q.GetQueue(ctx, name, true)
}

// DeleteQueue deletes the named queue and forgets its cached reference
func (q *Queues) DeleteQueue(ctx context.Context, name string) error {
	if err := q.check(name); err != nil {
		return err
	}
	if err := q.service.Queue(name).Delete(ctx); err != nil {
		return err
	}
	q.cache.Remove(name)
	q.logger.Info("queue deleted", "queue", name)
	return nil
}

// Queues returns the names of the cached queue references
func (q *Queues) Queues() []string {
	return q.cache.Names()
}

// Enqueue encodes message and adds it to the named queue, creating the queue if needed.
func Enqueue[T any](ctx context.Context, q *Queues, queueName string, message *T) error {
	if q == nil {
		return errors.NewInvalidArgumentError("queues", "the helper can not be nil")
	}
	if message == nil {
		return errors.NewInvalidArgumentError("message", "the message can not be nil")
	}
	queue, err := q.CreateQueue(ctx, queueName)
	if err != nil {
		return err
	}
	return EnqueueTo(ctx, queue, message)
}

// EnqueueTo encodes message and adds it to queue
func EnqueueTo[T any](ctx context.Context, queue datastore.Queue, message *T) error {
	if queue == nil {
		return errors.NewInvalidArgumentError("queue", "the queue reference can not be nil")
	}
	if message == nil {
		return errors.NewInvalidArgumentError("message", "the message can not be nil")
	}
	payload, err := codec.Marshal(message)
	if err != nil {
		return err
	}
	return queue.Enqueue(ctx, payload)
}

// Dequeue returns the next visible message of the named queue, creating the
// queue if needed. It returns nil, nil when the queue is empty. The message
// is not removed from the queue.
func Dequeue[T any](ctx context.Context, q *Queues, queueName string) (*T, error) {
	if q == nil {
		return nil, errors.NewInvalidArgumentError("queues", "the helper can not be nil")
	}
	queue, err := q.CreateQueue(ctx, queueName)
	if err != nil {
		return nil, err
	}
	return DequeueFrom[T](ctx, queue)
}

// DequeueFrom returns the next visible message of queue, or nil, nil when it is empty
func DequeueFrom[T any](ctx context.Context, queue datastore.Queue) (*T, error) {
	if queue == nil {
		return nil, errors.NewInvalidArgumentError("queue", "the queue reference can not be nil")
	}
	payload, ok, err := queue.Dequeue(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return codec.Decode[T](payload)
}

func (q *Queues) check(name string) error {
	if q.service == nil {
		return errors.NewResourceUnavailableError(errors.KindQueue, name, nil)
	}
	if name == "" {
		return errors.NewInvalidArgumentError("queue name", "the name can not be empty")
	}
	return nil
}
