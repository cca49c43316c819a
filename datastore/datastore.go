/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"io"

	"github.com/suparena/storagekit/storagemodels"
)

// Resource is a named remote resource that can be probed and provisioned.
// Minting one (TableService.Table, QueueService.Queue, ...) performs no I/O.
type Resource interface {
	Name() string

	Exists(ctx context.Context) (bool, error)

	// CreateIfNotExists succeeds when the resource was created or already existed.
	CreateIfNotExists(ctx context.Context) error
}

// Table is a bound reference to a remote table. Entity operations return the
// backend status code; a non-success status is also returned as an error.
type Table interface {
	Resource

	Delete(ctx context.Context) error

	Insert(ctx context.Context, entity storagemodels.Entity) (int, error)

	InsertOrMerge(ctx context.Context, entity storagemodels.Entity) (int, error)

	InsertOrReplace(ctx context.Context, entity storagemodels.Entity) (int, error)

	Merge(ctx context.Context, entity storagemodels.Entity) (int, error)

	Replace(ctx context.Context, entity storagemodels.Entity) (int, error)

	DeleteEntity(ctx context.Context, entity storagemodels.Entity) (int, error)

	// Retrieve decodes the entity into out. It reports false, nil when no entity has the key.
	Retrieve(ctx context.Context, partitionKey, rowKey string, out any) (bool, error)
}

// TableService mints table references for one storage account.
type TableService interface {
	Table(name string) Table
}

// Queue is a bound reference to a remote queue.
type Queue interface {
	Resource

	Delete(ctx context.Context) error

	Enqueue(ctx context.Context, payload []byte) error

	// Dequeue returns the next visible message without removing it, or false when the queue is empty.
	Dequeue(ctx context.Context) ([]byte, bool, error)
}

// QueueService mints queue references for one storage account.
type QueueService interface {
	Queue(name string) Queue
}

// Container is a bound reference to a remote blob container.
type Container interface {
	Resource

	Delete(ctx context.Context) error

	SetPublicAccess(ctx context.Context, access storagemodels.PublicAccess) error

	Upload(ctx context.Context, blob string, r io.Reader, contentType string) error

	Download(ctx context.Context, blob string) (io.ReadCloser, error)

	// BlobURL looks the blob up on the server and returns its URL.
	BlobURL(ctx context.Context, blob string) (string, error)
}

// BlobService mints container references for one storage account.
type BlobService interface {
	Container(name string) Container
}

// Topic is a bound reference to a pub/sub topic.
type Topic interface {
	Resource

	Delete(ctx context.Context) error

	// Publish sends msg and returns the backend-assigned message ID.
	Publish(ctx context.Context, msg *storagemodels.Message) (string, error)

	// Subscription mints a subscription reference. filter is applied when the
	// subscription is created; an empty filter receives every message.
	Subscription(name, filter string) Subscription
}

// Subscription is a bound reference to a topic subscription.
type Subscription interface {
	Resource

	Delete(ctx context.Context) error

	// Receive waits until ctx is done for one message and acknowledges it.
	// It returns nil, nil when no message arrived.
	Receive(ctx context.Context) (*storagemodels.Message, error)
}

// TopicService mints topic references for one messaging namespace.
type TopicService interface {
	Topic(name string) Topic
}
