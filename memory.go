/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagekit

import (
	"context"

	"github.com/suparena/storagekit/account"
	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/datastore/mock"
	"github.com/suparena/storagekit/registry"
)

// The memory driver keeps everything in process. Each factory call starts empty.
func init() {
	registry.RegisterTableDriver("memory", func(context.Context, *account.Context) (datastore.TableService, error) {
		return mock.NewTableService(), nil
	})
	registry.RegisterQueueDriver("memory", func(context.Context, *account.Context) (datastore.QueueService, error) {
		return mock.NewQueueService(), nil
	})
	registry.RegisterBlobDriver("memory", func(context.Context, *account.Context) (datastore.BlobService, error) {
		return mock.NewBlobService(), nil
	})
	registry.RegisterTopicDriver("memory", func(context.Context, *account.Context) (datastore.TopicService, error) {
		return mock.NewTopicService(), nil
	})
}
