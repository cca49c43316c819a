/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/storagekit/account"
	"github.com/suparena/storagekit/datastore"
)

// Factory builds a service client for a resolved account.
type Factory[S any] func(ctx context.Context, acct *account.Context) (S, error)

// drivers maps a driver name to its factory for one service kind.
type drivers[S any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]Factory[S]
}

func newDrivers[S any](kind string) *drivers[S] {
	return &drivers[S]{kind: kind, factories: make(map[string]Factory[S])}
}

// register panics on a duplicate name to prevent accidental overrides.
func (d *drivers[S]) register(name string, fn Factory[S]) {
	if fn == nil {
		panic(fmt.Sprintf("registry: nil %s driver %q", d.kind, name))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.factories[name]; exists {
		panic(fmt.Sprintf("registry: %s driver %q already registered", d.kind, name))
	}
	d.factories[name] = fn
}

func (d *drivers[S]) lookup(name string) (Factory[S], error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn, ok := d.factories[name]
	if !ok {
		return nil, fmt.Errorf("registry: no %s driver registered as %q (forgotten import?)", d.kind, name)
	}
	return fn, nil
}

func (d *drivers[S]) names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.factories))
	for k := range d.factories {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

var (
	tableDrivers = newDrivers[datastore.TableService]("table")
	queueDrivers = newDrivers[datastore.QueueService]("queue")
	blobDrivers  = newDrivers[datastore.BlobService]("blob")
	topicDrivers = newDrivers[datastore.TopicService]("topic")
)

// RegisterTableDriver makes a table driver available by name. It is meant to
// be called from a driver package's init function.
func RegisterTableDriver(name string, fn Factory[datastore.TableService]) {
	tableDrivers.register(name, fn)
}

// RegisterQueueDriver makes a queue driver available by name
func RegisterQueueDriver(name string, fn Factory[datastore.QueueService]) {
	queueDrivers.register(name, fn)
}

// RegisterBlobDriver makes a blob driver available by name
func RegisterBlobDriver(name string, fn Factory[datastore.BlobService]) {
	blobDrivers.register(name, fn)
}

// RegisterTopicDriver makes a topic driver available by name
func RegisterTopicDriver(name string, fn Factory[datastore.TopicService]) {
	topicDrivers.register(name, fn)
}

// TableDriver returns the table driver registered as name
func TableDriver(name string) (Factory[datastore.TableService], error) {
	return tableDrivers.lookup(name)
}

// QueueDriver returns the queue driver registered as name
func QueueDriver(name string) (Factory[datastore.QueueService], error) {
	return queueDrivers.lookup(name)
}

// BlobDriver returns the blob driver registered as name
func BlobDriver(name string) (Factory[datastore.BlobService], error) {
	return blobDrivers.lookup(name)
}

// TopicDriver returns the topic driver registered as name
func TopicDriver(name string) (Factory[datastore.TopicService], error) {
	return topicDrivers.lookup(name)
}

// Drivers lists the registered driver names per service kind
func Drivers() map[string][]string {
	return map[string][]string{
		"table": tableDrivers.names(),
		"queue": queueDrivers.names(),
		"blob":  blobDrivers.names(),
		"topic": topicDrivers.names(),
	}
}
