/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"context"
	"time"

	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/errors"
)

// DefaultVisibilityTimeout is how long a dequeued message stays hidden
const DefaultVisibilityTimeout = 30 * time.Second

type queuedMessage struct {
	payload   []byte
	visibleAt time.Time
}

// QueueService is an in-memory datastore.QueueService. Dequeued messages are
// hidden for the visibility timeout rather than removed.
type QueueService struct {
	resources
	visibility time.Duration
	messages   map[string][]*queuedMessage
	now        func() time.Time
}

// NewQueueService creates an empty in-memory queue service
func NewQueueService() *QueueService {
	return &QueueService{
		resources:  newResources(errors.KindQueue, errors.CodeQueueBeingDeleted),
		visibility: DefaultVisibilityTimeout,
		messages:   make(map[string][]*queuedMessage),
		now:        time.Now,
	}
}

// WithVisibilityTimeout sets how long a dequeued message stays hidden
func (s *QueueService) WithVisibilityTimeout(d time.Duration) *QueueService {
	s.visibility = d
	return s
}

// Queue implements datastore.QueueService
func (s *QueueService) Queue(name string) datastore.Queue {
	return &queue{svc: s, name: name}
}

// Seed creates the named queues without counting create calls
func (s *QueueService) Seed(names ...string) *QueueService {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		s.exists[n] = true
	}
	return s
}

// Len returns the number of messages stored in the named queue, visible or not
func (s *QueueService) Len(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages[name])
}

type queue struct {
	svc  *QueueService
	name string
}

func (q *queue) Name() string { return q.name }

func (q *queue) Exists(ctx context.Context) (bool, error) {
	q.svc.mu.Lock()
	defer q.svc.mu.Unlock()
	return q.svc.probeLocked(q.name)
}

func (q *queue) CreateIfNotExists(ctx context.Context) error {
	q.svc.mu.Lock()
	defer q.svc.mu.Unlock()
	_, err := q.svc.createLocked(q.name)
	return err
}

func (q *queue) Delete(ctx context.Context) error {
	q.svc.mu.Lock()
	defer q.svc.mu.Unlock()
	if !q.svc.dropLocked(q.name) {
		return notFound("delete queue", errors.KindQueue, q.name, "QueueNotFound")
	}
	delete(q.svc.messages, q.name)
	return nil
}

func (q *queue) Enqueue(ctx context.Context, payload []byte) error {
	q.svc.mu.Lock()
	defer q.svc.mu.Unlock()
	if !q.svc.exists[q.name] {
		return notFound("enqueue", errors.KindQueue, q.name, "QueueNotFound")
	}
	msg := &queuedMessage{payload: append([]byte(nil), payload...), visibleAt: q.svc.now()}
	q.svc.messages[q.name] = append(q.svc.messages[q.name], msg)
	return nil
}

func (q *queue) Dequeue(ctx context.Context) ([]byte, bool, error) {
	q.svc.mu.Lock()
	defer q.svc.mu.Unlock()
	if !q.svc.exists[q.name] {
		return nil, false, notFound("dequeue", errors.KindQueue, q.name, "QueueNotFound")
	}
	now := q.svc.now()
	for _, msg := range q.svc.messages[q.name] {
		if msg.visibleAt.After(now) {
			continue
		}
		msg.visibleAt = now.Add(q.svc.visibility)
		return append([]byte(nil), msg.payload...), true, nil
	}
	return nil, false, nil
}

var _ datastore.QueueService = (*QueueService)(nil)
var _ datastore.TableService = (*TableService)(nil)
