/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/storagemodels"
)

// TopicService is an in-memory datastore.TopicService. Subscriptions are
// tracked with their own fault-injection state and receive a copy of every
// message published after they were created that passes their filter.
type TopicService struct {
	resources
	subs   *SubscriptionState
	nextID int
	// subscription names per topic
	members map[string][]string
	filters map[string]filter
	pending map[string][]*storagemodels.Message
	now     func() time.Time
}

// SubscriptionState exposes fault injection for subscriptions
type SubscriptionState struct {
	resources
}

// NewTopicService creates an empty in-memory topic service
func NewTopicService() *TopicService {
	return &TopicService{
		resources: newResources(errors.KindTopic, ""),
		subs:      &SubscriptionState{resources: newResources(errors.KindSubscription, "")},
		members:   make(map[string][]string),
		filters:   make(map[string]filter),
		pending:   make(map[string][]*storagemodels.Message),
		now:       time.Now,
	}
}

// Subscriptions returns the fault-injection state shared by all subscriptions
func (s *TopicService) Subscriptions() *SubscriptionState {
	return s.subs
}

// Topic implements datastore.TopicService
func (s *TopicService) Topic(name string) datastore.Topic {
	return &topic{svc: s, name: name}
}

// Pending returns the number of undelivered messages held for a subscription
func (s *TopicService) Pending(subscription string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending[subscription])
}

type topic struct {
	svc  *TopicService
	name string
}

func (t *topic) Name() string { return t.name }

func (t *topic) Exists(ctx context.Context) (bool, error) {
	t.svc.mu.Lock()
	defer t.svc.mu.Unlock()
	return t.svc.probeLocked(t.name)
}

func (t *topic) CreateIfNotExists(ctx context.Context) error {
	t.svc.mu.Lock()
	defer t.svc.mu.Unlock()
	_, err := t.svc.createLocked(t.name)
	return err
}

func (t *topic) Delete(ctx context.Context) error {
	t.svc.mu.Lock()
	defer t.svc.mu.Unlock()
	if !t.svc.dropLocked(t.name) {
		return notFound("delete topic", errors.KindTopic, t.name, "TopicNotFound")
	}

	// subscriptions go with their topic
	t.svc.subs.mu.Lock()
	for _, sub := range t.svc.members[t.name] {
		t.svc.subs.dropLocked(sub)
		delete(t.svc.filters, sub)
		delete(t.svc.pending, sub)
	}
	t.svc.subs.mu.Unlock()
	delete(t.svc.members, t.name)
	return nil
}

func (t *topic) Publish(ctx context.Context, msg *storagemodels.Message) (string, error) {
	if msg == nil {
		return "", errors.NewInvalidArgumentError("message", "the message can not be nil")
	}

	t.svc.mu.Lock()
	defer t.svc.mu.Unlock()
	if !t.svc.exists[t.name] {
		return "", notFound("publish", errors.KindTopic, t.name, "TopicNotFound")
	}

	t.svc.nextID++
	id := strconv.Itoa(t.svc.nextID)
	for _, sub := range t.svc.members[t.name] {
		if !t.svc.filters[sub].match(msg.Attributes) {
			continue
		}
		t.svc.pending[sub] = append(t.svc.pending[sub], &storagemodels.Message{
			ID:          id,
			Data:        append([]byte(nil), msg.Data...),
			Attributes:  copyAttributes(msg.Attributes),
			PublishTime: t.svc.now(),
		})
	}
	return id, nil
}

func (t *topic) Subscription(name, expr string) datastore.Subscription {
	return &subscription{svc: t.svc, topic: t.name, name: name, filter: expr}
}

type subscription struct {
	svc    *TopicService
	topic  string
	name   string
	filter string
}

func (s *subscription) Name() string { return s.name }

func (s *subscription) Exists(ctx context.Context) (bool, error) {
	s.svc.subs.mu.Lock()
	defer s.svc.subs.mu.Unlock()
	return s.svc.subs.probeLocked(s.name)
}

func (s *subscription) CreateIfNotExists(ctx context.Context) error {
	f, err := parseFilter(s.filter)
	if err != nil {
		return err
	}

	s.svc.mu.Lock()
	defer s.svc.mu.Unlock()
	if !s.svc.exists[s.topic] {
		return notFound("create subscription", errors.KindTopic, s.topic, "TopicNotFound")
	}

	s.svc.subs.mu.Lock()
	created, err := s.svc.subs.createLocked(s.name)
	s.svc.subs.mu.Unlock()
	if err != nil || !created {
		return err
	}
	s.svc.members[s.topic] = append(s.svc.members[s.topic], s.name)
	s.svc.filters[s.name] = f
	return nil
}

func (s *subscription) Delete(ctx context.Context) error {
	s.svc.mu.Lock()
	defer s.svc.mu.Unlock()

	s.svc.subs.mu.Lock()
	existed := s.svc.subs.dropLocked(s.name)
	s.svc.subs.mu.Unlock()
	if !existed {
		return notFound("delete subscription", errors.KindSubscription, s.name, "SubscriptionNotFound")
	}

	members := s.svc.members[s.topic]
	for i, m := range members {
		if m == s.name {
			s.svc.members[s.topic] = append(members[:i], members[i+1:]...)
			break
		}
	}
	delete(s.svc.filters, s.name)
	delete(s.svc.pending, s.name)
	return nil
}

func (s *subscription) Receive(ctx context.Context) (*storagemodels.Message, error) {
	s.svc.mu.Lock()
	defer s.svc.mu.Unlock()

	if !s.svc.subs.Has(s.name) {
		return nil, notFound("receive", errors.KindSubscription, s.name, "SubscriptionNotFound")
	}
	queue := s.svc.pending[s.name]
	if len(queue) == 0 {
		return nil, nil
	}
	s.svc.pending[s.name] = queue[1:]
	return queue[0], nil
}

// filter is a conjunction of attribute comparisons in the Pub/Sub filter
// syntax: attributes.key = "value" AND attributes.other != "x"
type filter []clause

type clause struct {
	key    string
	value  string
	negate bool
}

func (f filter) match(attrs map[string]string) bool {
	for _, c := range f {
		v, ok := attrs[c.key]
		if (ok && v == c.value) == c.negate {
			return false
		}
	}
	return true
}

func parseFilter(expr string) (filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	var f filter
	for _, part := range strings.Split(expr, " AND ") {
		c, err := parseClause(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.NewRemoteFailureError("create subscription", errors.KindSubscription, expr, http.StatusBadRequest, "InvalidFilter", err)
		}
		f = append(f, c)
	}
	return f, nil
}

func parseClause(s string) (clause, error) {
	op, negate := "=", false
	if strings.Contains(s, "!=") {
		op, negate = "!=", true
	}
	lhs, rhs, ok := strings.Cut(s, op)
	if !ok {
		return clause{}, fmt.Errorf("unsupported filter clause %q", s)
	}
	key, ok := strings.CutPrefix(strings.TrimSpace(lhs), "attributes.")
	if !ok || key == "" {
		return clause{}, fmt.Errorf("filter clause %q must compare an attribute", s)
	}
	value, err := strconv.Unquote(strings.TrimSpace(rhs))
	if err != nil {
		return clause{}, fmt.Errorf("filter clause %q needs a quoted value: %w", s, err)
	}
	return clause{key: key, value: value, negate: negate}, nil
}

func copyAttributes(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var _ datastore.TopicService = (*TopicService)(nil)
