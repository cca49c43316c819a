/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package topics

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/suparena/storagekit/codec"
	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/handle"
	"github.com/suparena/storagekit/storagemodels"
)

// Topics manages pub/sub topics and their subscriptions.
type Topics struct {
	service        datastore.TopicService
	topics         *handle.Cache[datastore.Topic]
	subs           *handle.Cache[datastore.Subscription]
	receiveTimeout time.Duration
	logger         *slog.Logger
}

// New creates a Topics helper over service. A nil service yields a helper
// whose operations fail with a ResourceUnavailableError.
func New(service datastore.TopicService, opts ...storagemodels.Option) *Topics {
	options := storagemodels.ApplyOptions(opts...)
	creator := handle.NewCreator(options)

	var resolve func(string) datastore.Topic
	if service != nil {
		resolve = service.Topic
	}

	return &Topics{
		service:        service,
		topics:         handle.NewCache(errors.KindTopic, resolve, creator, options.Observer),
		subs:           handle.NewCache[datastore.Subscription](errors.KindSubscription, nil, creator, options.Observer),
		receiveTimeout: options.ReceiveTimeout,
		logger:         options.Logger,
	}
}

// CreateTopic returns the cached reference for name, creating the topic if needed
func (t *Topics) CreateTopic(ctx context.Context, name string) (datastore.Topic, error) {
	return t.topic(ctx, name, true)
}

// DeleteTopic deletes the named topic and forgets the cached references of
// the topic and its subscriptions, which the backend deletes with it.
func (t *Topics) DeleteTopic(ctx context.Context, name string) error {
	if err := t.check(name); err != nil {
		return err
	}
	if err := t.service.Topic(name).Delete(ctx); err != nil {
		return err
	}
	t.topics.Remove(name)
	prefix := subKey(name, "")
	for _, key := range t.subs.Names() {
		if strings.HasPrefix(key, prefix) {
			t.subs.Remove(key)
		}
	}
	return nil
}

// Subscribe creates the subscription if it does not exist. filter restricts
// delivery to matching messages and is only applied on creation; pass "" to
// receive everything.
func (t *Topics) Subscribe(ctx context.Context, topicName, subscription, filter string) (datastore.Subscription, error) {
	topic, err := t.topic(ctx, topicName, false)
	if err != nil {
		return nil, err
	}
	if subscription == "" {
		return nil, errors.NewInvalidArgumentError("subscription name", "the name can not be empty")
	}

	resolve := func(string) datastore.Subscription {
		return topic.Subscription(subscription, filter)
	}
	sub, _, err := t.subs.GetOrCreateWith(ctx, subKey(topicName, subscription), resolve, true)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("subscribed", "topic", topicName, "subscription", subscription, "filter", filter)
	return sub, nil
}

// Unsubscribe deletes the subscription and forgets its cached reference
func (t *Topics) Unsubscribe(ctx context.Context, topicName, subscription string) error {
	if err := t.check(topicName); err != nil {
		return err
	}
	if subscription == "" {
		return errors.NewInvalidArgumentError("subscription name", "the name can not be empty")
	}
	if err := t.service.Topic(topicName).Subscription(subscription, "").Delete(ctx); err != nil {
		return err
	}
	t.subs.Remove(subKey(topicName, subscription))
	return nil
}

// Send publishes msg to an existing topic and returns the message ID
func (t *Topics) Send(ctx context.Context, topicName string, msg *storagemodels.Message) (string, error) {
	if msg == nil {
		return "", errors.NewInvalidArgumentError("message", "the message can not be nil")
	}
	topic, err := t.topic(ctx, topicName, false)
	if err != nil {
		return "", err
	}
	return topic.Publish(ctx, msg)
}

// Receive waits up to the receive timeout for one message on an existing
// subscription. It returns nil, nil when none arrived.
func (t *Topics) Receive(ctx context.Context, topicName, subscription string) (*storagemodels.Message, error) {
	sub, err := t.subscription(ctx, topicName, subscription)
	if err != nil {
		return nil, err
	}

	if t.receiveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.receiveTimeout)
		defer cancel()
	}
	return sub.Receive(ctx)
}

// Publish encodes v with the codec and sends it with the given attributes
func Publish[T any](ctx context.Context, t *Topics, topicName string, v *T, attributes map[string]string) (string, error) {
	if t == nil {
		return "", errors.NewInvalidArgumentError("topics", "the helper can not be nil")
	}
	if v == nil {
		return "", errors.NewInvalidArgumentError("message", "the message can not be nil")
	}
	data, err := codec.Marshal(v)
	if err != nil {
		return "", err
	}
	return t.Send(ctx, topicName, &storagemodels.Message{Data: data, Attributes: attributes})
}

// ReceiveAs receives one message and decodes its payload into a T.
// It returns nil, nil when no message arrived.
func ReceiveAs[T any](ctx context.Context, t *Topics, topicName, subscription string) (*T, error) {
	if t == nil {
		return nil, errors.NewInvalidArgumentError("topics", "the helper can not be nil")
	}
	msg, err := t.Receive(ctx, topicName, subscription)
	if err != nil || msg == nil {
		return nil, err
	}
	return codec.Decode[T](msg.Data)
}

func (t *Topics) topic(ctx context.Context, name string, createIfMissing bool) (datastore.Topic, error) {
	if err := t.check(name); err != nil {
		return nil, err
	}
	topic, ok, err := t.topics.GetOrCreate(ctx, name, createIfMissing)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewResourceNotFoundError(errors.KindTopic, name)
	}
	return topic, nil
}

func (t *Topics) subscription(ctx context.Context, topicName, name string) (datastore.Subscription, error) {
	topic, err := t.topic(ctx, topicName, false)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errors.NewInvalidArgumentError("subscription name", "the name can not be empty")
	}

	resolve := func(string) datastore.Subscription {
		return topic.Subscription(name, "")
	}
	sub, ok, err := t.subs.GetOrCreateWith(ctx, subKey(topicName, name), resolve, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewResourceNotFoundError(errors.KindSubscription, name)
	}
	return sub, nil
}

func (t *Topics) check(name string) error {
	if t.service == nil {
		return errors.NewResourceUnavailableError(errors.KindTopic, name, nil)
	}
	if name == "" {
		return errors.NewInvalidArgumentError("topic name", "the name can not be empty")
	}
	return nil
}

func subKey(topic, subscription string) string {
	return topic + "/" + subscription
}
