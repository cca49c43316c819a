/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package gcppubsub

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/suparena/storagekit/account"
	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/registry"
	"github.com/suparena/storagekit/storagemodels"
)

// DriverName is the registry name of the Pub/Sub topic driver
const DriverName = "gcppubsub"

func init() {
	registry.RegisterTopicDriver(DriverName, func(ctx context.Context, acct *account.Context) (datastore.TopicService, error) {
		client, err := NewClient(ctx, acct)
		if err != nil {
			return nil, err
		}
		return NewTopicService(client), nil
	})
}

// NewClient creates a Pub/Sub client for acct.ProjectID. When the account
// names an Endpoint, the client dials it without TLS or authentication, the
// way the Pub/Sub emulator expects.
func NewClient(ctx context.Context, acct *account.Context) (*pubsub.Client, error) {
	if acct == nil || acct.ProjectID == "" {
		return nil, errors.NewInvalidArgumentError("ProjectId", "a Google Cloud project is required")
	}

	var opts []option.ClientOption
	if acct.Endpoint != "" {
		opts = append(opts,
			option.WithEndpoint(acct.Endpoint),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}

	client, err := pubsub.NewClient(ctx, acct.ProjectID, opts...)
	if err != nil {
		return nil, errors.NewResourceUnavailableError(errors.KindTopic, acct.ProjectID, err)
	}
	slog.Default().Debug("Pub/Sub client initialized", "project", acct.ProjectID, "endpoint", acct.Endpoint)
	return client, nil
}

// TopicService implements datastore.TopicService on Google Cloud Pub/Sub.
type TopicService struct {
	client *pubsub.Client
}

// NewTopicService creates a topic service on client
func NewTopicService(client *pubsub.Client) *TopicService {
	return &TopicService{client: client}
}

// Topic implements datastore.TopicService
func (s *TopicService) Topic(name string) datastore.Topic {
	return &topic{svc: s, name: name}
}

type topic struct {
	svc  *TopicService
	name string

	once      sync.Once
	publisher *pubsub.Topic
}

func (t *topic) Name() string { return t.name }

func (t *topic) handle() *pubsub.Topic {
	t.once.Do(func() {
		t.publisher = t.svc.client.Topic(t.name)
	})
	return t.publisher
}

func (t *topic) Exists(ctx context.Context) (bool, error) {
	ok, err := t.handle().Exists(ctx)
	if err != nil {
		return false, failure("exists", errors.KindTopic, t.name, err)
	}
	return ok, nil
}

func (t *topic) CreateIfNotExists(ctx context.Context) error {
	_, err := t.svc.client.CreateTopic(ctx, t.name)
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return failure("create topic", errors.KindTopic, t.name, err)
	}
	return nil
}

// Delete removes the topic together with its subscriptions. Pub/Sub would
// otherwise keep them, detached from any topic.
func (t *topic) Delete(ctx context.Context) error {
	h := t.handle()
	h.Stop()

	it := h.Subscriptions(ctx)
	for {
		sub, err := it.Next()
		if err == iterator.Done {
			break
		}
		if status.Code(err) == codes.NotFound {
			break
		}
		if err != nil {
			return failure("list subscriptions", errors.KindTopic, t.name, err)
		}
		if err := sub.Delete(ctx); err != nil && status.Code(err) != codes.NotFound {
			return failure("delete subscription", errors.KindSubscription, sub.ID(), err)
		}
	}

	if err := h.Delete(ctx); err != nil {
		return failure("delete topic", errors.KindTopic, t.name, err)
	}
	return nil
}

func (t *topic) Publish(ctx context.Context, msg *storagemodels.Message) (string, error) {
	result := t.handle().Publish(ctx, &pubsub.Message{
		Data:       msg.Data,
		Attributes: msg.Attributes,
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", failure("publish", errors.KindTopic, t.name, err)
	}
	return id, nil
}

func (t *topic) Subscription(name, filter string) datastore.Subscription {
	return &subscription{topic: t, name: name, filter: filter}
}

type subscription struct {
	topic  *topic
	name   string
	filter string
}

func (s *subscription) Name() string { return s.name }

func (s *subscription) handle() *pubsub.Subscription {
	sub := s.topic.svc.client.Subscription(s.name)
	sub.ReceiveSettings.MaxOutstandingMessages = 1
	sub.ReceiveSettings.NumGoroutines = 1
	return sub
}

func (s *subscription) Exists(ctx context.Context) (bool, error) {
	ok, err := s.handle().Exists(ctx)
	if err != nil {
		return false, failure("exists", errors.KindSubscription, s.name, err)
	}
	return ok, nil
}

func (s *subscription) CreateIfNotExists(ctx context.Context) error {
	_, err := s.topic.svc.client.CreateSubscription(ctx, s.name, pubsub.SubscriptionConfig{
		Topic:  s.topic.handle(),
		Filter: s.filter,
	})
	if err != nil && status.Code(err) != codes.AlreadyExists {
		return failure("create subscription", errors.KindSubscription, s.name, err)
	}
	return nil
}

func (s *subscription) Delete(ctx context.Context) error {
	if err := s.handle().Delete(ctx); err != nil {
		return failure("delete subscription", errors.KindSubscription, s.name, err)
	}
	return nil
}

// Receive acknowledges the first delivered message and stops receiving.
// Messages delivered after it are nacked for redelivery.
func (s *subscription) Receive(ctx context.Context) (*storagemodels.Message, error) {
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu  sync.Mutex
		got *storagemodels.Message
	)
	err := s.handle().Receive(cctx, func(_ context.Context, m *pubsub.Message) {
		mu.Lock()
		defer mu.Unlock()
		if got != nil {
			m.Nack()
			return
		}
		got = &storagemodels.Message{
			ID:          m.ID,
			Data:        m.Data,
			Attributes:  m.Attributes,
			PublishTime: m.PublishTime,
		}
		m.Ack()
		cancel()
	})
	if err != nil && status.Code(err) != codes.Canceled && ctx.Err() == nil {
		return nil, failure("receive", errors.KindSubscription, s.name, err)
	}

	mu.Lock()
	defer mu.Unlock()
	return got, nil
}

func failure(op, kind, name string, err error) error {
	code := status.Code(err)
	return errors.NewRemoteFailureError(op, kind, name, httpStatus(code), code.String(), err)
}

func httpStatus(code codes.Code) int {
	switch code {
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

var _ datastore.TopicService = (*TopicService)(nil)
