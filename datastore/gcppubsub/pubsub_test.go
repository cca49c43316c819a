/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package gcppubsub_test

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/suparena/storagekit/datastore/gcppubsub"
	"github.com/suparena/storagekit/datastore/testmodels"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/storagemodels"
	"github.com/suparena/storagekit/topics"
)

func newService(t *testing.T) *gcppubsub.TopicService {
	t.Helper()
	ctx := context.Background()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	client, err := pubsub.NewClient(ctx, "storagekit-test", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return gcppubsub.NewTopicService(client)
}

func TestPublishReceive(t *testing.T) {
	ctx := context.Background()
	helper := topics.New(newService(t), storagemodels.WithReceiveTimeout(2*time.Second))

	_, err := helper.CreateTopic(ctx, "emails")
	require.NoError(t, err)
	_, err = helper.Subscribe(ctx, "emails", "all", "")
	require.NoError(t, err)

	id, err := topics.Publish(ctx, helper, "emails", &testmodels.Email{To: "ada@example.com", Subject: "Welcome"}, map[string]string{"priority": "low"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msg, err := helper.Receive(ctx, "emails", "all")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, id, msg.ID)
	assert.Equal(t, "low", msg.Attributes["priority"])

	got, err := topics.ReceiveAs[testmodels.Email](ctx, helper, "emails", "all")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReceiveTimesOut(t *testing.T) {
	ctx := context.Background()
	helper := topics.New(newService(t), storagemodels.WithReceiveTimeout(200*time.Millisecond))

	_, err := helper.CreateTopic(ctx, "orders")
	require.NoError(t, err)
	_, err = helper.Subscribe(ctx, "orders", "audit", "")
	require.NoError(t, err)

	start := time.Now()
	msg, err := helper.Receive(ctx, "orders", "audit")
	require.NoError(t, err)
	assert.Nil(t, msg)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestTopicLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	topic := svc.Topic("orders")

	exists, err := topic.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, topic.CreateIfNotExists(ctx))
	require.NoError(t, topic.CreateIfNotExists(ctx))

	sub := topic.Subscription("audit", "")
	require.NoError(t, sub.CreateIfNotExists(ctx))
	exists, err = sub.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, sub.Delete(ctx))
	exists, err = sub.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, svc.Topic("orders").Delete(ctx))
	err = svc.Topic("orders").Delete(ctx)
	assert.True(t, errors.IsRemoteFailure(err))
}

func TestMissingTopic(t *testing.T) {
	ctx := context.Background()
	helper := topics.New(newService(t))

	_, err := helper.Send(ctx, "nope", &storagemodels.Message{Data: []byte("x")})
	assert.True(t, errors.IsNotFound(err))
}

func TestDeleteTopicDeletesSubscriptions(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	helper := topics.New(svc, storagemodels.WithReceiveTimeout(2*time.Second))

	_, err := helper.CreateTopic(ctx, "orders")
	require.NoError(t, err)
	_, err = helper.Subscribe(ctx, "orders", "audit", "")
	require.NoError(t, err)

	require.NoError(t, helper.DeleteTopic(ctx, "orders"))
	exists, err := svc.Topic("orders").Subscription("audit", "").Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = helper.CreateTopic(ctx, "orders")
	require.NoError(t, err)
	_, err = helper.Subscribe(ctx, "orders", "audit", "")
	require.NoError(t, err)

	id, err := topics.Publish(ctx, helper, "orders", &testmodels.Email{Subject: "again"}, nil)
	require.NoError(t, err)

	msg, err := helper.Receive(ctx, "orders", "audit")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, id, msg.ID)
}
