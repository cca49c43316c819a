/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package azurequeue

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue/queueerror"

	"github.com/suparena/storagekit/account"
	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/datastore/azureutil"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/registry"
)

// DriverName is the registry name of the Azure Queue driver
const DriverName = "azurequeue"

func init() {
	registry.RegisterQueueDriver(DriverName, func(ctx context.Context, acct *account.Context) (datastore.QueueService, error) {
		client, err := NewServiceClient(acct)
		if err != nil {
			return nil, err
		}
		return NewQueueService(client), nil
	})
}

// NewServiceClient creates a queue service client for acct, authenticating
// the same way as the blob driver.
func NewServiceClient(acct *account.Context) (*azqueue.ServiceClient, error) {
	if acct == nil {
		return nil, errors.NewInvalidArgumentError("account", "the account can not be nil")
	}

	var (
		client *azqueue.ServiceClient
		err    error
	)
	switch {
	case acct.AccountKey != "":
		client, err = azqueue.NewServiceClientFromConnectionString(acct.AzureConnectionString(), nil)
	case acct.SharedAccessSignature != "":
		serviceURL := strings.TrimSuffix(acct.QueueEndpoint, "/") + "/?" + strings.TrimPrefix(acct.SharedAccessSignature, "?")
		client, err = azqueue.NewServiceClientWithNoCredential(serviceURL, nil)
	default:
		cred, cerr := azidentity.NewDefaultAzureCredential(nil)
		if cerr != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", cerr)
		}
		client, err = azqueue.NewServiceClient(acct.QueueEndpoint, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create queue client: %w", err)
	}

	slog.Default().Debug("Azure Queue client initialized", "account", acct.AccountName, "endpoint", acct.QueueEndpoint)
	return client, nil
}

// QueueService implements datastore.QueueService on Azure Queue Storage.
// Payloads are base64 encoded, as the service requires XML-safe message text.
type QueueService struct {
	client            *azqueue.ServiceClient
	visibilityTimeout int32
}

// NewQueueService creates a queue service on client. Dequeued messages stay
// hidden for 30 seconds.
func NewQueueService(client *azqueue.ServiceClient) *QueueService {
	return &QueueService{client: client, visibilityTimeout: 30}
}

// WithVisibilityTimeout sets how many seconds a dequeued message stays hidden
func (s *QueueService) WithVisibilityTimeout(seconds int32) *QueueService {
	s.visibilityTimeout = seconds
	return s
}

// Queue implements datastore.QueueService
func (s *QueueService) Queue(name string) datastore.Queue {
	return &queue{svc: s, name: name, client: s.client.NewQueueClient(name)}
}

type queue struct {
	svc    *QueueService
	name   string
	client *azqueue.QueueClient
}

func (q *queue) Name() string { return q.name }

func (q *queue) Exists(ctx context.Context) (bool, error) {
	_, err := q.client.GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	if queueerror.HasCode(err, queueerror.QueueNotFound, queueerror.QueueBeingDeleted) {
		return false, nil
	}
	return false, azureutil.Failure("get queue properties", errors.KindQueue, q.name, err)
}

func (q *queue) CreateIfNotExists(ctx context.Context) error {
	_, err := q.client.Create(ctx, nil)
	if err == nil || queueerror.HasCode(err, queueerror.QueueAlreadyExists) {
		return nil
	}
	return azureutil.Failure("create queue", errors.KindQueue, q.name, err)
}

func (q *queue) Delete(ctx context.Context) error {
	if _, err := q.client.Delete(ctx, nil); err != nil {
		return azureutil.Failure("delete queue", errors.KindQueue, q.name, err)
	}
	return nil
}

func (q *queue) Enqueue(ctx context.Context, payload []byte) error {
	if _, err := q.client.EnqueueMessage(ctx, base64.StdEncoding.EncodeToString(payload), nil); err != nil {
		return azureutil.Failure("enqueue", errors.KindQueue, q.name, err)
	}
	return nil
}

func (q *queue) Dequeue(ctx context.Context) ([]byte, bool, error) {
	resp, err := q.client.DequeueMessage(ctx, &azqueue.DequeueMessageOptions{
		VisibilityTimeout: to.Ptr(q.svc.visibilityTimeout),
	})
	if err != nil {
		return nil, false, azureutil.Failure("dequeue", errors.KindQueue, q.name, err)
	}
	if len(resp.Messages) == 0 || resp.Messages[0] == nil || resp.Messages[0].MessageText == nil {
		return nil, false, nil
	}

	payload, err := base64.StdEncoding.DecodeString(*resp.Messages[0].MessageText)
	if err != nil {
		return nil, false, errors.NewInvalidFormatError("message", fmt.Sprintf("queue %q returned a non base64 message", q.name), err)
	}
	return payload, true, nil
}

var _ datastore.QueueService = (*QueueService)(nil)
