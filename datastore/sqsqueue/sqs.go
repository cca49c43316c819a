/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqsqueue

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/suparena/storagekit/account"
	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/datastore/awsutil"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/registry"
)

// DriverName is the registry name of the SQS queue driver
const DriverName = "sqsqueue"

func init() {
	registry.RegisterQueueDriver(DriverName, func(ctx context.Context, acct *account.Context) (datastore.QueueService, error) {
		client, err := NewClient(ctx, acct)
		if err != nil {
			return nil, err
		}
		return NewQueueService(client), nil
	})
}

// API is the subset of the SQS client used by the driver
type API interface {
	GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, optFns ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error)
	CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, optFns ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error)
	DeleteQueue(ctx context.Context, params *sqs.DeleteQueueInput, optFns ...func(*sqs.Options)) (*sqs.DeleteQueueOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
}

// NewClient creates an SQS client for acct
func NewClient(ctx context.Context, acct *account.Context) (*sqs.Client, error) {
	cfg, err := awsutil.LoadConfig(ctx, acct)
	if err != nil {
		return nil, err
	}
	client := sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		o.BaseEndpoint = awsutil.Endpoint(acct)
	})
	slog.Default().Debug("SQS client initialized", "region", cfg.Region, "endpoint", acct.Endpoint)
	return client, nil
}

// QueueService implements datastore.QueueService on Amazon SQS. Payloads are
// base64 encoded since SQS message bodies must be text.
type QueueService struct {
	client            API
	visibilityTimeout int32
}

// NewQueueService creates a queue service on client. Dequeued messages stay
// hidden for 30 seconds.
func NewQueueService(client API) *QueueService {
	return &QueueService{client: client, visibilityTimeout: 30}
}

// WithVisibilityTimeout sets how many seconds a dequeued message stays hidden
func (s *QueueService) WithVisibilityTimeout(seconds int32) *QueueService {
	s.visibilityTimeout = seconds
	return s
}

// Queue implements datastore.QueueService
func (s *QueueService) Queue(name string) datastore.Queue {
	return &queue{svc: s, name: name}
}

type queue struct {
	svc  *QueueService
	name string

	mu  sync.Mutex
	url string
}

func (q *queue) Name() string { return q.name }

// lookup resolves and caches the queue URL. It reports false when the queue does not exist.
func (q *queue) lookup(ctx context.Context) (string, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.url != "" {
		return q.url, true, nil
	}

	out, err := q.svc.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(q.name)})
	if err != nil {
		if isNonExistent(err) {
			return "", false, nil
		}
		return "", false, awsutil.Failure("get queue url", errors.KindQueue, q.name, err)
	}
	q.url = aws.ToString(out.QueueUrl)
	return q.url, true, nil
}

func (q *queue) forget() {
	q.mu.Lock()
	q.url = ""
	q.mu.Unlock()
}

func (q *queue) Exists(ctx context.Context) (bool, error) {
	_, found, err := q.lookup(ctx)
	return found, err
}

func (q *queue) CreateIfNotExists(ctx context.Context) error {
	out, err := q.svc.client.CreateQueue(ctx, &sqs.CreateQueueInput{QueueName: aws.String(q.name)})
	if err != nil {
		var recent *types.QueueDeletedRecently
		if stderrors.As(err, &recent) {
			return errors.NewBeingDeletedError(errors.KindQueue, q.name, errors.CodeQueueBeingDeleted, err)
		}
		return awsutil.Failure("create queue", errors.KindQueue, q.name, err)
	}

	q.mu.Lock()
	q.url = aws.ToString(out.QueueUrl)
	q.mu.Unlock()
	return nil
}

func (q *queue) Delete(ctx context.Context) error {
	url, found, err := q.lookup(ctx)
	if err != nil {
		return err
	}
	if !found {
		return errors.NewRemoteFailureError("delete queue", errors.KindQueue, q.name, http.StatusNotFound, "QueueNotFound", nil)
	}
	defer q.forget()

	if _, err := q.svc.client.DeleteQueue(ctx, &sqs.DeleteQueueInput{QueueUrl: aws.String(url)}); err != nil {
		return q.failure("delete queue", err)
	}
	return nil
}

func (q *queue) Enqueue(ctx context.Context, payload []byte) error {
	url, err := q.mustLookup(ctx, "enqueue")
	if err != nil {
		return err
	}
	_, err = q.svc.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(url),
		MessageBody: aws.String(base64.StdEncoding.EncodeToString(payload)),
	})
	if err != nil {
		return q.failure("enqueue", err)
	}
	return nil
}

func (q *queue) Dequeue(ctx context.Context) ([]byte, bool, error) {
	url, err := q.mustLookup(ctx, "dequeue")
	if err != nil {
		return nil, false, err
	}
	out, err := q.svc.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(url),
		MaxNumberOfMessages: 1,
		VisibilityTimeout:   q.svc.visibilityTimeout,
	})
	if err != nil {
		return nil, false, q.failure("dequeue", err)
	}
	if len(out.Messages) == 0 {
		return nil, false, nil
	}

	payload, err := base64.StdEncoding.DecodeString(aws.ToString(out.Messages[0].Body))
	if err != nil {
		return nil, false, errors.NewInvalidFormatError("message", fmt.Sprintf("queue %q returned a non base64 body", q.name), err)
	}
	return payload, true, nil
}

func (q *queue) mustLookup(ctx context.Context, op string) (string, error) {
	url, found, err := q.lookup(ctx)
	if err != nil {
		return "", err
	}
	if !found {
		return "", errors.NewRemoteFailureError(op, errors.KindQueue, q.name, http.StatusNotFound, "QueueNotFound", nil)
	}
	return url, nil
}

func (q *queue) failure(op string, err error) error {
	if isNonExistent(err) {
		q.forget()
		return errors.NewRemoteFailureError(op, errors.KindQueue, q.name, http.StatusNotFound, "QueueNotFound", err)
	}
	return awsutil.Failure(op, errors.KindQueue, q.name, err)
}

func isNonExistent(err error) bool {
	var dne *types.QueueDoesNotExist
	if stderrors.As(err, &dne) {
		return true
	}
	return awsutil.Code(err) == "AWS.SimpleQueueService.NonExistentQueue"
}

var _ datastore.QueueService = (*QueueService)(nil)
