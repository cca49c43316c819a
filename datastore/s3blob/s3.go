/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/suparena/storagekit/account"
	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/datastore/awsutil"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/registry"
	"github.com/suparena/storagekit/storagemodels"
)

// DriverName is the registry name of the S3 blob driver
const DriverName = "s3blob"

// DefaultURLExpiry is how long a URL returned by BlobURL stays valid
const DefaultURLExpiry = time.Hour

func init() {
	registry.RegisterBlobDriver(DriverName, func(ctx context.Context, acct *account.Context) (datastore.BlobService, error) {
		client, err := NewClient(ctx, acct)
		if err != nil {
			return nil, err
		}
		return NewBlobService(client, s3.NewPresignClient(client), acct.Region), nil
	})
}

// API is the subset of the S3 client used by the driver
type API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	DeleteBucket(ctx context.Context, params *s3.DeleteBucketInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketOutput, error)
	PutBucketPolicy(ctx context.Context, params *s3.PutBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error)
	DeleteBucketPolicy(ctx context.Context, params *s3.DeleteBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.DeleteBucketPolicyOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Presigner signs object download URLs
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// NewClient creates an S3 client for acct. A custom endpoint switches to
// path-style addressing, as emulators such as MinIO and LocalStack expect.
func NewClient(ctx context.Context, acct *account.Context) (*s3.Client, error) {
	cfg, err := awsutil.LoadConfig(ctx, acct)
	if err != nil {
		return nil, err
	}

	var s3Options []func(*s3.Options)
	if endpoint := awsutil.Endpoint(acct); endpoint != nil {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = endpoint
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(cfg, s3Options...)
	slog.Default().Debug("S3 client initialized", "region", cfg.Region, "endpoint", acct.Endpoint)
	return client, nil
}

// BlobService implements datastore.BlobService on Amazon S3, with one bucket per container.
type BlobService struct {
	client    API
	presigner Presigner
	region    string
	expiry    time.Duration
}

// NewBlobService creates a blob service. region is used as the bucket location constraint.
func NewBlobService(client API, presigner Presigner, region string) *BlobService {
	return &BlobService{client: client, presigner: presigner, region: region, expiry: DefaultURLExpiry}
}

// WithURLExpiry sets the lifetime of URLs returned by BlobURL
func (s *BlobService) WithURLExpiry(d time.Duration) *BlobService {
	s.expiry = d
	return s
}

// Container implements datastore.BlobService
func (s *BlobService) Container(name string) datastore.Container {
	return &bucket{svc: s, name: name}
}

type bucket struct {
	svc  *BlobService
	name string
}

func (b *bucket) Name() string { return b.name }

func (b *bucket) Exists(ctx context.Context) (bool, error) {
	_, err := b.svc.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.name)})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if stderrors.As(err, &nf) || awsutil.Status(err, 0) == http.StatusNotFound {
		return false, nil
	}
	return false, awsutil.Failure("head bucket", errors.KindContainer, b.name, err)
}

func (b *bucket) CreateIfNotExists(ctx context.Context) error {
	input := &s3.CreateBucketInput{Bucket: aws.String(b.name)}
	if b.svc.region != "" && b.svc.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(b.svc.region),
		}
	}

	_, err := b.svc.client.CreateBucket(ctx, input)
	if err == nil {
		return nil
	}
	var owned *types.BucketAlreadyOwnedByYou
	if stderrors.As(err, &owned) {
		return nil
	}
	if awsutil.Code(err) == "OperationAborted" {
		return errors.NewBeingDeletedError(errors.KindContainer, b.name, errors.CodeContainerBeingDeleted, err)
	}
	return awsutil.Failure("create bucket", errors.KindContainer, b.name, err)
}

func (b *bucket) Delete(ctx context.Context) error {
	if _, err := b.svc.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(b.name)}); err != nil {
		return b.failure("delete bucket", b.name, err)
	}
	return nil
}

type policyStatement struct {
	Sid       string `json:"Sid"`
	Effect    string `json:"Effect"`
	Principal string `json:"Principal"`
	Action    string `json:"Action"`
	Resource  string `json:"Resource"`
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// bucketPolicy renders the anonymous read policy for access
func bucketPolicy(name string, access storagemodels.PublicAccess) (string, error) {
	doc := policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Sid: "PublicReadBlob", Effect: "Allow", Principal: "*",
			Action: "s3:GetObject", Resource: "arn:aws:s3:::" + name + "/*",
		}},
	}
	if access == storagemodels.PublicAccessContainer {
		doc.Statement = append(doc.Statement, policyStatement{
			Sid: "PublicListContainer", Effect: "Allow", Principal: "*",
			Action: "s3:ListBucket", Resource: "arn:aws:s3:::" + name,
		})
	}
	data, err := json.Marshal(doc)
	return string(data), err
}

// SetPublicAccess maps the access level to a bucket policy. The account's
// public access block must allow bucket policies for this to take effect.
func (b *bucket) SetPublicAccess(ctx context.Context, access storagemodels.PublicAccess) error {
	if !access.Valid() {
		return errors.NewInvalidArgumentError("access", fmt.Sprintf("unknown public access level %q", access))
	}

	if access == storagemodels.PublicAccessNone {
		_, err := b.svc.client.DeleteBucketPolicy(ctx, &s3.DeleteBucketPolicyInput{Bucket: aws.String(b.name)})
		if err != nil && awsutil.Code(err) != "NoSuchBucketPolicy" {
			return b.failure("set public access", b.name, err)
		}
		return nil
	}

	policy, err := bucketPolicy(b.name, access)
	if err != nil {
		return fmt.Errorf("failed to render bucket policy: %w", err)
	}
	if _, err := b.svc.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(b.name),
		Policy: aws.String(policy),
	}); err != nil {
		return b.failure("set public access", b.name, err)
	}
	return nil
}

func (b *bucket) Upload(ctx context.Context, blob string, r io.Reader, contentType string) error {
	body, ok := r.(io.ReadSeeker)
	if !ok {
		// the SDK needs a seekable body to compute the payload hash
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("failed to read blob %q: %w", blob, err)
		}
		body = bytes.NewReader(data)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(blob),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := b.svc.client.PutObject(ctx, input); err != nil {
		return b.failure("upload", b.name+"/"+blob, err)
	}
	return nil
}

func (b *bucket) Download(ctx context.Context, blob string) (io.ReadCloser, error) {
	out, err := b.svc.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(blob),
	})
	if err != nil {
		return nil, b.failure("download", b.name+"/"+blob, err)
	}
	return out.Body, nil
}

// BlobURL checks that the object exists and returns a presigned GET URL, or
// the plain object URL when no presigner is configured.
func (b *bucket) BlobURL(ctx context.Context, blob string) (string, error) {
	_, err := b.svc.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(blob),
	})
	if err != nil {
		var nf *types.NotFound
		if stderrors.As(err, &nf) || awsutil.Status(err, 0) == http.StatusNotFound {
			return "", errors.NewResourceNotFoundError(errors.KindBlob, b.name+"/"+blob)
		}
		return "", b.failure("blob url", b.name+"/"+blob, err)
	}

	if b.svc.presigner == nil {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", b.name, strings.TrimPrefix(blob, "/")), nil
	}
	req, err := b.svc.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.name),
		Key:    aws.String(blob),
	}, s3.WithPresignExpires(b.svc.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s/%s: %w", b.name, blob, err)
	}
	return req.URL, nil
}

func (b *bucket) failure(op, name string, err error) error {
	var noKey *types.NoSuchKey
	var noBucket *types.NoSuchBucket
	switch {
	case stderrors.As(err, &noKey):
		return errors.NewRemoteFailureError(op, errors.KindBlob, name, http.StatusNotFound, "BlobNotFound", err)
	case stderrors.As(err, &noBucket):
		return errors.NewRemoteFailureError(op, errors.KindContainer, b.name, http.StatusNotFound, "ContainerNotFound", err)
	}
	return awsutil.Failure(op, errors.KindContainer, name, err)
}

var _ datastore.BlobService = (*BlobService)(nil)
