/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package awsutil holds the configuration and error mapping shared by the AWS drivers.
package awsutil

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/suparena/storagekit/account"
	"github.com/suparena/storagekit/errors"
)

// LoadConfig builds an aws.Config for acct. Static credentials are used when
// the account carries them, otherwise the default credential chain applies.
func LoadConfig(ctx context.Context, acct *account.Context) (aws.Config, error) {
	if acct == nil {
		return aws.Config{}, errors.NewInvalidArgumentError("account", "the account can not be nil")
	}

	optFns := []func(*config.LoadOptions) error{
		config.WithRegion(acct.Region),
	}
	if acct.AccessKeyID != "" && acct.SecretAccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(acct.AccessKeyID, acct.SecretAccessKey, acct.SessionToken)
		optFns = append(optFns, config.WithCredentialsProvider(creds))
	}

	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return cfg, nil
}

// Endpoint returns the endpoint override of acct, or nil when it has none
func Endpoint(acct *account.Context) *string {
	if acct == nil || acct.Endpoint == "" {
		return nil
	}
	return aws.String(acct.Endpoint)
}

// Code returns the API error code of err, or "" when it carries none
func Code(err error) string {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// Status returns the HTTP status of a failed call, or fallback when the error
// did not come from an HTTP response.
func Status(err error, fallback int) int {
	var respErr *smithyhttp.ResponseError
	if stderrors.As(err, &respErr) {
		return respErr.HTTPStatusCode()
	}
	return fallback
}

// Failure wraps an SDK error as a RemoteFailureError
func Failure(op, kind, name string, err error) error {
	return errors.NewRemoteFailureError(op, kind, name, Status(err, http.StatusInternalServerError), Code(err), err)
}
