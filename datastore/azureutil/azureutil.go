/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package azureutil maps Azure SDK failures onto storagekit errors.
package azureutil

import (
	stderrors "errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/suparena/storagekit/errors"
)

// Code returns the x-ms-error-code of err, or "" when err is not a service response
func Code(err error) string {
	var respErr *azcore.ResponseError
	if stderrors.As(err, &respErr) {
		return respErr.ErrorCode
	}
	return ""
}

// Status returns the HTTP status of err, or fallback when err is not a service response
func Status(err error, fallback int) int {
	var respErr *azcore.ResponseError
	if stderrors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return fallback
}

// Failure wraps err as a RemoteFailureError. A 409 carrying one of the
// being-deleted codes becomes the conflict the handle creator retries.
func Failure(op, kind, name string, err error) error {
	status := Status(err, http.StatusServiceUnavailable)
	code := Code(err)
	if status == http.StatusConflict {
		switch code {
		case errors.CodeTableBeingDeleted, errors.CodeQueueBeingDeleted, errors.CodeContainerBeingDeleted:
			return errors.NewBeingDeletedError(kind, name, code, err)
		}
	}
	return errors.NewRemoteFailureError(op, kind, name, status, code, err)
}
