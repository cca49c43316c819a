/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package blobs_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/storagekit/blobs"
	"github.com/suparena/storagekit/datastore/mock"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/storagemodels"
)

func TestUploadDownload(t *testing.T) {
	ctx := context.Background()
	svc := mock.NewBlobService()
	helper := blobs.New(svc)

	name, err := helper.Upload(ctx, "images", "cat.png", strings.NewReader("meow"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "cat.png", name)
	assert.Equal(t, storagemodels.PublicAccessContainer, svc.Access("images"))
	assert.Equal(t, "image/png", svc.ContentType("images", "cat.png"))

	rc, err := helper.Download(ctx, "images", "cat.png")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "meow", string(data))

	url, err := helper.BlobURL(ctx, "images", "cat.png")
	require.NoError(t, err)
	assert.Equal(t, "memory://images/cat.png", url)

	assert.Equal(t, 1, svc.CreateCalls("images"))
}

func TestBlobURLMissing(t *testing.T) {
	helper := blobs.New(mock.NewBlobService())

	_, err := helper.BlobURL(context.Background(), "images", "missing.png")
	assert.True(t, errors.IsNotFound(err))
}

func TestPublicAccessOption(t *testing.T) {
	ctx := context.Background()
	svc := mock.NewBlobService()
	helper := blobs.New(svc, storagemodels.WithPublicAccess(storagemodels.PublicAccessNone))

	_, err := helper.GetContainer(ctx, "private")
	require.NoError(t, err)
	assert.Equal(t, storagemodels.PublicAccessNone, svc.Access("private"))
}

func TestContainerBeingDeleted(t *testing.T) {
	ctx := context.Background()
	svc := mock.NewBlobService()
	svc.BeingDeleted("images", 2)
	helper := blobs.New(svc, storagemodels.WithRetryPolicy(storagemodels.RetryPolicy{MaxAttempts: 5, Interval: time.Millisecond}))

	_, err := helper.GetContainer(ctx, "images")
	require.NoError(t, err)
	assert.Equal(t, 3, svc.CreateCalls("images"))
	assert.Equal(t, storagemodels.PublicAccessContainer, svc.Access("images"))

	require.NoError(t, helper.DeleteContainer(ctx, "images"))
	assert.False(t, svc.Has("images"))
}

func TestCreateFailure(t *testing.T) {
	svc := mock.NewBlobService()
	svc.FailCreate("images", fmt.Errorf("dial tcp 127.0.0.1:10000: connection refused"))
	helper := blobs.New(svc)

	_, err := helper.Upload(context.Background(), "images", "cat.png", strings.NewReader("x"), "")
	assert.True(t, errors.IsUnavailable(err))
	assert.Equal(t, 1, svc.CreateCalls("images"))
}

func TestValidation(t *testing.T) {
	ctx := context.Background()

	_, err := blobs.New(nil).GetContainer(ctx, "images")
	assert.True(t, errors.IsUnavailable(err))

	helper := blobs.New(mock.NewBlobService())
	_, err = helper.GetContainer(ctx, "")
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = helper.BlobURL(ctx, "images", "")
	assert.True(t, errors.IsInvalidArgument(err))

	_, err = helper.Upload(ctx, "images", "a", nil, "")
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestGenerateUniqueFilename(t *testing.T) {
	a := blobs.GenerateUniqueFilename("report.pdf")
	b := blobs.GenerateUniqueFilename("report.pdf")

	assert.True(t, strings.HasPrefix(a, "report.pdf_"))
	assert.NotEqual(t, a, b)
	assert.Len(t, strings.Split(a, "_"), 3)
}
