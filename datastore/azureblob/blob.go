/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package azureblob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"

	"github.com/suparena/storagekit/account"
	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/datastore/azureutil"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/registry"
	"github.com/suparena/storagekit/storagemodels"
)

// DriverName is the registry name of the Azure Blob driver
const DriverName = "azureblob"

func init() {
	registry.RegisterBlobDriver(DriverName, func(ctx context.Context, acct *account.Context) (datastore.BlobService, error) {
		client, err := NewClient(acct)
		if err != nil {
			return nil, err
		}
		return NewBlobService(client.ServiceClient()), nil
	})
}

// NewClient creates a blob client for acct. Shared key accounts use the
// connection string, SAS accounts sign with the token, and accounts with
// neither authenticate through azidentity's default credential chain.
func NewClient(acct *account.Context) (*azblob.Client, error) {
	if acct == nil {
		return nil, errors.NewInvalidArgumentError("account", "the account can not be nil")
	}

	var (
		client *azblob.Client
		err    error
	)
	switch {
	case acct.AccountKey != "":
		client, err = azblob.NewClientFromConnectionString(acct.AzureConnectionString(), nil)
	case acct.SharedAccessSignature != "":
		serviceURL := strings.TrimSuffix(acct.BlobEndpoint, "/") + "/?" + strings.TrimPrefix(acct.SharedAccessSignature, "?")
		client, err = azblob.NewClientWithNoCredential(serviceURL, nil)
	default:
		cred, cerr := azidentity.NewDefaultAzureCredential(nil)
		if cerr != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", cerr)
		}
		client, err = azblob.NewClient(acct.BlobEndpoint, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	slog.Default().Debug("Azure Blob client initialized", "account", acct.AccountName, "endpoint", acct.BlobEndpoint)
	return client, nil
}

// BlobService implements datastore.BlobService on Azure Blob Storage.
type BlobService struct {
	client *service.Client
}

// NewBlobService creates a blob service on client
func NewBlobService(client *service.Client) *BlobService {
	return &BlobService{client: client}
}

// Container implements datastore.BlobService
func (s *BlobService) Container(name string) datastore.Container {
	return &blobContainer{name: name, client: s.client.NewContainerClient(name)}
}

type blobContainer struct {
	name   string
	client *container.Client
}

func (c *blobContainer) Name() string { return c.name }

func (c *blobContainer) Exists(ctx context.Context) (bool, error) {
	_, err := c.client.GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	if bloberror.HasCode(err, bloberror.ContainerNotFound, bloberror.ContainerBeingDeleted) {
		return false, nil
	}
	return false, azureutil.Failure("get container properties", errors.KindContainer, c.name, err)
}

func (c *blobContainer) CreateIfNotExists(ctx context.Context) error {
	_, err := c.client.Create(ctx, nil)
	if err == nil || bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return nil
	}
	return azureutil.Failure("create container", errors.KindContainer, c.name, err)
}

func (c *blobContainer) Delete(ctx context.Context) error {
	if _, err := c.client.Delete(ctx, nil); err != nil {
		return azureutil.Failure("delete container", errors.KindContainer, c.name, err)
	}
	return nil
}

func (c *blobContainer) SetPublicAccess(ctx context.Context, access storagemodels.PublicAccess) error {
	opts := &container.SetAccessPolicyOptions{}
	switch access {
	case storagemodels.PublicAccessNone:
	case storagemodels.PublicAccessBlob:
		opts.Access = to.Ptr(container.PublicAccessTypeBlob)
	case storagemodels.PublicAccessContainer:
		opts.Access = to.Ptr(container.PublicAccessTypeContainer)
	default:
		return errors.NewInvalidArgumentError("access", fmt.Sprintf("unknown public access level %q", access))
	}

	if _, err := c.client.SetAccessPolicy(ctx, opts); err != nil {
		return azureutil.Failure("set public access", errors.KindContainer, c.name, err)
	}
	return nil
}

func (c *blobContainer) Upload(ctx context.Context, name string, r io.Reader, contentType string) error {
	opts := &blockblob.UploadStreamOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)}
	}
	if _, err := c.client.NewBlockBlobClient(name).UploadStream(ctx, r, opts); err != nil {
		return azureutil.Failure("upload", errors.KindBlob, c.name+"/"+name, err)
	}
	return nil
}

func (c *blobContainer) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := c.client.NewBlobClient(name).DownloadStream(ctx, nil)
	if err != nil {
		return nil, azureutil.Failure("download", errors.KindBlob, c.name+"/"+name, err)
	}
	return resp.Body, nil
}

func (c *blobContainer) BlobURL(ctx context.Context, name string) (string, error) {
	bc := c.client.NewBlobClient(name)
	if _, err := bc.GetProperties(ctx, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) || azureutil.Status(err, 0) == http.StatusNotFound {
			return "", errors.NewResourceNotFoundError(errors.KindBlob, c.name+"/"+name)
		}
		return "", azureutil.Failure("blob url", errors.KindBlob, c.name+"/"+name, err)
	}
	return bc.URL(), nil
}

var _ datastore.BlobService = (*BlobService)(nil)
