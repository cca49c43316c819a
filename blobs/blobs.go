/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package blobs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/handle"
	"github.com/suparena/storagekit/storagemodels"
)

// Blobs resolves blob containers by name and moves blob content in and out of them.
// Containers are created on first use and given the configured public access level.
type Blobs struct {
	service datastore.BlobService
	cache   *handle.Cache[datastore.Container]
	access  storagemodels.PublicAccess
	logger  *slog.Logger
}

// New creates a Blobs helper over service. A nil service yields a helper
// whose operations fail with a ResourceUnavailableError.
func New(service datastore.BlobService, opts ...storagemodels.Option) *Blobs {
	options := storagemodels.ApplyOptions(opts...)
	b := &Blobs{
		service: service,
		access:  options.PublicAccess,
		logger:  options.Logger,
	}

	var resolve func(string) datastore.Container
	if service != nil {
		resolve = b.container
	}
	b.cache = handle.NewCache(errors.KindContainer, resolve, handle.NewCreator(options), options.Observer)
	return b
}

// provisioned applies the access level as part of creation, so a container is
// only cached once its policy is in place.
type provisioned struct {
	datastore.Container
	access storagemodels.PublicAccess
	logger *slog.Logger
}

func (p *provisioned) CreateIfNotExists(ctx context.Context) error {
	if err := p.Container.CreateIfNotExists(ctx); err != nil {
		return err
	}
	if err := p.SetPublicAccess(ctx, p.access); err != nil {
		return err
	}
	p.logger.Debug("container ready", "container", p.Name(), "access", p.access)
	return nil
}

func (b *Blobs) container(name string) datastore.Container {
	return &provisioned{Container: b.service.Container(name), access: b.access, logger: b.logger}
}

// GetContainer returns the cached reference for name, creating the container if needed
func (b *Blobs) GetContainer(ctx context.Context, name string) (datastore.Container, error) {
	if err := b.check(name); err != nil {
		return nil, err
	}
	c, _, err := b.cache.GetOrCreate(ctx, name, true)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteContainer deletes the named container and forgets its cached reference
func (b *Blobs) DeleteContainer(ctx context.Context, name string) error {
	if err := b.check(name); err != nil {
		return err
	}
	if err := b.service.Container(name).Delete(ctx); err != nil {
		return err
	}
	b.cache.Remove(name)
	return nil
}

// Upload stores the content of r as blob in the named container and returns the blob name
func (b *Blobs) Upload(ctx context.Context, containerName, blob string, r io.Reader, contentType string) (string, error) {
	if r == nil {
		return "", errors.NewInvalidArgumentError("content", "the reader can not be nil")
	}
	c, err := b.resolve(ctx, containerName, blob)
	if err != nil {
		return "", err
	}
	if err := c.Upload(ctx, blob, r, contentType); err != nil {
		return "", err
	}
	return blob, nil
}

// Download opens the content of a blob. The caller closes the reader.
func (b *Blobs) Download(ctx context.Context, containerName, blob string) (io.ReadCloser, error) {
	c, err := b.resolve(ctx, containerName, blob)
	if err != nil {
		return nil, err
	}
	return c.Download(ctx, blob)
}

// BlobURL returns the URL of an existing blob. A missing blob is reported as
// a ResourceNotFoundError.
func (b *Blobs) BlobURL(ctx context.Context, containerName, blob string) (string, error) {
	c, err := b.resolve(ctx, containerName, blob)
	if err != nil {
		return "", err
	}
	url, err := c.BlobURL(ctx, blob)
	if err != nil {
		b.logger.Warn("blob url lookup failed", "container", containerName, "blob", blob, "error", err)
		return "", err
	}
	return url, nil
}

// GenerateUniqueFilename decorates name with a random UUID and the current time
func GenerateUniqueFilename(name string) string {
	return fmt.Sprintf("%s_%s_%d", name, uuid.NewString(), time.Now().UnixNano())
}

func (b *Blobs) resolve(ctx context.Context, containerName, blob string) (datastore.Container, error) {
	if blob == "" {
		return nil, errors.NewInvalidArgumentError("blob name", "the name can not be empty")
	}
	return b.GetContainer(ctx, containerName)
}

func (b *Blobs) check(name string) error {
	if b.service == nil {
		return errors.NewResourceUnavailableError(errors.KindContainer, name, nil)
	}
	if name == "" {
		return errors.NewInvalidArgumentError("container name", "the name can not be empty")
	}
	return nil
}
