/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/storagemodels"
)

type storedBlob struct {
	data        []byte
	contentType string
}

// BlobService is an in-memory datastore.BlobService
type BlobService struct {
	resources
	access map[string]storagemodels.PublicAccess
	blobs  map[string]map[string]storedBlob
}

// NewBlobService creates an empty in-memory blob service
func NewBlobService() *BlobService {
	return &BlobService{
		resources: newResources(errors.KindContainer, errors.CodeContainerBeingDeleted),
		access:    make(map[string]storagemodels.PublicAccess),
		blobs:     make(map[string]map[string]storedBlob),
	}
}

// Container implements datastore.BlobService
func (s *BlobService) Container(name string) datastore.Container {
	return &container{svc: s, name: name}
}

// Seed creates the named containers without counting create calls
func (s *BlobService) Seed(names ...string) *BlobService {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		s.exists[n] = true
	}
	return s
}

// Access returns the public access level recorded for the named container
func (s *BlobService) Access(name string) storagemodels.PublicAccess {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access[name]
}

// ContentType returns the content type stored with a blob
func (s *BlobService) ContentType(containerName, blob string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blobs[containerName][blob].contentType
}

type container struct {
	svc  *BlobService
	name string
}

func (c *container) Name() string { return c.name }

func (c *container) Exists(ctx context.Context) (bool, error) {
	c.svc.mu.Lock()
	defer c.svc.mu.Unlock()
	return c.svc.probeLocked(c.name)
}

func (c *container) CreateIfNotExists(ctx context.Context) error {
	c.svc.mu.Lock()
	defer c.svc.mu.Unlock()
	created, err := c.svc.createLocked(c.name)
	if created {
		c.svc.access[c.name] = storagemodels.PublicAccessNone
	}
	return err
}

func (c *container) Delete(ctx context.Context) error {
	c.svc.mu.Lock()
	defer c.svc.mu.Unlock()
	if !c.svc.dropLocked(c.name) {
		return notFound("delete container", errors.KindContainer, c.name, "ContainerNotFound")
	}
	delete(c.svc.blobs, c.name)
	delete(c.svc.access, c.name)
	return nil
}

func (c *container) SetPublicAccess(ctx context.Context, access storagemodels.PublicAccess) error {
	c.svc.mu.Lock()
	defer c.svc.mu.Unlock()
	if !c.svc.exists[c.name] {
		return notFound("set access policy", errors.KindContainer, c.name, "ContainerNotFound")
	}
	c.svc.access[c.name] = access
	return nil
}

func (c *container) Upload(ctx context.Context, blob string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read upload stream: %w", err)
	}

	c.svc.mu.Lock()
	defer c.svc.mu.Unlock()
	if !c.svc.exists[c.name] {
		return notFound("upload", errors.KindContainer, c.name, "ContainerNotFound")
	}
	if c.svc.blobs[c.name] == nil {
		c.svc.blobs[c.name] = make(map[string]storedBlob)
	}
	c.svc.blobs[c.name][blob] = storedBlob{data: data, contentType: contentType}
	return nil
}

func (c *container) Download(ctx context.Context, blob string) (io.ReadCloser, error) {
	c.svc.mu.Lock()
	defer c.svc.mu.Unlock()
	b, found := c.svc.blobs[c.name][blob]
	if !found {
		return nil, errors.NewRemoteFailureError("download", errors.KindBlob, c.name+"/"+blob, http.StatusNotFound, "BlobNotFound", nil)
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), b.data...))), nil
}

func (c *container) BlobURL(ctx context.Context, blob string) (string, error) {
	c.svc.mu.Lock()
	defer c.svc.mu.Unlock()
	if _, found := c.svc.blobs[c.name][blob]; !found {
		return "", errors.NewResourceNotFoundError(errors.KindBlob, c.name+"/"+blob)
	}
	return fmt.Sprintf("memory://%s/%s", c.name, blob), nil
}

var _ datastore.BlobService = (*BlobService)(nil)
