/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tables

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/handle"
	"github.com/suparena/storagekit/storagemodels"
)

// Tables resolves table references by name and runs entity operations on them.
type Tables struct {
	service datastore.TableService
	cache   *handle.Cache[datastore.Table]
	logger  *slog.Logger
}

// New creates a Tables helper over service. A nil service yields a helper
// whose operations fail with a ResourceUnavailableError.
func New(service datastore.TableService, opts ...storagemodels.Option) *Tables {
	options := storagemodels.ApplyOptions(opts...)

	var resolve func(string) datastore.Table
	if service != nil {
		resolve = service.Table
	}

	return &Tables{
		service: service,
		cache:   handle.NewCache(errors.KindTable, resolve, handle.NewCreator(options), options.Observer),
		logger:  options.Logger,
	}
}

// GetTable returns the cached reference for name, creating the table when
// createIfMissing is set. A missing table is reported as ResourceNotFound.
func (t *Tables) GetTable(ctx context.Context, name string, createIfMissing bool) (datastore.Table, error) {
	table, ok, err := t.cache.GetOrCreate(ctx, name, createIfMissing)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewResourceNotFoundError(errors.KindTable, name)
	}
	return table, nil
}

// CreateTable creates the named table if needed and caches its reference
func (t *Tables) CreateTable(ctx context.Context, name string) (datastore.Table, error) {
	return t.GetTable(ctx, name, true)
}

// TableExists reports whether the named table exists. Cached tables are not probed again.
func (t *Tables) TableExists(ctx context.Context, name string) (bool, error) {
	if err := t.check(name); err != nil {
		return false, err
	}
	if _, found := t.cache.Get(name); found {
		return true, nil
	}
	exists, err := t.service.Table(name).Exists(ctx)
	if err != nil {
		return false, errors.NewResourceUnavailableError(errors.KindTable, name, err)
	}
	return exists, nil
}

// DeleteTable deletes the named table and forgets its cached reference
func (t *Tables) DeleteTable(ctx context.Context, name string) error {
	if err := t.check(name); err != nil {
		return err
	}
	if err := DeleteTable(ctx, t.service.Table(name)); err != nil {
		return err
	}
	t.cache.Remove(name)
	t.logger.Info("table deleted", "table", name)
	return nil
}

// Tables returns the names of the cached table references
func (t *Tables) Tables() []string {
	return t.cache.Names()
}

// Insert adds entity to the named table. An existing key fails with 409.
func (t *Tables) Insert(ctx context.Context, tableName string, entity storagemodels.Entity) (int, error) {
	table, err := t.resolveFor(ctx, tableName, entity)
	if err != nil {
		return 0, err
	}
	return table.Insert(ctx, entity)
}

// InsertOrMerge upserts entity, keeping properties it does not set
func (t *Tables) InsertOrMerge(ctx context.Context, tableName string, entity storagemodels.Entity) (int, error) {
	table, err := t.resolveFor(ctx, tableName, entity)
	if err != nil {
		return 0, err
	}
	return table.InsertOrMerge(ctx, entity)
}

// InsertOrReplace upserts entity, replacing the stored properties
func (t *Tables) InsertOrReplace(ctx context.Context, tableName string, entity storagemodels.Entity) (int, error) {
	table, err := t.resolveFor(ctx, tableName, entity)
	if err != nil {
		return 0, err
	}
	return table.InsertOrReplace(ctx, entity)
}

// Merge updates an existing entity, keeping properties it does not set
func (t *Tables) Merge(ctx context.Context, tableName string, entity storagemodels.Entity) (int, error) {
	table, err := t.resolveFor(ctx, tableName, entity)
	if err != nil {
		return 0, err
	}
	return table.Merge(ctx, entity)
}

// Replace overwrites an existing entity
func (t *Tables) Replace(ctx context.Context, tableName string, entity storagemodels.Entity) (int, error) {
	table, err := t.resolveFor(ctx, tableName, entity)
	if err != nil {
		return 0, err
	}
	return table.Replace(ctx, entity)
}

// Delete removes entity from the named table
func (t *Tables) Delete(ctx context.Context, tableName string, entity storagemodels.Entity) (int, error) {
	table, err := t.resolveFor(ctx, tableName, entity)
	if err != nil {
		return 0, err
	}
	return table.DeleteEntity(ctx, entity)
}

// RetrieveEntity reads one entity from the named table. It returns nil, nil
// when no entity has the key.
func RetrieveEntity[T any](ctx context.Context, t *Tables, tableName, partitionKey, rowKey string) (*T, error) {
	if t == nil {
		return nil, errors.NewInvalidArgumentError("tables", "the helper can not be nil")
	}
	table, err := t.resolve(ctx, tableName)
	if err != nil {
		return nil, err
	}
	return GetEntity[T](ctx, table, partitionKey, rowKey)
}

// resolve validates the call and returns the table reference without creating it
func (t *Tables) resolve(ctx context.Context, name string) (datastore.Table, error) {
	if err := t.check(name); err != nil {
		return nil, err
	}
	return t.GetTable(ctx, name, false)
}

func (t *Tables) resolveFor(ctx context.Context, name string, entity storagemodels.Entity) (datastore.Table, error) {
	if err := t.check(name); err != nil {
		return nil, err
	}
	if err := checkEntity(entity); err != nil {
		return nil, err
	}
	return t.GetTable(ctx, name, false)
}

func (t *Tables) check(name string) error {
	if t.service == nil {
		return errors.NewResourceUnavailableError(errors.KindTable, name, nil)
	}
	if name == "" {
		return errors.NewInvalidArgumentError("table name", "the name can not be empty")
	}
	return nil
}

func checkEntity(entity storagemodels.Entity) error {
	if entity == nil {
		return errors.NewInvalidArgumentError("entity", "the entity can not be nil")
	}
	if v := reflect.ValueOf(entity); v.Kind() == reflect.Pointer && v.IsNil() {
		return errors.NewInvalidArgumentError("entity", "the entity can not be nil")
	}
	return nil
}
