/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tables

import (
	"context"

	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/storagemodels"
)

// DeleteTable deletes the remote table behind a reference. Helpers that
// cached the reference keep it; use Tables.DeleteTable to drop both.
func DeleteTable(ctx context.Context, table datastore.Table) error {
	if table == nil {
		return errors.NewInvalidArgumentError("table", "the table reference can not be nil")
	}
	return table.Delete(ctx)
}

// InsertEntity adds entity to table. An existing key fails with 409.
func InsertEntity(ctx context.Context, table datastore.Table, entity storagemodels.Entity) (int, error) {
	if err := checkHandle(table, entity); err != nil {
		return 0, err
	}
	return table.Insert(ctx, entity)
}

// InsertOrMergeEntity upserts entity into table, keeping properties it does not set
func InsertOrMergeEntity(ctx context.Context, table datastore.Table, entity storagemodels.Entity) (int, error) {
	if err := checkHandle(table, entity); err != nil {
		return 0, err
	}
	return table.InsertOrMerge(ctx, entity)
}

// InsertOrReplaceEntity upserts entity into table, replacing the stored properties
func InsertOrReplaceEntity(ctx context.Context, table datastore.Table, entity storagemodels.Entity) (int, error) {
	if err := checkHandle(table, entity); err != nil {
		return 0, err
	}
	return table.InsertOrReplace(ctx, entity)
}

// MergeEntity updates an existing entity in table
func MergeEntity(ctx context.Context, table datastore.Table, entity storagemodels.Entity) (int, error) {
	if err := checkHandle(table, entity); err != nil {
		return 0, err
	}
	return table.Merge(ctx, entity)
}

// ReplaceEntity overwrites an existing entity in table
func ReplaceEntity(ctx context.Context, table datastore.Table, entity storagemodels.Entity) (int, error) {
	if err := checkHandle(table, entity); err != nil {
		return 0, err
	}
	return table.Replace(ctx, entity)
}

// DeleteEntity removes entity from table
func DeleteEntity(ctx context.Context, table datastore.Table, entity storagemodels.Entity) (int, error) {
	if err := checkHandle(table, entity); err != nil {
		return 0, err
	}
	return table.DeleteEntity(ctx, entity)
}

// GetEntity reads the entity with the given key from table into a new T.
// It returns nil, nil when no entity has the key.
func GetEntity[T any](ctx context.Context, table datastore.Table, partitionKey, rowKey string) (*T, error) {
	if table == nil {
		return nil, errors.NewInvalidArgumentError("table", "the table reference can not be nil")
	}

	out := new(T)
	found, err := table.Retrieve(ctx, partitionKey, rowKey, out)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return out, nil
}

func checkHandle(table datastore.Table, entity storagemodels.Entity) error {
	if table == nil {
		return errors.NewInvalidArgumentError("table", "the table reference can not be nil")
	}
	return checkEntity(entity)
}
