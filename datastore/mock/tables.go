/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/storagemodels"
)

// TableService is an in-memory datastore.TableService. Entities are kept as
// JSON property bags, the same shape the Azure Table REST API uses.
type TableService struct {
	resources
	rows map[string]map[string]map[string]any
}

// NewTableService creates an empty in-memory table service
func NewTableService() *TableService {
	return &TableService{
		resources: newResources(errors.KindTable, errors.CodeTableBeingDeleted),
		rows:      make(map[string]map[string]map[string]any),
	}
}

// Table implements datastore.TableService
func (s *TableService) Table(name string) datastore.Table {
	return &table{svc: s, name: name}
}

// Seed creates the named tables without counting create calls
func (s *TableService) Seed(names ...string) *TableService {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		s.exists[n] = true
	}
	return s
}

// Count returns the number of entities stored in the named table
func (s *TableService) Count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows[name])
}

type table struct {
	svc  *TableService
	name string
}

func (t *table) Name() string { return t.name }

func (t *table) Exists(ctx context.Context) (bool, error) {
	t.svc.mu.Lock()
	defer t.svc.mu.Unlock()
	return t.svc.probeLocked(t.name)
}

func (t *table) CreateIfNotExists(ctx context.Context) error {
	t.svc.mu.Lock()
	defer t.svc.mu.Unlock()
	_, err := t.svc.createLocked(t.name)
	return err
}

func (t *table) Delete(ctx context.Context) error {
	t.svc.mu.Lock()
	defer t.svc.mu.Unlock()
	if !t.svc.dropLocked(t.name) {
		return notFound("delete table", errors.KindTable, t.name, "TableNotFound")
	}
	delete(t.svc.rows, t.name)
	return nil
}

func (t *table) Insert(ctx context.Context, entity storagemodels.Entity) (int, error) {
	return t.write("insert", entity, func(current map[string]any, found bool, props map[string]any) (map[string]any, error) {
		if found {
			return nil, t.failure("insert", entity, http.StatusConflict, "EntityAlreadyExists")
		}
		return props, nil
	})
}

func (t *table) InsertOrMerge(ctx context.Context, entity storagemodels.Entity) (int, error) {
	return t.write("insert or merge", entity, func(current map[string]any, found bool, props map[string]any) (map[string]any, error) {
		return merge(current, props), nil
	})
}

func (t *table) InsertOrReplace(ctx context.Context, entity storagemodels.Entity) (int, error) {
	return t.write("insert or replace", entity, func(current map[string]any, found bool, props map[string]any) (map[string]any, error) {
		return props, nil
	})
}

func (t *table) Merge(ctx context.Context, entity storagemodels.Entity) (int, error) {
	return t.write("merge", entity, func(current map[string]any, found bool, props map[string]any) (map[string]any, error) {
		if !found {
			return nil, t.failure("merge", entity, http.StatusNotFound, "ResourceNotFound")
		}
		return merge(current, props), nil
	})
}

func (t *table) Replace(ctx context.Context, entity storagemodels.Entity) (int, error) {
	return t.write("replace", entity, func(current map[string]any, found bool, props map[string]any) (map[string]any, error) {
		if !found {
			return nil, t.failure("replace", entity, http.StatusNotFound, "ResourceNotFound")
		}
		return props, nil
	})
}

func (t *table) DeleteEntity(ctx context.Context, entity storagemodels.Entity) (int, error) {
	t.svc.mu.Lock()
	defer t.svc.mu.Unlock()

	if !t.svc.exists[t.name] {
		return http.StatusNotFound, notFound("delete", errors.KindTable, t.name, "TableNotFound")
	}
	key := rowKey(entity.Keys())
	if _, found := t.svc.rows[t.name][key]; !found {
		return http.StatusNotFound, t.failure("delete", entity, http.StatusNotFound, "ResourceNotFound")
	}
	delete(t.svc.rows[t.name], key)
	return http.StatusNoContent, nil
}

func (t *table) Retrieve(ctx context.Context, partitionKey, rk string, out any) (bool, error) {
	t.svc.mu.Lock()
	defer t.svc.mu.Unlock()

	if !t.svc.exists[t.name] {
		return false, notFound("retrieve", errors.KindTable, t.name, "TableNotFound")
	}
	props, found := t.svc.rows[t.name][rowKey(partitionKey, rk)]
	if !found {
		return false, nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return false, fmt.Errorf("failed to encode stored entity: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode entity: %w", err)
	}
	return true, nil
}

type applyFunc func(current map[string]any, found bool, props map[string]any) (map[string]any, error)

func (t *table) write(op string, entity storagemodels.Entity, apply applyFunc) (int, error) {
	props, err := toProperties(entity)
	if err != nil {
		return http.StatusBadRequest, errors.NewRemoteFailureError(op, errors.KindEntity, t.name, http.StatusBadRequest, "InvalidInput", err)
	}

	t.svc.mu.Lock()
	defer t.svc.mu.Unlock()

	if !t.svc.exists[t.name] {
		return http.StatusNotFound, notFound(op, errors.KindTable, t.name, "TableNotFound")
	}
	rows := t.svc.rows[t.name]
	if rows == nil {
		rows = make(map[string]map[string]any)
		t.svc.rows[t.name] = rows
	}

	key := rowKey(entity.Keys())
	current, found := rows[key]
	next, err := apply(current, found, props)
	if err != nil {
		return errors.StatusCode(err), err
	}
	rows[key] = next
	return http.StatusNoContent, nil
}

func (t *table) failure(op string, entity storagemodels.Entity, status int, code string) error {
	pk, rk := entity.Keys()
	return errors.NewRemoteFailureError(op, errors.KindEntity, t.name+"/"+pk+"/"+rk, status, code, nil)
}

func toProperties(entity storagemodels.Entity) (map[string]any, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, err
	}
	props := make(map[string]any)
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, err
	}
	return props, nil
}

func merge(current, props map[string]any) map[string]any {
	out := make(map[string]any, len(current)+len(props))
	for k, v := range current {
		out[k] = v
	}
	for k, v := range props {
		out[k] = v
	}
	return out
}

func rowKey(partitionKey, rk string) string {
	return partitionKey + "\x00" + rk
}
