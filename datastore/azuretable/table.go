/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package azuretable

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/suparena/storagekit/account"
	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/datastore/azureutil"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/registry"
	"github.com/suparena/storagekit/storagemodels"
)

// DriverName is the registry name of the Azure Tables driver
const DriverName = "azuretable"

func init() {
	registry.RegisterTableDriver(DriverName, func(ctx context.Context, acct *account.Context) (datastore.TableService, error) {
		client, err := NewServiceClient(acct)
		if err != nil {
			return nil, err
		}
		return NewTableService(client), nil
	})
}

// NewServiceClient creates a table service client for acct
func NewServiceClient(acct *account.Context) (*aztables.ServiceClient, error) {
	if acct == nil {
		return nil, errors.NewInvalidArgumentError("account", "the account can not be nil")
	}

	var (
		client *aztables.ServiceClient
		err    error
	)
	switch {
	case acct.AccountKey != "":
		client, err = aztables.NewServiceClientFromConnectionString(acct.AzureConnectionString(), nil)
	case acct.SharedAccessSignature != "":
		serviceURL := strings.TrimSuffix(acct.TableEndpoint, "/") + "/?" + strings.TrimPrefix(acct.SharedAccessSignature, "?")
		client, err = aztables.NewServiceClientWithNoCredential(serviceURL, nil)
	default:
		cred, cerr := azidentity.NewDefaultAzureCredential(nil)
		if cerr != nil {
			return nil, fmt.Errorf("failed to create Azure credential: %w", cerr)
		}
		client, err = aztables.NewServiceClient(acct.TableEndpoint, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create table client: %w", err)
	}

	slog.Default().Debug("Azure Tables client initialized", "account", acct.AccountName, "endpoint", acct.TableEndpoint)
	return client, nil
}

// TableService implements datastore.TableService on Azure Table Storage.
type TableService struct {
	client *aztables.ServiceClient
}

// NewTableService creates a table service on client
func NewTableService(client *aztables.ServiceClient) *TableService {
	return &TableService{client: client}
}

// Table implements datastore.TableService
func (s *TableService) Table(name string) datastore.Table {
	return &table{svc: s, name: name, client: s.client.NewClient(name)}
}

type table struct {
	svc    *TableService
	name   string
	client *aztables.Client
}

func (t *table) Name() string { return t.name }

func (t *table) Exists(ctx context.Context) (bool, error) {
	filter := fmt.Sprintf("TableName eq '%s'", strings.ReplaceAll(t.name, "'", "''"))
	pager := t.svc.client.NewListTablesPager(&aztables.ListTablesOptions{Filter: to.Ptr(filter)})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return false, azureutil.Failure("list tables", errors.KindTable, t.name, err)
		}
		for _, tbl := range page.Tables {
			if tbl != nil && tbl.Name != nil && *tbl.Name == t.name {
				return true, nil
			}
		}
	}
	return false, nil
}

func (t *table) CreateIfNotExists(ctx context.Context) error {
	_, err := t.client.CreateTable(ctx, nil)
	if err == nil || azureutil.Code(err) == "TableAlreadyExists" {
		return nil
	}
	return azureutil.Failure("create table", errors.KindTable, t.name, err)
}

func (t *table) Delete(ctx context.Context) error {
	if _, err := t.client.Delete(ctx, nil); err != nil {
		return azureutil.Failure("delete table", errors.KindTable, t.name, err)
	}
	return nil
}

func (t *table) Insert(ctx context.Context, entity storagemodels.Entity) (int, error) {
	return t.write(ctx, "insert", entity, func(data []byte) error {
		_, err := t.client.AddEntity(ctx, data, nil)
		return err
	})
}

func (t *table) InsertOrMerge(ctx context.Context, entity storagemodels.Entity) (int, error) {
	return t.write(ctx, "insert or merge", entity, func(data []byte) error {
		_, err := t.client.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeMerge})
		return err
	})
}

func (t *table) InsertOrReplace(ctx context.Context, entity storagemodels.Entity) (int, error) {
	return t.write(ctx, "insert or replace", entity, func(data []byte) error {
		_, err := t.client.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
		return err
	})
}

func (t *table) Merge(ctx context.Context, entity storagemodels.Entity) (int, error) {
	return t.write(ctx, "merge", entity, func(data []byte) error {
		_, err := t.client.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{
			IfMatch:    to.Ptr(azcore.ETagAny),
			UpdateMode: aztables.UpdateModeMerge,
		})
		return err
	})
}

func (t *table) Replace(ctx context.Context, entity storagemodels.Entity) (int, error) {
	return t.write(ctx, "replace", entity, func(data []byte) error {
		_, err := t.client.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{
			IfMatch:    to.Ptr(azcore.ETagAny),
			UpdateMode: aztables.UpdateModeReplace,
		})
		return err
	})
}

func (t *table) DeleteEntity(ctx context.Context, entity storagemodels.Entity) (int, error) {
	pk, rk := entity.Keys()
	_, err := t.client.DeleteEntity(ctx, pk, rk, &aztables.DeleteEntityOptions{IfMatch: to.Ptr(azcore.ETagAny)})
	if err != nil {
		ferr := azureutil.Failure("delete", errors.KindEntity, t.entityName(entity), err)
		return errors.StatusCode(ferr), ferr
	}
	return http.StatusNoContent, nil
}

// Retrieve reports false, nil when the entity is missing. A missing table is an error.
func (t *table) Retrieve(ctx context.Context, partitionKey, rowKey string, out any) (bool, error) {
	resp, err := t.client.GetEntity(ctx, partitionKey, rowKey, nil)
	if err != nil {
		if azureutil.Status(err, 0) == http.StatusNotFound && azureutil.Code(err) != "TableNotFound" {
			return false, nil
		}
		return false, azureutil.Failure("retrieve", errors.KindTable, t.name, err)
	}
	if err := json.Unmarshal(resp.Value, out); err != nil {
		return false, fmt.Errorf("failed to decode entity: %w", err)
	}
	return true, nil
}

func (t *table) write(ctx context.Context, op string, entity storagemodels.Entity, send func([]byte) error) (int, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return http.StatusBadRequest, errors.NewRemoteFailureError(op, errors.KindEntity, t.name, http.StatusBadRequest, "InvalidInput", err)
	}
	if err := send(data); err != nil {
		ferr := azureutil.Failure(op, errors.KindEntity, t.entityName(entity), err)
		return errors.StatusCode(ferr), ferr
	}
	return http.StatusNoContent, nil
}

func (t *table) entityName(entity storagemodels.Entity) string {
	pk, rk := entity.Keys()
	return t.name + "/" + pk + "/" + rk
}

var _ datastore.TableService = (*TableService)(nil)
