/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tables_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/storagekit/datastore/mock"
	"github.com/suparena/storagekit/datastore/testmodels"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/storagemodels"
	"github.com/suparena/storagekit/tables"
)

func fastRetry() storagemodels.Option {
	return storagemodels.WithRetryPolicy(storagemodels.RetryPolicy{MaxAttempts: 5, Interval: time.Millisecond})
}

func TestOrdersRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := mock.NewTableService().Seed("Orders")
	helper := tables.New(svc, fastRetry())

	status, err := helper.Insert(ctx, "Orders", testmodels.NewOrder("P1", "R1", 10))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, status)

	got, err := tables.RetrieveEntity[testmodels.Order](ctx, helper, "Orders", "P1", "R1")
	require.NoError(t, err)
	require.NotNil(t, got)
	if diff := cmp.Diff(testmodels.NewOrder("P1", "R1", 10), got); diff != "" {
		t.Errorf("retrieved order mismatch (-want +got):\n%s", diff)
	}

	status, err = helper.Delete(ctx, "Orders", got)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, status)

	got, err = tables.RetrieveEntity[testmodels.Order](ctx, helper, "Orders", "P1", "R1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWriteOperations(t *testing.T) {
	ctx := context.Background()
	svc := mock.NewTableService().Seed("Orders")
	helper := tables.New(svc)

	created := strfmt.DateTime(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	order := testmodels.NewOrder("P1", "R1", 10)
	order.CreatedAt = &created
	order.CustomerEmail = "ada@example.com"

	_, err := helper.InsertOrReplace(ctx, "Orders", order)
	require.NoError(t, err)

	status, err := helper.Insert(ctx, "Orders", order)
	assert.Equal(t, http.StatusConflict, status)
	assert.True(t, errors.IsRemoteFailure(err))

	_, err = helper.Merge(ctx, "Orders", &testmodels.Order{TableEntity: order.TableEntity, Note: "gift"})
	require.NoError(t, err)

	merged, err := tables.RetrieveEntity[testmodels.Order](ctx, helper, "Orders", "P1", "R1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), merged.Amount)
	assert.Equal(t, "gift", merged.Note)
	assert.Equal(t, order.CustomerEmail, merged.CustomerEmail)
	require.NotNil(t, merged.CreatedAt)
	assert.True(t, time.Time(created).Equal(time.Time(*merged.CreatedAt)))

	_, err = helper.Replace(ctx, "Orders", testmodels.NewOrder("P1", "R1", 20))
	require.NoError(t, err)
	replaced, err := tables.RetrieveEntity[testmodels.Order](ctx, helper, "Orders", "P1", "R1")
	require.NoError(t, err)
	assert.Equal(t, int64(20), replaced.Amount)
	assert.Empty(t, replaced.Note)

	_, err = helper.InsertOrMerge(ctx, "Orders", &testmodels.Order{TableEntity: order.TableEntity, Note: "again"})
	require.NoError(t, err)
	assert.Equal(t, 1, svc.Count("Orders"))

	status, err = helper.Merge(ctx, "Orders", testmodels.NewOrder("P9", "R9", 1))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, http.StatusNotFound, errors.StatusCode(err))
}

func TestValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("NoAccount", func(t *testing.T) {
		helper := tables.New(nil)
		_, err := helper.Insert(ctx, "Orders", testmodels.NewOrder("P", "R", 1))
		assert.True(t, errors.IsUnavailable(err))

		_, err = tables.RetrieveEntity[testmodels.Order](ctx, helper, "Orders", "P", "R")
		assert.True(t, errors.IsUnavailable(err))
	})

	t.Run("EmptyName", func(t *testing.T) {
		helper := tables.New(mock.NewTableService())
		_, err := helper.Insert(ctx, "", testmodels.NewOrder("P", "R", 1))
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("NilEntity", func(t *testing.T) {
		svc := mock.NewTableService().Seed("Orders")
		helper := tables.New(svc)

		_, err := helper.Insert(ctx, "Orders", nil)
		assert.True(t, errors.IsInvalidArgument(err))

		var order *testmodels.Order
		_, err = helper.InsertOrReplace(ctx, "Orders", order)
		assert.True(t, errors.IsInvalidArgument(err))
		assert.Equal(t, 0, svc.ExistsCalls("Orders"))
	})

	t.Run("NilHandle", func(t *testing.T) {
		_, err := tables.InsertEntity(ctx, nil, testmodels.NewOrder("P", "R", 1))
		assert.True(t, errors.IsInvalidArgument(err))

		_, err = tables.GetEntity[testmodels.Order](ctx, nil, "P", "R")
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("MissingTableIsNotCreated", func(t *testing.T) {
		svc := mock.NewTableService()
		helper := tables.New(svc)

		_, err := helper.Insert(ctx, "Orders", testmodels.NewOrder("P", "R", 1))
		assert.True(t, errors.IsNotFound(err))
		assert.False(t, svc.Has("Orders"))
		assert.Equal(t, 0, svc.CreateCalls("Orders"))
		assert.Empty(t, helper.Tables())
	})
}

func TestHandleOperations(t *testing.T) {
	ctx := context.Background()
	table := mock.NewTableService().Seed("Orders").Table("Orders")

	ops := []struct {
		name   string
		op     func(context.Context, storagemodels.Entity) (int, error)
		amount int64
	}{
		{"InsertEntity", func(ctx context.Context, e storagemodels.Entity) (int, error) {
			return tables.InsertEntity(ctx, table, e)
		}, 1},
		{"MergeEntity", func(ctx context.Context, e storagemodels.Entity) (int, error) {
			return tables.MergeEntity(ctx, table, e)
		}, 2},
		{"ReplaceEntity", func(ctx context.Context, e storagemodels.Entity) (int, error) {
			return tables.ReplaceEntity(ctx, table, e)
		}, 3},
		{"InsertOrMergeEntity", func(ctx context.Context, e storagemodels.Entity) (int, error) {
			return tables.InsertOrMergeEntity(ctx, table, e)
		}, 4},
		{"InsertOrReplaceEntity", func(ctx context.Context, e storagemodels.Entity) (int, error) {
			return tables.InsertOrReplaceEntity(ctx, table, e)
		}, 5},
	}

	for _, tt := range ops {
		status, err := tt.op(ctx, testmodels.NewOrder("P1", "R1", tt.amount))
		require.NoError(t, err, tt.name)
		assert.Equal(t, http.StatusNoContent, status, tt.name)

		got, err := tables.GetEntity[testmodels.Order](ctx, table, "P1", "R1")
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.amount, got.Amount, tt.name)
	}

	status, err := tables.DeleteEntity(ctx, table, testmodels.NewOrder("P1", "R1", 0))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, status)
}

func TestDeleteTableByReference(t *testing.T) {
	ctx := context.Background()
	svc := mock.NewTableService().Seed("Orders")
	table := svc.Table("Orders")

	require.NoError(t, tables.DeleteTable(ctx, table))
	assert.False(t, svc.Has("Orders"))

	err := tables.DeleteTable(ctx, table)
	assert.Equal(t, http.StatusNotFound, errors.StatusCode(err))

	err = tables.DeleteTable(ctx, nil)
	assert.True(t, errors.IsInvalidArgument(err))
}

func TestTableLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := mock.NewTableService()
	helper := tables.New(svc, fastRetry())

	exists, err := helper.TableExists(ctx, "Orders")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = helper.GetTable(ctx, "Orders", false)
	assert.True(t, errors.IsNotFound(err))

	svc.BeingDeleted("Orders", 2)
	_, err = helper.CreateTable(ctx, "Orders")
	require.NoError(t, err)
	assert.Equal(t, 3, svc.CreateCalls("Orders"))
	assert.Equal(t, []string{"Orders"}, helper.Tables())

	exists, err = helper.TableExists(ctx, "Orders")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, helper.DeleteTable(ctx, "Orders"))
	assert.Empty(t, helper.Tables())
	assert.False(t, svc.Has("Orders"))

	err = helper.DeleteTable(ctx, "Orders")
	assert.Equal(t, http.StatusNotFound, errors.StatusCode(err))
}
