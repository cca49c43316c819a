/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/storagekit/account"
	"github.com/suparena/storagekit/datastore"
	"github.com/suparena/storagekit/datastore/awsutil"
	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/registry"
	"github.com/suparena/storagekit/storagemodels"
)

// Key attribute names. Every table uses PartitionKey as hash key and RowKey as range key.
const (
	PartitionKeyAttribute = "PartitionKey"
	RowKeyAttribute       = "RowKey"
)

// DriverName is the registry name of the DynamoDB table driver
const DriverName = "ddb"

func init() {
	registry.RegisterTableDriver(DriverName, func(ctx context.Context, acct *account.Context) (datastore.TableService, error) {
		client, err := NewDynamoDBClient(ctx, acct)
		if err != nil {
			return nil, err
		}
		return NewTableService(client), nil
	})
}

// API is the subset of the DynamoDB client used by the driver
type API interface {
	DescribeTable(ctx context.Context, params *sdk.DescribeTableInput, optFns ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *sdk.CreateTableInput, optFns ...func(*sdk.Options)) (*sdk.CreateTableOutput, error)
	DeleteTable(ctx context.Context, params *sdk.DeleteTableInput, optFns ...func(*sdk.Options)) (*sdk.DeleteTableOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
}

// NewDynamoDBClient initializes a DynamoDB client for acct.
func NewDynamoDBClient(ctx context.Context, acct *account.Context) (*sdk.Client, error) {
	cfg, err := awsutil.LoadConfig(ctx, acct)
	if err != nil {
		return nil, err
	}

	client := sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		o.BaseEndpoint = awsutil.Endpoint(acct)
	})

	slog.Default().Debug("DynamoDB client initialized", "region", cfg.Region, "endpoint", acct.Endpoint)
	return client, nil
}

// TableService implements datastore.TableService on DynamoDB.
type TableService struct {
	client      API
	maxWait     time.Duration
	waitOptions func(*sdk.TableExistsWaiterOptions)
}

// ServiceOption configures a TableService
type ServiceOption func(*TableService)

// WithMaxWait bounds how long CreateIfNotExists waits for a new table to become active.
func WithMaxWait(d time.Duration) ServiceOption {
	return func(s *TableService) { s.maxWait = d }
}

// WithWaiterDelay sets the polling interval of the table-exists waiter
func WithWaiterDelay(d time.Duration) ServiceOption {
	return func(s *TableService) {
		s.waitOptions = func(o *sdk.TableExistsWaiterOptions) {
			o.MinDelay = d
			o.MaxDelay = d
		}
	}
}

// NewTableService creates a table service on client
func NewTableService(client API, opts ...ServiceOption) *TableService {
	s := &TableService{client: client, maxWait: 2 * time.Minute}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Table implements datastore.TableService
func (s *TableService) Table(name string) datastore.Table {
	return &table{svc: s, name: name}
}

type table struct {
	svc  *TableService
	name string
}

func (t *table) Name() string { return t.name }

func (t *table) status(ctx context.Context) (types.TableStatus, bool, error) {
	out, err := t.svc.client.DescribeTable(ctx, &sdk.DescribeTableInput{TableName: aws.String(t.name)})
	if err != nil {
		var rnf *types.ResourceNotFoundException
		if stderrors.As(err, &rnf) {
			return "", false, nil
		}
		return "", false, awsutil.Failure("describe table", errors.KindTable, t.name, err)
	}
	if out.Table == nil {
		return "", false, nil
	}
	return out.Table.TableStatus, true, nil
}

// Exists reports false for a table that is being deleted.
func (t *table) Exists(ctx context.Context) (bool, error) {
	st, found, err := t.status(ctx)
	if err != nil || !found {
		return false, err
	}
	return st != types.TableStatusDeleting, nil
}

func (t *table) CreateIfNotExists(ctx context.Context) error {
	st, found, err := t.status(ctx)
	if err != nil {
		return err
	}
	if found {
		if st == types.TableStatusDeleting {
			return errors.NewBeingDeletedError(errors.KindTable, t.name, errors.CodeTableBeingDeleted, nil)
		}
		return t.wait(ctx)
	}

	_, err = t.svc.client.CreateTable(ctx, &sdk.CreateTableInput{
		TableName: aws.String(t.name),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(PartitionKeyAttribute), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(RowKeyAttribute), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(PartitionKeyAttribute), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(RowKeyAttribute), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !stderrors.As(err, &inUse) {
			return awsutil.Failure("create table", errors.KindTable, t.name, err)
		}
		// another writer won the race, or the old table is still going away
		st, found, serr := t.status(ctx)
		if serr != nil {
			return serr
		}
		if !found || st == types.TableStatusDeleting {
			return errors.NewBeingDeletedError(errors.KindTable, t.name, errors.CodeTableBeingDeleted, err)
		}
	}
	return t.wait(ctx)
}

func (t *table) wait(ctx context.Context) error {
	var optFns []func(*sdk.TableExistsWaiterOptions)
	if t.svc.waitOptions != nil {
		optFns = append(optFns, t.svc.waitOptions)
	}
	waiter := sdk.NewTableExistsWaiter(t.svc.client, optFns...)
	if err := waiter.Wait(ctx, &sdk.DescribeTableInput{TableName: aws.String(t.name)}, t.svc.maxWait); err != nil {
		return fmt.Errorf("table %q did not become active: %w", t.name, err)
	}
	return nil
}

func (t *table) Delete(ctx context.Context) error {
	_, err := t.svc.client.DeleteTable(ctx, &sdk.DeleteTableInput{TableName: aws.String(t.name)})
	if err != nil {
		var rnf *types.ResourceNotFoundException
		if stderrors.As(err, &rnf) {
			return errors.NewRemoteFailureError("delete table", errors.KindTable, t.name, http.StatusNotFound, "ResourceNotFoundException", err)
		}
		return awsutil.Failure("delete table", errors.KindTable, t.name, err)
	}
	return nil
}

func (t *table) Insert(ctx context.Context, entity storagemodels.Entity) (int, error) {
	return t.put(ctx, "insert", entity, "attribute_not_exists(#pk)", http.StatusConflict, "EntityAlreadyExists")
}

func (t *table) InsertOrReplace(ctx context.Context, entity storagemodels.Entity) (int, error) {
	return t.put(ctx, "insert or replace", entity, "", 0, "")
}

func (t *table) Replace(ctx context.Context, entity storagemodels.Entity) (int, error) {
	return t.put(ctx, "replace", entity, "attribute_exists(#pk)", http.StatusNotFound, "ResourceNotFound")
}

func (t *table) InsertOrMerge(ctx context.Context, entity storagemodels.Entity) (int, error) {
	return t.update(ctx, "insert or merge", entity, false)
}

func (t *table) Merge(ctx context.Context, entity storagemodels.Entity) (int, error) {
	return t.update(ctx, "merge", entity, true)
}

func (t *table) DeleteEntity(ctx context.Context, entity storagemodels.Entity) (int, error) {
	pk, rk := entity.Keys()
	_, err := t.svc.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:                aws.String(t.name),
		Key:                      itemKey(pk, rk),
		ConditionExpression:      aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": PartitionKeyAttribute},
	})
	if err != nil {
		return t.failure(err, "delete", entity, http.StatusNotFound, "ResourceNotFound")
	}
	return http.StatusNoContent, nil
}

func (t *table) Retrieve(ctx context.Context, partitionKey, rowKey string, out any) (bool, error) {
	res, err := t.svc.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      aws.String(t.name),
		Key:            itemKey(partitionKey, rowKey),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, t.tableFailure("retrieve", err)
	}
	if res.Item == nil {
		return false, nil
	}

	props := make(map[string]any, len(res.Item))
	if err := attributevalue.UnmarshalMap(res.Item, &props); err != nil {
		return false, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	data, err := json.Marshal(props)
	if err != nil {
		return false, fmt.Errorf("failed to encode item: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode entity: %w", err)
	}
	return true, nil
}

func (t *table) put(ctx context.Context, op string, entity storagemodels.Entity, condition string, status int, code string) (int, error) {
	item, err := toItem(entity)
	if err != nil {
		return http.StatusBadRequest, errors.NewRemoteFailureError(op, errors.KindEntity, t.name, http.StatusBadRequest, "InvalidInput", err)
	}

	input := &sdk.PutItemInput{TableName: aws.String(t.name), Item: item}
	if condition != "" {
		input.ConditionExpression = aws.String(condition)
		input.ExpressionAttributeNames = map[string]string{"#pk": PartitionKeyAttribute}
	}
	if _, err := t.svc.client.PutItem(ctx, input); err != nil {
		return t.failure(err, op, entity, status, code)
	}
	return http.StatusNoContent, nil
}

func (t *table) update(ctx context.Context, op string, entity storagemodels.Entity, mustExist bool) (int, error) {
	item, err := toItem(entity)
	if err != nil {
		return http.StatusBadRequest, errors.NewRemoteFailureError(op, errors.KindEntity, t.name, http.StatusBadRequest, "InvalidInput", err)
	}

	pk, rk := entity.Keys()
	delete(item, PartitionKeyAttribute)
	delete(item, RowKeyAttribute)

	input := &sdk.UpdateItemInput{
		TableName: aws.String(t.name),
		Key:       itemKey(pk, rk),
	}
	names := map[string]string{}
	if len(item) > 0 {
		expr, exprNames, values := buildUpdateExpression(item)
		input.UpdateExpression = aws.String(expr)
		input.ExpressionAttributeValues = values
		names = exprNames
	}
	if mustExist {
		input.ConditionExpression = aws.String("attribute_exists(#pk)")
		names["#pk"] = PartitionKeyAttribute
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}

	if _, err := t.svc.client.UpdateItem(ctx, input); err != nil {
		return t.failure(err, op, entity, http.StatusNotFound, "ResourceNotFound")
	}
	return http.StatusNoContent, nil
}

// failure maps a failed conditional write to status/code and anything else to the SDK status.
func (t *table) failure(err error, op string, entity storagemodels.Entity, status int, code string) (int, error) {
	pk, rk := entity.Keys()
	name := t.name + "/" + pk + "/" + rk

	var ccf *types.ConditionalCheckFailedException
	if status != 0 && stderrors.As(err, &ccf) {
		return status, errors.NewRemoteFailureError(op, errors.KindEntity, name, status, code, err)
	}
	ferr := t.tableFailure(op, err)
	return errors.StatusCode(ferr), ferr
}

func (t *table) tableFailure(op string, err error) error {
	var rnf *types.ResourceNotFoundException
	if stderrors.As(err, &rnf) {
		return errors.NewRemoteFailureError(op, errors.KindTable, t.name, http.StatusNotFound, "TableNotFound", err)
	}
	return awsutil.Failure(op, errors.KindTable, t.name, err)
}

// toItem marshals entity through its JSON form so that custom JSON
// marshalers (strfmt dates, emails) are stored as their string values.
func toItem(entity storagemodels.Entity) (map[string]types.AttributeValue, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return nil, err
	}
	props := make(map[string]any)
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, err
	}
	pk, rk := entity.Keys()
	props[PartitionKeyAttribute] = pk
	props[RowKeyAttribute] = rk
	return attributevalue.MarshalMap(props)
}

func itemKey(pk, rk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		PartitionKeyAttribute: &types.AttributeValueMemberS{Value: pk},
		RowKeyAttribute:       &types.AttributeValueMemberS{Value: rk},
	}
}

// buildUpdateExpression transforms a map of field->value into:
//   - an "update expression" (e.g., "SET #n0 = :v0, #n1 = :v1")
//   - a corresponding map of expression attribute names
//   - a corresponding map of expression attribute values
//
// Fields are visited in sorted order so the expression is stable.
func buildUpdateExpression(fields map[string]types.AttributeValue) (string, map[string]string, map[string]types.AttributeValue) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	names := make(map[string]string, len(keys))
	values := make(map[string]types.AttributeValue, len(keys))
	for i, field := range keys {
		n := fmt.Sprintf("#n%d", i)
		v := fmt.Sprintf(":v%d", i)
		clauses = append(clauses, n+" = "+v)
		names[n] = field
		values[v] = fields[field]
	}
	return "SET " + strings.Join(clauses, ", "), names, values
}

var _ datastore.TableService = (*TableService)(nil)
