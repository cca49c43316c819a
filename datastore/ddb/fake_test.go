/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeAPI is an in-memory DynamoDB that understands the expressions the driver builds.
type fakeAPI struct {
	mu      sync.Mutex
	tables  map[string]*fakeTable
	creates map[string]int
}

type fakeTable struct {
	status types.TableStatus
	// describes left before a DELETING table disappears
	remaining int
	schema    []types.KeySchemaElement
	items     map[string]map[string]types.AttributeValue
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{tables: map[string]*fakeTable{}, creates: map[string]int{}}
}

func (f *fakeAPI) deleting(name string, describes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[name] = &fakeTable{status: types.TableStatusDeleting, remaining: describes}
}

func (f *fakeAPI) createCalls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates[name]
}

func (f *fakeAPI) item(table, pk, rk string) map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.tables[table]
	if t == nil {
		return nil
	}
	return t.items[pk+"|"+rk]
}

func notFound(name string) error {
	return &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: Table: " + name + " not found")}
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func (f *fakeAPI) active(name *string) (*fakeTable, error) {
	t := f.tables[aws.ToString(name)]
	if t == nil || t.status != types.TableStatusActive {
		return nil, notFound(aws.ToString(name))
	}
	return t, nil
}

func (f *fakeAPI) DescribeTable(ctx context.Context, in *sdk.DescribeTableInput, _ ...func(*sdk.Options)) (*sdk.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.TableName)
	t := f.tables[name]
	if t == nil {
		return nil, notFound(name)
	}
	if t.status == types.TableStatusDeleting {
		if t.remaining <= 0 {
			delete(f.tables, name)
			return nil, notFound(name)
		}
		t.remaining--
	}
	return &sdk.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: t.status,
		KeySchema:   t.schema,
	}}, nil
}

func (f *fakeAPI) CreateTable(ctx context.Context, in *sdk.CreateTableInput, _ ...func(*sdk.Options)) (*sdk.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.TableName)
	f.creates[name]++
	if _, ok := f.tables[name]; ok {
		return nil, &types.ResourceInUseException{Message: aws.String("Table already exists: " + name)}
	}
	f.tables[name] = &fakeTable{
		status: types.TableStatusActive,
		schema: in.KeySchema,
		items:  map[string]map[string]types.AttributeValue{},
	}
	return &sdk.CreateTableOutput{}, nil
}

func (f *fakeAPI) DeleteTable(ctx context.Context, in *sdk.DeleteTableInput, _ ...func(*sdk.Options)) (*sdk.DeleteTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.active(in.TableName); err != nil {
		return nil, err
	}
	delete(f.tables, aws.ToString(in.TableName))
	return &sdk.DeleteTableOutput{}, nil
}

func (f *fakeAPI) PutItem(ctx context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.active(in.TableName)
	if err != nil {
		return nil, err
	}
	key := keyOf(in.Item)
	if err := check(in.ConditionExpression, t.items[key] != nil); err != nil {
		return nil, err
	}
	t.items[key] = in.Item
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeAPI) UpdateItem(ctx context.Context, in *sdk.UpdateItemInput, _ ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.active(in.TableName)
	if err != nil {
		return nil, err
	}
	key := keyOf(in.Key)
	current := t.items[key]
	if err := check(in.ConditionExpression, current != nil); err != nil {
		return nil, err
	}

	next := map[string]types.AttributeValue{}
	for k, v := range current {
		next[k] = v
	}
	for k, v := range in.Key {
		next[k] = v
	}
	if in.UpdateExpression != nil {
		expr := strings.TrimPrefix(aws.ToString(in.UpdateExpression), "SET ")
		for _, clause := range strings.Split(expr, ", ") {
			parts := strings.SplitN(clause, " = ", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("unsupported update clause %q", clause)
			}
			next[in.ExpressionAttributeNames[parts[0]]] = in.ExpressionAttributeValues[parts[1]]
		}
	}
	t.items[key] = next
	return &sdk.UpdateItemOutput{}, nil
}

func (f *fakeAPI) GetItem(ctx context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.active(in.TableName)
	if err != nil {
		return nil, err
	}
	return &sdk.GetItemOutput{Item: t.items[keyOf(in.Key)]}, nil
}

func (f *fakeAPI) DeleteItem(ctx context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.active(in.TableName)
	if err != nil {
		return nil, err
	}
	key := keyOf(in.Key)
	if err := check(in.ConditionExpression, t.items[key] != nil); err != nil {
		return nil, err
	}
	delete(t.items, key)
	return &sdk.DeleteItemOutput{}, nil
}

func check(condition *string, exists bool) error {
	switch aws.ToString(condition) {
	case "":
		return nil
	case "attribute_exists(#pk)":
		if !exists {
			return conditionFailed()
		}
	case "attribute_not_exists(#pk)":
		if exists {
			return conditionFailed()
		}
	default:
		return fmt.Errorf("unsupported condition %q", aws.ToString(condition))
	}
	return nil
}

func keyOf(item map[string]types.AttributeValue) string {
	s := func(name string) string {
		if v, ok := item[name].(*types.AttributeValueMemberS); ok {
			return v.Value
		}
		return ""
	}
	return s("PartitionKey") + "|" + s("RowKey")
}
