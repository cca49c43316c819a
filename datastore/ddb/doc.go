/*
Package ddb implements datastore.TableService on Amazon DynamoDB.

Importing the package registers the "ddb" table driver:

	import _ "github.com/suparena/storagekit/datastore/ddb"

Tables are created on demand with PartitionKey as hash key and RowKey as range
key, both strings, in on-demand billing mode. Entities are stored through their
JSON form, so the attribute names match the entity's json tags.

Write semantics follow the Azure Table service:
  - Insert fails with 409 when the key exists
  - Replace, Merge and DeleteEntity fail with 404 when it does not
  - InsertOrMerge and Merge update only the attributes present on the entity

A table in the DELETING state is reported as the TableBeingDeleted conflict so
the handle creator retries until the old table is gone.

An emulator such as DynamoDB Local can be targeted with the Endpoint setting:

	Provider=aws;Region=us-east-1;AccessKeyId=x;SecretAccessKey=x;Endpoint=http://localhost:8000
*/
package ddb
