/*
Package storagekit provides thin helpers over cloud tables, queues, blob
containers and pub/sub topics.

Each helper resolves a named remote resource once, caches the reference for
the life of the helper, and passes data operations straight through to the
backend. Creating a resource that the backend is still deleting is retried
under a bounded policy instead of failing.

Key Features:
  - One helper per service: tables.Tables, queues.Queues, blobs.Blobs, topics.Topics
  - Drivers for Azure Storage, DynamoDB, SQS, S3, Redis and Google Cloud Pub/Sub
  - In-memory drivers for tests (datastore/mock, driver name "memory")
  - Versioned msgpack envelope for queue and topic payloads
  - Semantic error types and Prometheus counters for cache and create activity

Basic Usage:

	import _ "github.com/suparena/storagekit/datastore/azuretable"

	client, err := storagekit.New(ctx, storagekit.Config{
	    Tables: &storagekit.ServiceConfig{Source: account.FromConfigKey(account.DefaultTableKey)},
	})

	_, err = client.Tables.CreateTable(ctx, "Orders")
	_, err = client.Tables.Insert(ctx, "Orders", &Order{TableEntity: storagemodels.NewTableEntity("P1", "R1"), Amount: 10})
	order, err := tables.RetrieveEntity[Order](ctx, client.Tables, "Orders", "P1", "R1")

A Config can also be loaded from YAML with LoadConfig.
*/
package storagekit
