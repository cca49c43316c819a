/*
Package storagemodels defines the data structures shared by storagekit helpers and drivers.

Key Types:

Entity and TableEntity:
Table records expose a two-part key. Embed TableEntity to get one:

	type Order struct {
	    storagemodels.TableEntity
	    Amount int
	}

	order := Order{TableEntity: storagemodels.NewTableEntity("P1", "R1"), Amount: 10}

Message:
A pub/sub message with an opaque payload and optional attributes.

Options:
Configuration shared by all helpers:

	opts := []Option{
	    WithRetryPolicy(RetryPolicy{MaxAttempts: 10, Interval: time.Second}),
	    WithLogger(logger),
	    WithObserver(collector),
	    WithPublicAccess(PublicAccessNone),
	}

RetryPolicy bounds the wait-and-retry loop used when a resource of the same
name is still being deleted. RetryForever reproduces an unbounded loop.
*/
package storagemodels
