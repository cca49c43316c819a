/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"
)

// Entity is implemented by records stored in a table. Identity is the
// (partitionKey, rowKey) pair; uniqueness is enforced by the backend.
type Entity interface {
	Keys() (partitionKey, rowKey string)
}

// TableEntity carries the two-part key. Embed it in application records:
//
//	type Order struct {
//	    storagemodels.TableEntity
//	    Amount int
//	}
type TableEntity struct {
	// PartitionKey groups related entities.
	PartitionKey string `json:"PartitionKey" dynamodbav:"PartitionKey" msgpack:"PartitionKey"`
	// RowKey identifies the entity within its partition.
	RowKey string `json:"RowKey" dynamodbav:"RowKey" msgpack:"RowKey"`
}

// NewTableEntity returns a TableEntity with both keys set.
func NewTableEntity(partitionKey, rowKey string) TableEntity {
	return TableEntity{PartitionKey: partitionKey, RowKey: rowKey}
}

// Keys implements Entity.
func (e TableEntity) Keys() (string, string) {
	return e.PartitionKey, e.RowKey
}

// Message is a pub/sub message as sent to or received from a topic.
type Message struct {
	// ID is assigned by the backend on publish.
	ID string
	// Data is the opaque payload.
	Data []byte
	// Attributes are optional key/value pairs, usable by subscription filters.
	Attributes map[string]string
	// PublishTime is set on received messages.
	PublishTime time.Time
}

// PublicAccess is the anonymous read level applied to a blob container.
type PublicAccess string

const (
	// PublicAccessNone keeps the container private.
	PublicAccessNone PublicAccess = "none"
	// PublicAccessBlob allows anonymous reads of individual blobs.
	PublicAccessBlob PublicAccess = "blob"
	// PublicAccessContainer allows anonymous reads of blobs and container listing.
	PublicAccessContainer PublicAccess = "container"
)

// Valid reports whether p is a known access level.
func (p PublicAccess) Valid() bool {
	switch p {
	case PublicAccessNone, PublicAccessBlob, PublicAccessContainer:
		return true
	}
	return false
}
