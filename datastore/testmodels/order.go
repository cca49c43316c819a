/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package testmodels

import (
	"github.com/go-openapi/strfmt"

	"github.com/suparena/storagekit/storagemodels"
)

// Order is a table entity keyed by customer (partition) and order number (row).
type Order struct {
	storagemodels.TableEntity

	// Order total in cents.
	Amount int64 `json:"Amount,omitempty" dynamodbav:"Amount,omitempty"`

	// Timestamp when the order was placed.
	// Format: date-time
	CreatedAt *strfmt.DateTime `json:"CreatedAt,omitempty" dynamodbav:"CreatedAt,omitempty"`

	// Customer contact address.
	// Format: email
	CustomerEmail strfmt.Email `json:"CustomerEmail,omitempty" dynamodbav:"CustomerEmail,omitempty"`

	// Free-form note.
	Note string `json:"Note,omitempty" dynamodbav:"Note,omitempty"`
}

// NewOrder returns an Order with its keys set
func NewOrder(customer, number string, amount int64) *Order {
	return &Order{
		TableEntity: storagemodels.NewTableEntity(customer, number),
		Amount:      amount,
	}
}

// Validate checks the string formats of the order
func (o *Order) Validate() error {
	if o.CustomerEmail != "" && !strfmt.IsEmail(o.CustomerEmail.String()) {
		return &strfmtError{field: "CustomerEmail", value: o.CustomerEmail.String(), format: "email"}
	}
	return nil
}
