/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package testmodels

import (
	"fmt"

	"github.com/go-openapi/strfmt"
)

// Email is a queue payload
type Email struct {

	// Recipient address.
	// Required: true
	// Format: email
	To strfmt.Email `json:"To" msgpack:"to"`

	// Subject line.
	Subject string `json:"Subject,omitempty" msgpack:"subject,omitempty"`

	// Message body.
	Body string `json:"Body,omitempty" msgpack:"body,omitempty"`

	// Extra headers.
	Headers map[string]string `json:"Headers,omitempty" msgpack:"headers,omitempty"`
}

// Validate checks the string formats of the email
func (e *Email) Validate() error {
	if !strfmt.IsEmail(e.To.String()) {
		return &strfmtError{field: "To", value: e.To.String(), format: "email"}
	}
	return nil
}

type strfmtError struct {
	field  string
	value  string
	format string
}

func (e *strfmtError) Error() string {
	return fmt.Sprintf("%s in body must be of type %s: %q", e.field, e.format, e.value)
}
