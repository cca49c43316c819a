/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package codec

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/storagekit/errors"
)

type email struct {
	ToMailAddress   string
	ToDisplayName   string
	FromMailAddress string
	FromDisplayName string
	Subject         string
	Body            string
	Retries         int
	Tags            []string
	Headers         map[string]string
}

func TestRoundTrip(t *testing.T) {
	records := []email{
		{},
		{
			ToMailAddress:   "someone@example.com",
			ToDisplayName:   "Test User",
			FromMailAddress: "sender@example.com",
			FromDisplayName: "Sender",
			Subject:         "Subject",
			Body:            "Body",
			Retries:         3,
			Tags:            []string{"a", "b"},
			Headers:         map[string]string{"X-Trace": "1"},
		},
	}

	for _, r := range records {
		data, err := Marshal(r)
		require.NoError(t, err)

		got, err := Decode[email](data)
		require.NoError(t, err)
		if diff := cmp.Diff(r, *got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestEnvelopeHeader(t *testing.T) {
	data, err := Marshal("hello")
	require.NoError(t, err)

	assert.Equal(t, byte('S'), data[0])
	assert.Equal(t, byte('K'), data[1])
	assert.Equal(t, Version, data[2])
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	good, err := Marshal(email{Subject: "x"})
	require.NoError(t, err)

	wrongVersion := append([]byte(nil), good...)
	wrongVersion[2] = 9

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated header", good[:2]},
		{"bad marker", append([]byte{'X', 'X'}, good[2:]...)},
		{"wrong version", wrongVersion},
		{"truncated body", good[:len(good)-1]},
		{"trailing bytes", append(append([]byte(nil), good...), 0x00)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out email
			err := Unmarshal(tt.data, &out)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidFormat(err), "expected invalid format, got %v", err)
		})
	}
}
