/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package codec encodes queue and topic payloads.
//
// A payload is a small envelope around a msgpack document:
//
//	+-------+-------+---------+-----------------+-----------------+
//	| 'S'   | 'K'   | version | uvarint length  | msgpack body    |
//	+-------+-------+---------+-----------------+-----------------+
//
// The length covers the body only; trailing bytes are rejected.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/suparena/storagekit/errors"
)

// Version is the envelope version written by Marshal.
const Version byte = 1

var magic = [2]byte{'S', 'K'}

const headerLen = len(magic) + 1

// Marshal encodes v into a versioned envelope.
func Marshal(v any) ([]byte, error) {
	body, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	buf := make([]byte, 0, headerLen+binary.MaxVarintLen64+len(body))
	buf = append(buf, magic[0], magic[1], Version)
	buf = binary.AppendUvarint(buf, uint64(len(body)))
	buf = append(buf, body...)
	return buf, nil
}

// Unmarshal decodes an envelope produced by Marshal into v.
func Unmarshal(data []byte, v any) error {
	body, err := open(data)
	if err != nil {
		return err
	}
	if err := msgpack.Unmarshal(body, v); err != nil {
		return errors.NewInvalidFormatError("payload", "failed to decode body", err)
	}
	return nil
}

// Decode is a typed convenience around Unmarshal.
func Decode[T any](data []byte) (*T, error) {
	out := new(T)
	if err := Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}

func open(data []byte) ([]byte, error) {
	if len(data) < headerLen {
		return nil, errors.NewInvalidFormatError("payload", "envelope is truncated", nil)
	}
	if !bytes.Equal(data[:len(magic)], magic[:]) {
		return nil, errors.NewInvalidFormatError("payload", "missing envelope marker", nil)
	}
	if v := data[len(magic)]; v != Version {
		return nil, errors.NewInvalidFormatError("payload", fmt.Sprintf("unsupported envelope version %d", v), nil)
	}

	size, n := binary.Uvarint(data[headerLen:])
	if n <= 0 {
		return nil, errors.NewInvalidFormatError("payload", "bad body length", nil)
	}
	body := data[headerLen+n:]
	if uint64(len(body)) != size {
		return nil, errors.NewInvalidFormatError("payload",
			fmt.Sprintf("body length %d does not match header %d", len(body), size), nil)
	}
	return body, nil
}
