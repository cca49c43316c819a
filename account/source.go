/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package account

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/suparena/storagekit/errors"
)

// Origin names where a Source takes its account from.
type Origin string

const (
	// OriginConfigKey looks a connection string up by configuration key
	OriginConfigKey Origin = "config_key"
	// OriginConnectionString parses an explicit connection string
	OriginConnectionString Origin = "connection_string"
	// OriginAccount uses an already resolved Context
	OriginAccount Origin = "account"
)

// Source selects the storage account for one service.
type Source struct {
	Origin           Origin   `yaml:"origin"`
	ConfigKey        string   `yaml:"config_key,omitempty"`
	ConnectionString string   `yaml:"connection_string,omitempty"`
	Account          *Context `yaml:"-"`
}

// FromConfigKey returns a Source reading the connection string stored under key
func FromConfigKey(key string) Source {
	return Source{Origin: OriginConfigKey, ConfigKey: key}
}

// FromConnectionString returns a Source parsing s
func FromConnectionString(s string) Source {
	return Source{Origin: OriginConnectionString, ConnectionString: s}
}

// FromAccount returns a Source using an already resolved account
func FromAccount(c *Context) Source {
	return Source{Origin: OriginAccount, Account: c}
}

// Lookup returns the configuration value stored under key
type Lookup func(key string) (string, bool)

// Resolve produces the account context. An empty origin falls back to
// defaultKey through lookup. A missing key or value is an InvalidArgumentError
// and a malformed connection string an InvalidFormatError.
func (s Source) Resolve(lookup Lookup, defaultKey string) (*Context, error) {
	switch s.Origin {
	case OriginAccount:
		if s.Account == nil {
			return nil, errors.NewInvalidArgumentError("account", "the account can not be nil")
		}
		return s.Account, nil

	case OriginConnectionString:
		if s.ConnectionString == "" {
			return nil, errors.NewInvalidArgumentError("connection string", "the connection string can not be empty")
		}
		return Parse(s.ConnectionString)

	case OriginConfigKey, "":
		key := s.ConfigKey
		if key == "" {
			key = defaultKey
		}
		if key == "" {
			return nil, errors.NewInvalidArgumentError("config key", "no configuration key given")
		}
		if lookup == nil {
			lookup = os.LookupEnv
		}
		value, ok := lookup(key)
		if !ok || value == "" {
			return nil, errors.NewInvalidArgumentError(key, "the configuration value is not set")
		}
		c, err := Parse(value)
		if err != nil {
			return nil, fmt.Errorf("configuration key %s: %w", key, err)
		}
		return c, nil
	}

	return nil, errors.NewInvalidArgumentError("origin", fmt.Sprintf("unknown origin %q", s.Origin))
}

// EnvLookup returns a Lookup over the given .env files, falling back to the
// process environment. Values in the files win.
func EnvLookup(files ...string) (Lookup, error) {
	if len(files) == 0 {
		return os.LookupEnv, nil
	}
	values, err := godotenv.Read(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to read env files: %w", err)
	}
	return func(key string) (string, bool) {
		if v, ok := values[key]; ok {
			return v, true
		}
		return os.LookupEnv(key)
	}, nil
}
