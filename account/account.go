/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package account

import (
	"fmt"
	"sort"
	"strings"

	"github.com/suparena/storagekit/errors"
)

// Providers recognised in a connection string.
const (
	ProviderAzure  = "azure"
	ProviderAWS    = "aws"
	ProviderGCP    = "gcp"
	ProviderRedis  = "redis"
	ProviderMemory = "memory"
)

// Default configuration keys holding a connection string per service.
const (
	DefaultTableKey = "AzureStorageConnectionString_Table"
	DefaultQueueKey = "AzureStorageConnectionString_Queue"
	DefaultBlobKey  = "AzureBlobStorageConnectionString"
	DefaultTopicKey = "ServiceBusConnectionString"
)

// Local storage emulator account.
const (
	devAccountName = "devstoreaccount1"
	devAccountKey  = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
	devHost        = "http://127.0.0.1"
)

// Context is a resolved storage account: where the service lives and the
// credentials used to reach it. It is immutable once parsed.
type Context struct {
	Provider string

	// Azure storage account
	Protocol              string
	AccountName           string
	AccountKey            string
	SharedAccessSignature string
	EndpointSuffix        string
	TableEndpoint         string
	QueueEndpoint         string
	BlobEndpoint          string
	Development           bool

	// AWS
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Endpoint overrides the service endpoint for AWS and GCP emulators
	Endpoint  string
	ProjectID string
	RedisAddr string

	settings map[string]string
}

// Setting returns a raw connection string value by case-insensitive key
func (c *Context) Setting(key string) (string, bool) {
	v, ok := c.settings[strings.ToLower(key)]
	return v, ok
}

// AzureConnectionString renders the account in the form accepted by the Azure
// SDK clients. Emulator accounts are spelled out with explicit endpoints.
func (c *Context) AzureConnectionString() string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	add("DefaultEndpointsProtocol", c.Protocol)
	add("AccountName", c.AccountName)
	add("AccountKey", c.AccountKey)
	add("SharedAccessSignature", c.SharedAccessSignature)
	if !c.Development {
		add("EndpointSuffix", c.EndpointSuffix)
	}
	add("BlobEndpoint", c.BlobEndpoint)
	add("QueueEndpoint", c.QueueEndpoint)
	add("TableEndpoint", c.TableEndpoint)
	return strings.Join(parts, ";")
}

// String renders the context without secrets
func (c *Context) String() string {
	switch c.Provider {
	case ProviderAzure:
		return fmt.Sprintf("azure account %s", c.AccountName)
	case ProviderAWS:
		return fmt.Sprintf("aws region %s", c.Region)
	case ProviderGCP:
		return fmt.Sprintf("gcp project %s", c.ProjectID)
	case ProviderRedis:
		return fmt.Sprintf("redis %s", c.RedisAddr)
	}
	return c.Provider
}

// Parse reads a Key=Value;Key=Value connection string. Keys are matched
// case-insensitively and unknown keys are kept for Setting.
func Parse(connectionString string) (*Context, error) {
	settings, err := split(connectionString)
	if err != nil {
		return nil, err
	}

	c := &Context{
		Provider:              strings.ToLower(settings["provider"]),
		Protocol:              settings["defaultendpointsprotocol"],
		AccountName:           settings["accountname"],
		AccountKey:            settings["accountkey"],
		SharedAccessSignature: settings["sharedaccesssignature"],
		EndpointSuffix:        settings["endpointsuffix"],
		TableEndpoint:         settings["tableendpoint"],
		QueueEndpoint:         settings["queueendpoint"],
		BlobEndpoint:          settings["blobendpoint"],
		Region:                settings["region"],
		AccessKeyID:           settings["accesskeyid"],
		SecretAccessKey:       settings["secretaccesskey"],
		SessionToken:          settings["sessiontoken"],
		Endpoint:              settings["endpoint"],
		ProjectID:             settings["projectid"],
		RedisAddr:             settings["redisaddr"],
		settings:              settings,
	}

	if v, ok := settings["usedevelopmentstorage"]; ok {
		if !strings.EqualFold(v, "true") {
			return nil, errors.NewInvalidFormatError("connection string", "UseDevelopmentStorage only accepts true", nil)
		}
		c.useDevelopmentStorage()
	}

	if c.Provider == "" {
		c.Provider = infer(c)
	}

	switch c.Provider {
	case ProviderAzure:
		return c, c.completeAzure()
	case ProviderAWS:
		if c.Region == "" {
			return nil, errors.NewInvalidFormatError("connection string", "Region is required for aws", nil)
		}
	case ProviderGCP:
		if c.ProjectID == "" {
			return nil, errors.NewInvalidFormatError("connection string", "ProjectId is required for gcp", nil)
		}
	case ProviderRedis:
		if c.RedisAddr == "" {
			return nil, errors.NewInvalidFormatError("connection string", "RedisAddr is required for redis", nil)
		}
	case ProviderMemory:
	case "":
		return nil, errors.NewInvalidFormatError("connection string", "can not determine the provider", nil)
	default:
		return nil, errors.NewInvalidFormatError("connection string", fmt.Sprintf("unknown provider %q", c.Provider), nil)
	}
	return c, nil
}

func split(connectionString string) (map[string]string, error) {
	if strings.TrimSpace(connectionString) == "" {
		return nil, errors.NewInvalidFormatError("connection string", "the connection string is empty", nil)
	}

	settings := make(map[string]string)
	for _, segment := range strings.Split(connectionString, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		// values such as account keys and SAS tokens may contain '='
		key, value, ok := strings.Cut(segment, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.NewInvalidFormatError("connection string", fmt.Sprintf("segment %q is not Key=Value", segment), nil)
		}
		lower := strings.ToLower(key)
		if _, dup := settings[lower]; dup {
			return nil, errors.NewInvalidFormatError("connection string", fmt.Sprintf("duplicate key %q", key), nil)
		}
		settings[lower] = strings.TrimSpace(value)
	}
	if len(settings) == 0 {
		return nil, errors.NewInvalidFormatError("connection string", "no settings found", nil)
	}
	return settings, nil
}

func infer(c *Context) string {
	switch {
	case c.AccountName != "" || c.Development:
		return ProviderAzure
	case c.RedisAddr != "":
		return ProviderRedis
	case c.ProjectID != "":
		return ProviderGCP
	case c.Region != "" || c.AccessKeyID != "":
		return ProviderAWS
	}
	return ""
}

func (c *Context) useDevelopmentStorage() {
	c.Development = true
	c.Protocol = "http"
	c.AccountName = devAccountName
	c.AccountKey = devAccountKey
	c.BlobEndpoint = devHost + ":10000/" + devAccountName
	c.QueueEndpoint = devHost + ":10001/" + devAccountName
	c.TableEndpoint = devHost + ":10002/" + devAccountName
}

func (c *Context) completeAzure() error {
	if c.AccountName == "" && c.BlobEndpoint == "" && c.QueueEndpoint == "" && c.TableEndpoint == "" {
		return errors.NewInvalidFormatError("connection string", "AccountName is required for azure", nil)
	}
	if c.AccountKey == "" && c.SharedAccessSignature == "" {
		return errors.NewInvalidFormatError("connection string", "AccountKey or SharedAccessSignature is required for azure", nil)
	}
	if c.Protocol == "" {
		c.Protocol = "https"
	}
	if c.EndpointSuffix == "" {
		c.EndpointSuffix = "core.windows.net"
	}
	if c.AccountName != "" {
		endpoint := func(service string) string {
			return fmt.Sprintf("%s://%s.%s.%s", c.Protocol, c.AccountName, service, c.EndpointSuffix)
		}
		if c.TableEndpoint == "" {
			c.TableEndpoint = endpoint("table")
		}
		if c.QueueEndpoint == "" {
			c.QueueEndpoint = endpoint("queue")
		}
		if c.BlobEndpoint == "" {
			c.BlobEndpoint = endpoint("blob")
		}
	}
	return nil
}

// Keys returns the raw setting keys in sorted order, lower-cased
func (c *Context) Keys() []string {
	keys := make([]string, 0, len(c.settings))
	for k := range c.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
