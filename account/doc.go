// Package account resolves the storage account a helper talks to.
//
// A Source names one of three origins: a configuration key whose value is a
// connection string, an explicit connection string, or a pre-built Context.
// Connection strings use the Key=Value;Key=Value form. Besides the Azure
// storage keys they accept Provider, Region, AccessKeyId, SecretAccessKey,
// SessionToken, Endpoint, ProjectId and RedisAddr, so one format selects any
// of the supported backends:
//
//	UseDevelopmentStorage=true
//	DefaultEndpointsProtocol=https;AccountName=acme;AccountKey=...
//	Provider=aws;Region=us-east-1;Endpoint=http://localhost:4566
//	Provider=gcp;ProjectId=demo;Endpoint=localhost:8085
//	Provider=redis;RedisAddr=localhost:6379
package account
