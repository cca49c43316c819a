/*
Package datastore defines the remote service boundary used by storagekit helpers.

Each resource kind has a service that mints references without I/O and a
reference type that talks to the backend:

	type TableService interface { Table(name string) Table }
	type QueueService interface { Queue(name string) Queue }
	type BlobService  interface { Container(name string) Container }
	type TopicService interface { Topic(name string) Topic }

Every reference is a Resource (Name, Exists, CreateIfNotExists). Drivers must
report the "resource is being deleted" create race with
errors.NewBeingDeletedError so that the handle creator can retry it, and every
other non-success status with errors.NewRemoteFailureError.

Implementations:
  - ddb: DynamoDB tables
  - azuretable, azurequeue, azureblob: Azure Storage
  - sqsqueue: Amazon SQS queues
  - s3blob: Amazon S3 buckets as containers
  - redisqueue: Redis sorted sets as queues
  - gcppubsub: Google Cloud Pub/Sub topics
  - mock: In-memory implementations for testing

awsutil and azureutil hold the account loading and error mapping shared by
the drivers of one cloud.
*/
package datastore
