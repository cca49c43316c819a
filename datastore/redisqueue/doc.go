/*
Package redisqueue implements datastore.QueueService on Redis with go-redis.

Importing the package registers the "redisqueue" queue driver. A queue named
jobs uses these keys under the default prefix:

	storagekit:queue:jobs           marker, present while the queue exists
	storagekit:queue:jobs:messages  sorted set of message IDs scored by visibility time
	storagekit:queue:jobs:payloads  hash of message ID to payload
	storagekit:queue:jobs:deleted   tombstone with a TTL, written on delete

Dequeue hides the message for the visibility timeout instead of removing it.
While the tombstone lives, CreateIfNotExists reports the QueueBeingDeleted
conflict, which gives Redis the same delete-then-recreate race as the cloud
queue services.
*/
package redisqueue
