/*
Package sqsqueue implements datastore.QueueService on Amazon SQS.

Importing the package registers the "sqsqueue" queue driver. Queue URLs are
resolved once per reference and cached. Dequeue receives one message and
leaves it in the queue; it becomes visible again when the visibility timeout
ends.

SQS refuses to recreate a queue for 60 seconds after it was deleted. The
driver reports that QueueDeletedRecently error as the QueueBeingDeleted
conflict, which the handle creator retries.
*/
package sqsqueue
