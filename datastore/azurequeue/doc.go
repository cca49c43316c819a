/*
Package azurequeue implements datastore.QueueService on Azure Queue Storage.

Importing the package registers the "azurequeue" queue driver. Dequeue gets
one message and leaves it in the queue; it becomes visible again after the
visibility timeout. A 409 QueueBeingDeleted on create is reported as the
conflict the handle creator retries.
*/
package azurequeue
