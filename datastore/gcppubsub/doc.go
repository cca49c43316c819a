/*
Package gcppubsub implements datastore.TopicService on Google Cloud Pub/Sub.

Importing the package registers the "gcppubsub" topic driver. The account
needs a ProjectId; an Endpoint setting points the client at the Pub/Sub
emulator:

	Provider=gcp;ProjectId=demo;Endpoint=localhost:8085

Subscription filters use the Pub/Sub filter syntax, for example
attributes.priority = "high". Receive pulls until one message arrives or the
context ends, acknowledges that message and returns it.
*/
package gcppubsub
