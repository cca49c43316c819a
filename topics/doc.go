// Package topics publishes to pub/sub topics and receives from their subscriptions.
//
// Topics and subscriptions must be created explicitly with CreateTopic and
// Subscribe; Send and Receive report missing ones as ResourceNotFound.
// Payloads written by Publish are codec envelopes, read back with ReceiveAs.
package topics
