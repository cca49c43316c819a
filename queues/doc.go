// Package queues sends and receives codec-encoded messages through named queues.
//
// Queues are created the first time they are named. Dequeue reads the next
// visible message without acknowledging it; the backend makes it visible
// again after its visibility timeout.
package queues
