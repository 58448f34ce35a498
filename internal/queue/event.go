// Package queue defines message payloads exchanged over the message broker
// and the publisher and consumer that move them.
package queue

import "time"

// MailQueueName is the durable queue carrying outbound mail.
const MailQueueName = "mail.outbound"

// MailJob is one email waiting for delivery. The HTML body is rendered by
// the producer so the worker needs no access to the database.
type MailJob struct {
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	HTML     string    `json:"html"`
	QueuedAt time.Time `json:"queued_at"`
}
