package events

// Topic constants for domain events emitted by the pricing service.
const (
	// TopicTicketUpdated carries a ticket.Snapshot: the rewritten ticket and
	// its recalculated totals in one payload.
	TopicTicketUpdated = "ticket.updated"
	// TopicPartListDetected announces a bundle substitution; the payload is
	// the detected bundle product.
	TopicPartListDetected = "partlist.detected"
	// TopicOrderCreated fires after an order document was accepted by the
	// gateway.
	TopicOrderCreated = "order.created"
)
