package domain

import "time"

const (
	EventInvoiceCreated = "invoice.created"
	EventInvoiceDeleted = "invoice.deleted"
)

// InvoiceEvent is published after an invoice is created or deleted.
type InvoiceEvent struct {
	Type         string    `json:"type"`
	InvoiceID    string    `json:"invoiceId"`
	CustomerName string    `json:"customerName,omitempty"`
	Total        string    `json:"total,omitempty"`
	LineCount    int       `json:"lineCount,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}
