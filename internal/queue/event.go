// Package queue defines message payloads exchanged over the message broker.
package queue

// TicketIssuedEvent is published when a ticket commits.  It carries enough
// for downstream consumers (the shareable ticket-image renderer, the audit
// log) to work without querying the primary database.
type TicketIssuedEvent struct {
	TicketID         uint64 `json:"ticket_id"`
	SellerID         uint64 `json:"seller_id"`
	SellerName       string `json:"seller_name"`
	BuyerName        string `json:"buyer_name"`
	BuyerPhoneNumber string `json:"buyer_phone_number"`
	PaymentMethod    string `json:"payment_method"`
	Numbers          []int  `json:"numbers"`
	IssuedAt         string `json:"issued_at"`
}

// WinnerSetEvent is published when an admin assigns a winning number to a
// prize, triggering winner-image generation downstream.
type WinnerSetEvent struct {
	PrizeID       uint64 `json:"prize_id"`
	PrizeOrder    uint32 `json:"prize_order"`
	Title         string `json:"title"`
	WinningNumber int    `json:"winning_number"`
	SetAt         string `json:"set_at"`
}
