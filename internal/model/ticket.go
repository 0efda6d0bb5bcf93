package model

import "time"

// NumbersPerTicket is the fixed count of raffle numbers on every ticket.
const NumbersPerTicket = 4

// Ticket records a single raffle entry sold by a seller to a buyer.  A
// ticket is created exactly once inside the issuance transaction and is
// immutable afterwards.  Its four numbers live in the `ticket_numbers`
// table, whose unique constraint on the number column guarantees that a
// number belongs to at most one ticket over the raffle's lifetime.
//
// Fields:
//  ID               – primary key identifier (sequential).
//  SellerID         – seller who issued the ticket.
//  BuyerName        – name of the buyer.
//  BuyerPhoneNumber – contact phone of the buyer.
//  PaymentMethod    – free-form payment method, e.g. "efectivo" or "transferencia".
//  Numbers          – the four distinct numbers in [0,999] held by this ticket.
//  CreatedAt        – creation timestamp.
type Ticket struct {
	ID               uint64    // tickets.id
	SellerID         uint64    // tickets.seller_id
	BuyerName        string    // tickets.buyer_name
	BuyerPhoneNumber string    // tickets.buyer_phone_number
	PaymentMethod    string    // tickets.payment_method
	Numbers          []int     // ticket_numbers rows for this ticket
	CreatedAt        time.Time // tickets.created_at
}

// TicketNumber links a ticket to one of its raffle numbers.  Each record
// claims a single number globally via the UNIQUE KEY on number.
//
// Fields:
//  TicketID – reference to the owning ticket.
//  Number   – the claimed number in [0,999].
type TicketNumber struct {
	TicketID uint64 // ticket_numbers.ticket_id
	Number   int    // ticket_numbers.number
}
