package model

import "time"

// Prize represents a row in the `prizes` table.  WinningNumber is set by an
// admin at draw time and may be cleared or re-set; it is a lookup key into
// ticket_numbers, which transitively yields the winning ticket and buyer.
//
// Fields:
//  ID            – primary key identifier.
//  PrizeOrder    – display/draw order (1 = first prize).
//  Title         – prize description shown in the gallery.
//  ImageURL      – picture of the prize.
//  WinningNumber – drawn number (nil while not yet drawn).
//  UpdatedAt     – timestamp of last update.
type Prize struct {
	ID            uint64    // prizes.id
	PrizeOrder    uint32    // prizes.prize_order
	Title         string    // prizes.title
	ImageURL      string    // prizes.image_url
	WinningNumber *int      // prizes.winning_number (nullable)
	UpdatedAt     time.Time // prizes.updated_at
}
