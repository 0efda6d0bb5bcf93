package database

import (
	"context"
	"database/sql"
)

// Schema is the full DDL for the raffle database.  The UNIQUE KEY on
// ticket_numbers.number is the invariant that prevents two tickets from ever
// claiming the same raffle number: concurrent issuance races resolve inside
// the transaction as a duplicate-key failure for the second writer instead
// of silent double allocation.
const Schema = `
CREATE TABLE IF NOT EXISTS sellers (
	id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	name          VARCHAR(100)    NOT NULL,
	username      VARCHAR(100)    NOT NULL,
	password_hash VARCHAR(100)    NOT NULL,
	session_token CHAR(64)        NULL,
	role          ENUM('seller','admin') NOT NULL DEFAULT 'seller',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	PRIMARY KEY (id),
	UNIQUE KEY uq_sellers_name (name),
	UNIQUE KEY uq_sellers_username (username)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

CREATE TABLE IF NOT EXISTS tickets (
	id                 BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	seller_id          BIGINT UNSIGNED NOT NULL,
	buyer_name         VARCHAR(150)    NOT NULL,
	buyer_phone_number VARCHAR(50)     NOT NULL,
	payment_method     VARCHAR(50)     NOT NULL,
	created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (id),
	KEY idx_tickets_seller (seller_id),
	CONSTRAINT fk_tickets_seller FOREIGN KEY (seller_id) REFERENCES sellers (id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

CREATE TABLE IF NOT EXISTS ticket_numbers (
	ticket_id BIGINT UNSIGNED   NOT NULL,
	number    SMALLINT UNSIGNED NOT NULL,
	PRIMARY KEY (ticket_id, number),
	UNIQUE KEY uq_ticket_numbers_number (number),
	CONSTRAINT fk_ticket_numbers_ticket FOREIGN KEY (ticket_id) REFERENCES tickets (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;

CREATE TABLE IF NOT EXISTS prizes (
	id             BIGINT UNSIGNED   NOT NULL AUTO_INCREMENT,
	prize_order    INT UNSIGNED      NOT NULL,
	title          VARCHAR(200)      NOT NULL,
	image_url      VARCHAR(500)      NOT NULL,
	winning_number SMALLINT UNSIGNED NULL,
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	PRIMARY KEY (id),
	UNIQUE KEY uq_prizes_order (prize_order)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
`

// statements splits the schema into individual DDL statements because the
// MySQL driver executes one statement per Exec call by default.
func statements() []string {
	var stmts []string
	start := 0
	for i := 0; i < len(Schema); i++ {
		if Schema[i] == ';' {
			stmt := Schema[start : i+1]
			if hasDDL(stmt) {
				stmts = append(stmts, stmt)
			}
			start = i + 1
		}
	}
	return stmts
}

func hasDDL(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', ';':
			continue
		default:
			return true
		}
	}
	return false
}

// EnsureSchema creates all tables if they do not already exist.  It is safe
// to call on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range statements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
