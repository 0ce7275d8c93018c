/**
 * @description
 * This file defines the banking domain models consumed by the voice assistant:
 * the customer record used during voice authentication, the account the
 * assistant reads balances from and debits, saved contacts that transfer
 * recipients resolve against, and the transaction ledger rows.
 *
 * @notes
 * - Amounts are float64 PLN to match the spoken-number parser; the store
 *   rounds to grosz when persisting.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a bank customer reachable over the voice channel. The name, the
// national ID number and the PIN are what the authentication flow verifies.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	PESEL   string `json:"-"`
	PINCode string `json:"-"`
	Phone   string `json:"phone"`
}

// Account holds the single current account a customer operates by voice.
type Account struct {
	ID       string  `json:"id"`
	UserID   string  `json:"user_id"`
	IBAN     string  `json:"iban"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

// Contact is a saved transfer recipient. The nickname is what callers use in
// speech ("send fifty to mom"); the IBAN and default title fill the transfer.
type Contact struct {
	ID           int64  `json:"id"`
	UserID       string `json:"user_id"`
	Nickname     string `json:"nickname"`
	FullName     string `json:"full_name"`
	IBAN         string `json:"iban"`
	DefaultTitle string `json:"default_title"`
}

// Transaction is one outgoing transfer recorded in the ledger.
type Transaction struct {
	ID            uuid.UUID `json:"id"`
	SenderID      string    `json:"sender_id"`
	RecipientName string    `json:"recipient_name"`
	RecipientIBAN string    `json:"recipient_iban"`
	Title         string    `json:"title"`
	Amount        float64   `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}
