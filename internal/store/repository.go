/**
 * @description
 * This file defines the `Repository` interface: the contract for all ledger
 * and customer-data access the voice assistant needs. The dialogue core only
 * enforces ordering (authenticate, confirm twice, then execute); accounting
 * validation lives behind this interface and is reported through the sentinel
 * errors below, which the orchestrator surfaces as spoken replies.
 *
 * @dependencies
 * - internal/domain: domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/hare32/Collabothon-AIHolics/internal/domain"
)

// Domain validation errors returned by the ledger. These replace
// exception-style control flow: callers branch on them with errors.Is.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrAccountNotFound      = errors.New("account not found")
	ErrInvalidAmount        = errors.New("transfer amount must be positive")
	ErrInsufficientFunds    = errors.New("insufficient funds on the account")
	ErrRecipientDataMissing = errors.New("recipient data is missing")
)

// TransferParams carries the fully-resolved details of a confirmed transfer.
type TransferParams struct {
	Amount        float64
	RecipientName string
	RecipientIBAN string
	Title         string
}

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
	FindUserByPhone(ctx context.Context, phone string) (*domain.User, error)
	FindAccountByUserID(ctx context.Context, userID string) (*domain.Account, error)
	ListContactsByUserID(ctx context.Context, userID string) ([]domain.Contact, error)

	// ExecuteTransfer debits the sender's account and records the transaction
	// atomically. It returns the updated account, or one of the sentinel
	// errors above when validation fails.
	ExecuteTransfer(ctx context.Context, userID string, params TransferParams) (*domain.Account, error)

	// FindTransactionsBySenderID returns the most recent outgoing transfers,
	// newest first. limit <= 0 means no limit.
	FindTransactionsBySenderID(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
}
