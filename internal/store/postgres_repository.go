/**
 * @description
 * PostgreSQL implementation of the `Repository` interface using the pgx
 * driver and a connection pool. Transfer execution runs in a transaction
 * with a row lock on the account so concurrent calls cannot double-spend.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver and pool.
 * - github.com/google/uuid: transaction identifiers.
 */

package store

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hare32/Collabothon-AIHolics/internal/domain"
)

// PostgresRepository provides ledger access backed by PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindUserByID retrieves a customer record by its identifier.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, name, pesel, pin_code, phone FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&user.ID, &user.Name, &user.PESEL, &user.PINCode, &user.Phone)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindUserByPhone resolves the caller from the telephony "From" number.
func (r *PostgresRepository) FindUserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, name, pesel, pin_code, phone FROM users WHERE phone = $1`
	err := r.db.QueryRow(ctx, query, strings.TrimSpace(phone)).Scan(&user.ID, &user.Name, &user.PESEL, &user.PINCode, &user.Phone)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindAccountByUserID retrieves the customer's current account.
func (r *PostgresRepository) FindAccountByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	var account domain.Account
	query := `SELECT id, user_id, iban, balance, currency FROM accounts WHERE user_id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&account.ID, &account.UserID, &account.IBAN, &account.Balance, &account.Currency)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// ListContactsByUserID returns all saved recipients for a customer.
func (r *PostgresRepository) ListContactsByUserID(ctx context.Context, userID string) ([]domain.Contact, error) {
	query := `SELECT id, user_id, nickname, full_name, iban, default_title FROM contacts WHERE user_id = $1 ORDER BY nickname`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Nickname, &c.FullName, &c.IBAN, &c.DefaultTitle); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// ExecuteTransfer debits the account and inserts the ledger row atomically.
func (r *PostgresRepository) ExecuteTransfer(ctx context.Context, userID string, params TransferParams) (*domain.Account, error) {
	amount := roundToGrosz(params.Amount)
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(params.RecipientName) == "" || strings.TrimSpace(params.RecipientIBAN) == "" {
		return nil, ErrRecipientDataMissing
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transfer transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var account domain.Account
	lockQuery := `SELECT id, user_id, iban, balance, currency FROM accounts WHERE user_id = $1 FOR UPDATE`
	err = tx.QueryRow(ctx, lockQuery, userID).Scan(&account.ID, &account.UserID, &account.IBAN, &account.Balance, &account.Currency)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if account.Balance < amount {
		return nil, ErrInsufficientFunds
	}

	account.Balance = roundToGrosz(account.Balance - amount)
	if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = $1 WHERE id = $2`, account.Balance, account.ID); err != nil {
		return nil, fmt.Errorf("failed to debit account: %w", err)
	}

	insert := `
		INSERT INTO transactions (id, sender_id, recipient_name, recipient_iban, title, amount, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.Exec(ctx, insert, uuid.New(), userID, params.RecipientName, params.RecipientIBAN, params.Title, amount, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transfer: %w", err)
	}
	return &account, nil
}

// FindTransactionsBySenderID returns recent outgoing transfers, newest first.
func (r *PostgresRepository) FindTransactionsBySenderID(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	query := `
		SELECT id, sender_id, recipient_name, recipient_iban, title, amount, ts
		FROM transactions
		WHERE sender_id = $1
		ORDER BY ts DESC
	`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.SenderID, &t.RecipientName, &t.RecipientIBAN, &t.Title, &t.Amount, &t.Timestamp); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// roundToGrosz keeps persisted amounts at two decimal places.
func roundToGrosz(v float64) float64 {
	return math.Round(v*100) / 100
}
