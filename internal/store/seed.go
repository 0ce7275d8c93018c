/**
 * @description
 * Startup schema creation and demo-data seeding. The service is demoed
 * against a fresh database, so it creates its tables idempotently and, when
 * the users table is empty, inserts the demo customer with an account, saved
 * contacts and a realistic transfer history for the "same amount as last
 * time" and history-readout flows.
 */

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id       TEXT PRIMARY KEY,
		name     TEXT NOT NULL,
		pesel    TEXT NOT NULL,
		pin_code TEXT NOT NULL,
		phone    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id       TEXT PRIMARY KEY,
		user_id  TEXT NOT NULL REFERENCES users(id),
		iban     TEXT NOT NULL,
		balance  DOUBLE PRECISION NOT NULL,
		currency TEXT NOT NULL DEFAULT 'PLN'
	)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id            BIGSERIAL PRIMARY KEY,
		user_id       TEXT NOT NULL REFERENCES users(id),
		nickname      TEXT NOT NULL,
		full_name     TEXT NOT NULL,
		iban          TEXT NOT NULL,
		default_title TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id             UUID PRIMARY KEY,
		sender_id      TEXT NOT NULL REFERENCES users(id),
		recipient_name TEXT NOT NULL,
		recipient_iban TEXT NOT NULL,
		title          TEXT NOT NULL,
		amount         DOUBLE PRECISION NOT NULL,
		ts             TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// EnsureSchema creates the tables if they do not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

type seedContact struct {
	nickname     string
	fullName     string
	iban         string
	defaultTitle string
}

type seedTransaction struct {
	recipientName string
	recipientIBAN string
	title         string
	amount        float64
}

// SeedDemoData inserts the demo customer, account, contacts and transfer
// history when the database is empty. The seeded history reduces the opening
// balance, so the account reflects the transfers it lists.
func SeedDemoData(ctx context.Context, db *pgxpool.Pool) error {
	var existing int
	if err := db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&existing); err != nil {
		return fmt.Errorf("failed to check for existing users: %w", err)
	}
	if existing > 0 {
		return nil
	}

	const userID = "user-1"

	_, err := db.Exec(ctx,
		`INSERT INTO users (id, name, pesel, pin_code, phone) VALUES ($1, $2, $3, $4, $5)`,
		userID, "John Smith", "12345678901", "4321", "+48123123123",
	)
	if err != nil {
		return fmt.Errorf("failed to seed demo user: %w", err)
	}

	contacts := []seedContact{
		{"mom", "Barbara Smith", "PL27114020040000300201355387", "Transfer for mom"},
		{"dad", "Andrew Smith", "PL02105000997603123456789123", "Transfer for dad"},
		{"grandson", "Michael Nowak", "PL12116022020000000012345678", "Gift for grandson"},
		{"neighbor", "Adam Green", "PL88114020040000300201399999", "Loan for neighbor"},
		{"child_support_fund", "Child Support Fund", "PL12109010140000071219800000", "Payment to child support fund"},
		{"rent", "Green Housing Cooperative", "PL34175000120000000012345678", "Apartment rent"},
	}
	for _, c := range contacts {
		_, err := db.Exec(ctx,
			`INSERT INTO contacts (user_id, nickname, full_name, iban, default_title) VALUES ($1, $2, $3, $4, $5)`,
			userID, c.nickname, c.fullName, c.iban, c.defaultTitle,
		)
		if err != nil {
			return fmt.Errorf("failed to seed contact %q: %w", c.nickname, err)
		}
	}

	history := []seedTransaction{
		{"Green Housing Cooperative", "PL34175000120000000012345678", "Apartment rent", 700.0},
		{"PGE Energy", "PL64102055581111123456789012", "Electricity bill", 100.0},
		{"Orange Telecom", "PL27114020040000300201311111", "Phone subscription", 60.0},
		{"UPC Internet", "PL30102055581111123456789099", "Home internet", 40.0},
		{"Michael Nowak", "PL12116022020000000012345678", "Gift for grandson", 50.0},
		{"Helios Cinema", "PL12105000997603123456789111", "Cinema night", 30.0},
		{"Charity WOŚP", "PL30114020040000300201322222", "Charity donation", 10.0},
		{"Adam Green", "PL88114020040000300201399999", "Shopping refund", 5.0},
		{"MPK Lodz", "PL27114020040000300201344444", "Monthly ticket", 3.0},
		{"Child Support Fund", "PL12109010140000071219800000", "Payment to child support fund", 2.0},
	}

	balance := 4000.0
	// Space the seeded transfers backwards in time so "newest first" ordering
	// is deterministic: the oldest entry in the slice is the most recent.
	ts := time.Now().UTC()
	for i, tx := range history {
		_, err := db.Exec(ctx,
			`INSERT INTO transactions (id, sender_id, recipient_name, recipient_iban, title, amount, ts)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.New(), userID, tx.recipientName, tx.recipientIBAN, tx.title, tx.amount,
			ts.Add(-time.Duration(i)*24*time.Hour),
		)
		if err != nil {
			return fmt.Errorf("failed to seed transaction %q: %w", tx.title, err)
		}
		balance -= tx.amount
	}

	_, err = db.Exec(ctx,
		`INSERT INTO accounts (id, user_id, iban, balance, currency) VALUES ($1, $2, $3, $4, $5)`,
		"acc-1", userID, "PL61109010140000071219812874", balance, "PLN",
	)
	if err != nil {
		return fmt.Errorf("failed to seed demo account: %w", err)
	}

	return nil
}
