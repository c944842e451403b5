// Package sqlite provides a read-only memory.Source over the club database
// snapshot. The account and transaction tables mirror the club schema; tags
// are stored as a JSON array column.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/peacockclub/assistant/memory"
)

// Source fetches accounts and transactions from a SQLite database.
type Source struct {
	db *sql.DB
}

// Open opens the database at the given path (or DSN) and verifies the
// connection.
func Open(path string) (*Source, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open club database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping club database: %w", err)
	}
	return &Source{db: db}, nil
}

// NewWithDB wires a Source over an existing connection (tests, pooling).
func NewWithDB(db *sql.DB) *Source {
	return &Source{db: db}
}

// Close releases the database connection.
func (s *Source) Close() error {
	return s.db.Close()
}

// FetchAccounts returns every account row. All-or-nothing: a scan failure
// fails the whole call.
func (s *Source) FetchAccounts(ctx context.Context) ([]memory.AccountLite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, first_name, COALESCE(last_name, ''), type, status,
		       COALESCE(email, ''), username, COALESCE(phone, ''),
		       access_level, role, started_at, created_at
		FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []memory.AccountLite
	for rows.Next() {
		var a memory.AccountLite
		err := rows.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Type, &a.Status,
			&a.Email, &a.Username, &a.Phone, &a.AccessLevel, &a.Role,
			&a.StartedAt, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

// FetchTransactions returns up to params.Limit most-recent transactions,
// optionally restricted to those on or after params.Since.
func (s *Source) FetchTransactions(ctx context.Context, params memory.FetchParams) ([]memory.TxLite, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = memory.DefaultMaxTransactions
	}

	query := `
		SELECT id, from_id, to_id, amount, currency, type, method, occurred_at,
		       COALESCE(reference_id, ''), COALESCE(description, ''),
		       COALESCE(tags, '[]'), COALESCE(created_by_id, '')
		FROM transactions`
	args := []interface{}{}
	if !params.Since.IsZero() {
		query += ` WHERE occurred_at >= ?`
		args = append(args, params.Since)
	}
	query += ` ORDER BY occurred_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txs []memory.TxLite
	for rows.Next() {
		var tx memory.TxLite
		var tags string
		err := rows.Scan(&tx.ID, &tx.FromID, &tx.ToID, &tx.Amount, &tx.Currency,
			&tx.Type, &tx.Method, &tx.OccurredAt, &tx.ReferenceID,
			&tx.Description, &tags, &tx.CreatedByID)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &tx.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for transaction %s: %w", tx.ID, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}
