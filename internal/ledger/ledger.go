// Package ledger is the append-only credit ledger. Balances are derived,
// never stored: every grant and spend is one signed row, and a spend is
// committed only inside a transaction that re-reads the balance.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// Entry is one ledger row. Amount is positive for grants, negative for
// spends; there are no refunds.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	Reason    string    `json:"reason"` // "grant", "chat", topic tag...
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Ledger serves balance reads and atomic spends on a shared database.
type Ledger struct {
	db  *sql.DB
	log *logrus.Entry
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the log entry.
func WithLogger(e *logrus.Entry) Option {
	return func(l *Ledger) { l.log = e }
}

// New creates the ledger table if needed and returns the Ledger.
func New(db *sql.DB, opts ...Option) (*Ledger, error) {
	l := &Ledger{db: db, log: logrus.NewEntry(logrus.StandardLogger())}
	for _, o := range opts {
		o(l)
	}
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS credit_ledger (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			amount     INTEGER NOT NULL,
			reason     TEXT NOT NULL,
			note       TEXT,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_user ON credit_ledger(user_id, created_at)`)
	if err != nil {
		return nil, fmt.Errorf("ledger: init schema: %w", err)
	}
	return l, nil
}

// Balance sums a user's entries; zero for an unknown user.
func (l *Ledger) Balance(ctx context.Context, userID string) (int64, error) {
	var bal sql.NullInt64
	err := l.db.QueryRowContext(ctx,
		`SELECT SUM(amount) FROM credit_ledger WHERE user_id = ?`, userID).Scan(&bal)
	if err != nil {
		return 0, fmt.Errorf("ledger: balance: %w", err)
	}
	return bal.Int64, nil
}

// Grant credits a user and returns the entry id.
func (l *Ledger) Grant(ctx context.Context, userID string, amount int64, note string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("ledger: grant amount must be positive")
	}
	id := ulid.Make().String()
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO credit_ledger (id, user_id, amount, reason, note, created_at)
		VALUES (?, ?, ?, 'grant', ?, ?)`,
		id, userID, amount, note, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("ledger: grant: %w", err)
	}
	l.log.WithFields(logrus.Fields{"user": userID, "amount": amount}).Info("credits granted")
	return id, nil
}

// Spend debits a user. The balance is re-read inside the transaction, so two
// racing spends can never drive it negative; false means not enough credits.
func (l *Ledger) Spend(ctx context.Context, userID string, amount int64, reason, note string) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("ledger: spend amount must be positive")
	}

	// BEGIN IMMEDIATE takes the write lock before the balance read, so
	// racing spends queue behind busy_timeout instead of failing when a
	// deferred transaction tries to upgrade at the insert.
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("ledger: conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return false, fmt.Errorf("ledger: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	var bal sql.NullInt64
	if err := conn.QueryRowContext(ctx,
		`SELECT SUM(amount) FROM credit_ledger WHERE user_id = ?`, userID).Scan(&bal); err != nil {
		return false, fmt.Errorf("ledger: spend balance read: %w", err)
	}
	if bal.Int64 < amount {
		return false, nil
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO credit_ledger (id, user_id, amount, reason, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ulid.Make().String(), userID, -amount, reason, note,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, fmt.Errorf("ledger: spend insert: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return false, fmt.Errorf("ledger: commit: %w", err)
	}
	committed = true
	l.log.WithFields(logrus.Fields{"user": userID, "amount": amount, "reason": reason}).Debug("credits spent")
	return true, nil
}

// History returns a user's most recent entries, newest first.
func (l *Ledger) History(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, user_id, amount, reason, note, created_at
		FROM credit_ledger WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			note    sql.NullString
			created string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Reason, &note, &created); err != nil {
			return nil, err
		}
		e.Note = note.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
