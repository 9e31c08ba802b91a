// Package store persists charts, generated reports and reference tables in
// a single SQLite database. Birth coordinates are sealed with an AEAD when
// an encryption key is configured.
package store

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/chacha20poly1305"
	_ "modernc.org/sqlite"

	"github.com/saptarishi/jyotishai/pkg/models"
)

// Store owns the database handle. Safe for concurrent use.
type Store struct {
	db   *sql.DB
	aead cipher.AEAD // nil = store plaintext
	log  *logrus.Entry
}

// Option configures a Store.
type Option func(*Store) error

// WithEncryptionKey arms AEAD sealing of birth data. The key is 32 bytes
// hex-encoded (64 characters).
func WithEncryptionKey(hexKey string) Option {
	return func(s *Store) error {
		if hexKey == "" {
			return nil
		}
		key, err := hex.DecodeString(hexKey)
		if err != nil || len(key) != chacha20poly1305.KeySize {
			return fmt.Errorf("store: encryption key must be %d hex-encoded bytes", chacha20poly1305.KeySize)
		}
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return err
		}
		s.aead = aead
		return nil
	}
}

// WithLogger sets the log entry.
func WithLogger(e *logrus.Entry) Option {
	return func(s *Store) error {
		s.log = e
		return nil
	}
}

// Open opens (or creates) the database at path. Use ":memory:" for tests.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: pragma: %w", err)
		}
	}

	s := &Store{db: db, log: logrus.NewEntry(logrus.StandardLogger())}
	for _, o := range opts {
		if err := o(s); err != nil {
			db.Close()
			return nil, err
		}
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the handle so sibling packages can share the database.
func (s *Store) DB() *sql.DB { return s.db }

// Encrypted reports whether birth data is AEAD-sealed at rest.
func (s *Store) Encrypted() bool { return s.aead != nil }

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS birth_charts (
			birth_hash  TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			label       TEXT,
			birth_data  BLOB NOT NULL,
			encrypted   INTEGER NOT NULL DEFAULT 0,
			chart_json  TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_birth_charts_user ON birth_charts(user_id);

		CREATE TABLE IF NOT EXISTS house_specifications (
			house          INTEGER PRIMARY KEY,
			name           TEXT NOT NULL,
			significations TEXT NOT NULL,
			karaka         TEXT,
			body_parts     TEXT
		);

		CREATE TABLE IF NOT EXISTS house_combinations (
			id         TEXT PRIMARY KEY,
			houses     TEXT NOT NULL,
			name       TEXT NOT NULL,
			effect     TEXT NOT NULL,
			source     TEXT,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS market_forecast_periods (
			id         TEXT PRIMARY KEY,
			start_date TEXT NOT NULL,
			end_date   TEXT NOT NULL,
			trend      TEXT NOT NULL,
			score      REAL NOT NULL,
			drivers    TEXT,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_forecast_start ON market_forecast_periods(start_date);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("store: init schema: %w", err)
	}
	return nil
}

// ── Birth Charts ──

// SavedChart is one stored birth chart row.
type SavedChart struct {
	BirthHash string           `json:"birth_hash"`
	UserID    string           `json:"user_id"`
	Label     string           `json:"label,omitempty"`
	Birth     models.BirthData `json:"birth"`
	CreatedAt time.Time        `json:"created_at"`
}

// SaveBirthChart upserts a birth chart, sealing the coordinates when a key
// is configured. chartJSON may be nil when only the coordinates are stored.
func (s *Store) SaveBirthChart(ctx context.Context, userID, label string, birth models.BirthData, chartJSON []byte) (string, error) {
	if err := birth.Validate(); err != nil {
		return "", err
	}
	hash := birth.Hash()

	raw, err := json.Marshal(birth)
	if err != nil {
		return "", err
	}
	blob, encrypted, err := s.seal(raw)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO birth_charts (birth_hash, user_id, label, birth_data, encrypted, chart_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(birth_hash) DO UPDATE SET
			label = excluded.label,
			chart_json = excluded.chart_json,
			updated_at = excluded.updated_at`,
		hash, userID, label, blob, boolToInt(encrypted), nullIfEmpty(chartJSON), now, now)
	if err != nil {
		return "", fmt.Errorf("store: save birth chart: %w", err)
	}
	return hash, nil
}

// BirthChart loads one birth chart by hash.
func (s *Store) BirthChart(ctx context.Context, hash string) (*SavedChart, []byte, error) {
	var (
		sc        SavedChart
		blob      []byte
		encrypted int
		chartJSON sql.NullString
		created   string
		label     sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, label, birth_data, encrypted, chart_json, created_at
		FROM birth_charts WHERE birth_hash = ?`, hash).
		Scan(&sc.UserID, &label, &blob, &encrypted, &chartJSON, &created)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("store: load birth chart: %w", err)
	}

	raw, err := s.open(blob, encrypted == 1)
	if err != nil {
		return nil, nil, err
	}
	if err := json.Unmarshal(raw, &sc.Birth); err != nil {
		return nil, nil, fmt.Errorf("store: decode birth data: %w", err)
	}
	sc.BirthHash = hash
	sc.Label = label.String
	sc.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &sc, []byte(chartJSON.String), nil
}

// BirthChartsForUser lists the charts a user has stored.
func (s *Store) BirthChartsForUser(ctx context.Context, userID string) ([]SavedChart, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT birth_hash, label, birth_data, encrypted, created_at
		FROM birth_charts WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list birth charts: %w", err)
	}
	defer rows.Close()

	var out []SavedChart
	for rows.Next() {
		var (
			sc        SavedChart
			blob      []byte
			encrypted int
			created   string
			label     sql.NullString
		)
		if err := rows.Scan(&sc.BirthHash, &label, &blob, &encrypted, &created); err != nil {
			return nil, err
		}
		raw, err := s.open(blob, encrypted == 1)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &sc.Birth); err != nil {
			return nil, err
		}
		sc.UserID = userID
		sc.Label = label.String
		sc.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, sc)
	}
	return out, rows.Err()
}

// DeleteBirthChart removes a chart and its generated insights.
func (s *Store) DeleteBirthChart(ctx context.Context, hash string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM birth_charts WHERE birth_hash = ?`, hash); err != nil {
		return fmt.Errorf("store: delete birth chart: %w", err)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name LIKE 'ai_%_insights'`)
	if err != nil {
		return err
	}
	defer rows.Close()
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, tbl := range tables {
		if _, err := s.db.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE birth_hash = ?`, tbl), hash); err != nil {
			return err
		}
	}
	return nil
}

// ── AI Insights ──

// insightTable maps a topic tag to its per-topic table name. Tags may carry
// a qualifier after a colon ("chat:career").
func insightTable(topic string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, topic)
	return "ai_" + clean + "_insights"
}

func (s *Store) ensureInsightTable(ctx context.Context, table string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			birth_hash TEXT PRIMARY KEY,
			data       TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`, table))
	return err
}

// SaveInsight upserts one generated report for a topic and birth hash.
func (s *Store) SaveInsight(ctx context.Context, topic, birthHash string, data []byte) error {
	table := insightTable(topic)
	if err := s.ensureInsightTable(ctx, table); err != nil {
		return fmt.Errorf("store: insight table: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (birth_hash, data, created_at) VALUES (?, ?, ?)
		ON CONFLICT(birth_hash) DO UPDATE SET data = excluded.data, created_at = excluded.created_at`,
		table), birthHash, string(data), now)
	if err != nil {
		return fmt.Errorf("store: save insight: %w", err)
	}
	return nil
}

// Insight loads a stored report. found is false when none exists.
func (s *Store) Insight(ctx context.Context, topic, birthHash string) ([]byte, time.Time, bool, error) {
	table := insightTable(topic)
	if err := s.ensureInsightTable(ctx, table); err != nil {
		return nil, time.Time{}, false, err
	}
	var (
		data    string
		created string
	)
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT data, created_at FROM %s WHERE birth_hash = ?`, table), birthHash).
		Scan(&data, &created)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("store: load insight: %w", err)
	}
	at, _ := time.Parse(time.RFC3339, created)
	return []byte(data), at, true, nil
}

// DeleteInsight drops one stored report, forcing regeneration.
func (s *Store) DeleteInsight(ctx context.Context, topic, birthHash string) error {
	table := insightTable(topic)
	if err := s.ensureInsightTable(ctx, table); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE birth_hash = ?`, table), birthHash)
	return err
}

// ── AEAD ──

// seal encrypts raw when a key is configured; the nonce is prepended.
func (s *Store) seal(raw []byte) ([]byte, bool, error) {
	if s.aead == nil {
		return raw, false, nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, false, err
	}
	return s.aead.Seal(nonce, nonce, raw, nil), true, nil
}

// open reverses seal.
func (s *Store) open(blob []byte, encrypted bool) ([]byte, error) {
	if !encrypted {
		return blob, nil
	}
	if s.aead == nil {
		return nil, fmt.Errorf("store: encrypted row but no key configured")
	}
	ns := s.aead.NonceSize()
	if len(blob) < ns {
		return nil, fmt.Errorf("store: sealed blob too short")
	}
	raw, err := s.aead.Open(nil, blob[:ns], blob[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("store: unseal: %w", err)
	}
	return raw, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
