package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// ── House Specifications ──

// HouseSpec is the curated signification sheet for one bhava.
type HouseSpec struct {
	House          int    `json:"house"` // 1..12
	Name           string `json:"name"`
	Significations string `json:"significations"`
	Karaka         string `json:"karaka,omitempty"`
	BodyParts      string `json:"body_parts,omitempty"`
}

// UpsertHouseSpec writes one house's specification sheet.
func (s *Store) UpsertHouseSpec(ctx context.Context, spec HouseSpec) error {
	if spec.House < 1 || spec.House > 12 {
		return fmt.Errorf("store: house %d out of range", spec.House)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO house_specifications (house, name, significations, karaka, body_parts)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(house) DO UPDATE SET
			name = excluded.name,
			significations = excluded.significations,
			karaka = excluded.karaka,
			body_parts = excluded.body_parts`,
		spec.House, spec.Name, spec.Significations, spec.Karaka, spec.BodyParts)
	if err != nil {
		return fmt.Errorf("store: upsert house spec: %w", err)
	}
	return nil
}

// HouseSpec loads one house's sheet; nil when absent.
func (s *Store) HouseSpec(ctx context.Context, house int) (*HouseSpec, error) {
	var spec HouseSpec
	err := s.db.QueryRowContext(ctx, `
		SELECT house, name, significations, karaka, body_parts
		FROM house_specifications WHERE house = ?`, house).
		Scan(&spec.House, &spec.Name, &spec.Significations, &spec.Karaka, &spec.BodyParts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: load house spec: %w", err)
	}
	return &spec, nil
}

// HouseSpecs lists all stored house sheets in house order.
func (s *Store) HouseSpecs(ctx context.Context) ([]HouseSpec, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT house, name, significations, karaka, body_parts
		FROM house_specifications ORDER BY house`)
	if err != nil {
		return nil, fmt.Errorf("store: list house specs: %w", err)
	}
	defer rows.Close()

	var out []HouseSpec
	for rows.Next() {
		var spec HouseSpec
		if err := rows.Scan(&spec.House, &spec.Name, &spec.Significations, &spec.Karaka, &spec.BodyParts); err != nil {
			return nil, err
		}
		out = append(out, spec)
	}
	return out, rows.Err()
}

// ── House Combinations ──

// HouseCombination is one curated multi-house yoga rule.
type HouseCombination struct {
	ID        string    `json:"id"`
	Houses    []int     `json:"houses"`
	Name      string    `json:"name"`
	Effect    string    `json:"effect"`
	Source    string    `json:"source,omitempty"` // classical text citation
	CreatedAt time.Time `json:"created_at"`
}

// CreateHouseCombination inserts a rule and returns its ULID.
func (s *Store) CreateHouseCombination(ctx context.Context, c HouseCombination) (string, error) {
	if len(c.Houses) == 0 || c.Name == "" {
		return "", fmt.Errorf("store: combination needs houses and a name")
	}
	id := ulid.Make().String()
	houses, err := json.Marshal(c.Houses)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO house_combinations (id, houses, name, effect, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(houses), c.Name, c.Effect, c.Source, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("store: create combination: %w", err)
	}
	return id, nil
}

// UpdateHouseCombination rewrites an existing rule; false when the id is
// unknown.
func (s *Store) UpdateHouseCombination(ctx context.Context, c HouseCombination) (bool, error) {
	houses, err := json.Marshal(c.Houses)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE house_combinations SET houses = ?, name = ?, effect = ?, source = ?
		WHERE id = ?`, string(houses), c.Name, c.Effect, c.Source, c.ID)
	if err != nil {
		return false, fmt.Errorf("store: update combination: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// DeleteHouseCombination removes a rule; false when the id is unknown.
func (s *Store) DeleteHouseCombination(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM house_combinations WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("store: delete combination: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// HouseCombination loads one rule; nil when absent.
func (s *Store) HouseCombination(ctx context.Context, id string) (*HouseCombination, error) {
	var (
		c       HouseCombination
		houses  string
		created string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, houses, name, effect, source, created_at
		FROM house_combinations WHERE id = ?`, id).
		Scan(&c.ID, &houses, &c.Name, &c.Effect, &c.Source, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: load combination: %w", err)
	}
	if err := json.Unmarshal([]byte(houses), &c.Houses); err != nil {
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &c, nil
}

// HouseCombinations lists all rules, oldest first.
func (s *Store) HouseCombinations(ctx context.Context) ([]HouseCombination, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, houses, name, effect, source, created_at
		FROM house_combinations ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list combinations: %w", err)
	}
	defer rows.Close()

	var out []HouseCombination
	for rows.Next() {
		var (
			c       HouseCombination
			houses  string
			created string
		)
		if err := rows.Scan(&c.ID, &houses, &c.Name, &c.Effect, &c.Source, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(houses), &c.Houses); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ── Market Forecast Periods ──

// ForecastPeriod is one mundane-astrology market window.
type ForecastPeriod struct {
	ID      string    `json:"id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Trend   string    `json:"trend"` // bullish | bearish | volatile | neutral
	Score   float64   `json:"score"` // -1..1
	Drivers string    `json:"drivers,omitempty"`
}

// SaveForecastPeriods replaces all stored windows with the given set in one
// transaction.
func (s *Store) SaveForecastPeriods(ctx context.Context, periods []ForecastPeriod) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM market_forecast_periods`); err != nil {
		return fmt.Errorf("store: clear forecast: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range periods {
		id := p.ID
		if id == "" {
			id = ulid.Make().String()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO market_forecast_periods (id, start_date, end_date, trend, score, drivers, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, p.Start.UTC().Format(time.RFC3339), p.End.UTC().Format(time.RFC3339),
			p.Trend, p.Score, p.Drivers, now)
		if err != nil {
			return fmt.Errorf("store: save forecast period: %w", err)
		}
	}
	return tx.Commit()
}

// ForecastPeriods lists windows overlapping [from, to], earliest first.
func (s *Store) ForecastPeriods(ctx context.Context, from, to time.Time) ([]ForecastPeriod, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_date, end_date, trend, score, drivers
		FROM market_forecast_periods
		WHERE end_date >= ? AND start_date <= ?
		ORDER BY start_date`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("store: list forecast: %w", err)
	}
	defer rows.Close()

	var out []ForecastPeriod
	for rows.Next() {
		var (
			p          ForecastPeriod
			start, end string
		)
		if err := rows.Scan(&p.ID, &start, &end, &p.Trend, &p.Score, &p.Drivers); err != nil {
			return nil, err
		}
		p.Start, _ = time.Parse(time.RFC3339, start)
		p.End, _ = time.Parse(time.RFC3339, end)
		out = append(out, p)
	}
	return out, rows.Err()
}
