package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for profile persistence.
// The abstraction keeps the session manager testable without a database.
type Repository interface {
	// Get retrieves the profile for a device name.
	// Returns ErrProfileNotFound if no profile is stored.
	Get(ctx context.Context, device string) (*Profile, error)

	// Put inserts or replaces a device's profile.
	Put(ctx context.Context, p *Profile) error

	// Delete removes a device's profile.
	// Returns ErrProfileNotFound if no profile is stored.
	Delete(ctx context.Context, device string) error

	// List retrieves all stored profiles.
	List(ctx context.Context) ([]Profile, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed profile repository.
// The db parameter should be an open connection with migrations applied.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get retrieves the profile for a device name.
func (r *SQLiteRepository) Get(ctx context.Context, device string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT device, axis_mode, template, axes, updated_at
		FROM profiles
		WHERE device = ?`, device)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, device)
		}
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return p, nil
}

// Put inserts or replaces a device's profile.
func (r *SQLiteRepository) Put(ctx context.Context, p *Profile) error {
	axesJSON, err := json.Marshal(p.Axes)
	if err != nil {
		return fmt.Errorf("encoding axis transforms: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO profiles (device, axis_mode, template, axes, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(device) DO UPDATE SET
			axis_mode = excluded.axis_mode,
			template = excluded.template,
			axes = excluded.axes,
			updated_at = excluded.updated_at`,
		p.Device, string(p.Mode), p.Template, string(axesJSON), now)
	if err != nil {
		return fmt.Errorf("storing profile: %w", err)
	}

	p.UpdatedAt = now
	return nil
}

// Delete removes a device's profile.
func (r *SQLiteRepository) Delete(ctx context.Context, device string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM profiles WHERE device = ?", device)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %q", ErrProfileNotFound, device)
	}
	return nil
}

// List retrieves all stored profiles ordered by device name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT device, axis_mode, template, axes, updated_at
		FROM profiles
		ORDER BY device`)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}
	return out, nil
}

// scanner abstracts sql.Row and sql.Rows for scanProfile.
type scanner interface {
	Scan(dest ...any) error
}

// scanProfile reads one profile row.
func scanProfile(s scanner) (*Profile, error) {
	var (
		p        Profile
		mode     string
		axesJSON string
	)
	if err := s.Scan(&p.Device, &mode, &p.Template, &axesJSON, &p.UpdatedAt); err != nil {
		return nil, err
	}

	p.Mode = AxisMode(mode)
	if axesJSON != "" {
		if err := json.Unmarshal([]byte(axesJSON), &p.Axes); err != nil {
			return nil, fmt.Errorf("decoding axis transforms: %w", err)
		}
	}
	return &p, nil
}
