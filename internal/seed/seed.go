package seed

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"

	"github.com/Simplici0/costcalc/internal/profile"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail       string
	AdminPassword    string
	PractitionerName string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(ctx, tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureProfile(ctx, tx, cfg.PractitionerName, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(ctx context.Context, tx *sql.Tx, email, password string, stats *Stats) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, hash); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureProfile(ctx context.Context, tx *sql.Tx, practitioner string, stats *Stats) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM clinic_profile WHERE id = 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check clinic profile existence: %w", err)
	}
	if exists {
		return nil
	}

	p := profile.Default()
	if name := strings.TrimSpace(practitioner); name != "" {
		p.PractitionerName = name
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO clinic_profile (id, practitioner_name, qr_filename)
		VALUES (1, ?, ?)
	`, p.PractitionerName, p.QRFilename); err != nil {
		return fmt.Errorf("insert clinic profile singleton: %w", err)
	}
	stats.Inserts++
	return nil
}
