// Package profile stores the clinic details shown around the calculator:
// the practitioner named in summaries and print titles, and the suggested
// QR download filename. Calculator inputs are never stored.
package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Simplici0/costcalc/internal/calculator"
	"github.com/Simplici0/costcalc/internal/qr"
)

// ErrNotFound is returned when the profile row has not been seeded.
var ErrNotFound = errors.New("clinic profile not found")

// Profile is the single clinic profile row.
type Profile struct {
	PractitionerName string `validate:"required,max=80"`
	QRFilename       string `validate:"required,max=120,endswith=.png,excludesall=/\\"`
}

// Default returns the profile used before anything is configured.
func Default() Profile {
	return Profile{
		PractitionerName: calculator.DefaultPractitioner,
		QRFilename:       qr.DefaultFilename,
	}
}

// PrintTitle returns the title of the printable QR page.
func (p Profile) PrintTitle() string {
	return "QR • " + p.PractitionerName
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate trims p in place and checks field constraints.
func (p *Profile) Validate() error {
	p.PractitionerName = strings.TrimSpace(p.PractitionerName)
	p.QRFilename = strings.TrimSpace(p.QRFilename)

	if err := validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fmt.Errorf("%s is invalid (%s)", fieldErrs[0].Field(), fieldErrs[0].Tag())
		}
		return fmt.Errorf("validate profile: %w", err)
	}
	return nil
}

// Store reads and writes the profile row.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the stored profile.
func (s *Store) Get(ctx context.Context) (Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT practitioner_name, qr_filename
		FROM clinic_profile
		WHERE id = 1
	`).Scan(&p.PractitionerName, &p.QRFilename)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("query clinic_profile: %w", err)
	}
	return p, nil
}

// GetOrDefault returns the stored profile, or Default when none is stored.
func (s *Store) GetOrDefault(ctx context.Context) (Profile, error) {
	p, err := s.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	return p, err
}

// Update validates p and writes it, creating the row when missing.
func (s *Store) Update(ctx context.Context, p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clinic_profile (id, practitioner_name, qr_filename)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			practitioner_name = excluded.practitioner_name,
			qr_filename = excluded.qr_filename,
			updated_at = CURRENT_TIMESTAMP
	`, p.PractitionerName, p.QRFilename)
	if err != nil {
		return fmt.Errorf("update clinic_profile: %w", err)
	}
	return nil
}
