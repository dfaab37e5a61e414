package certificates

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const dateFormat = "2006-01-02"

// Repository handles certificate database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new certificate repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "certificates").Logger(),
	}
}

// Create inserts a new certificate. Generates an ID when none is set.
func (r *Repository) Create(cert *Certificate) error {
	if err := cert.Validate(); err != nil {
		return err
	}

	if cert.ID == "" {
		cert.ID = uuid.New().String()
	}

	now := time.Now()
	cert.CreatedAt = &now

	query := `
		INSERT INTO certificates
		(id, name, principal, duration_years, annual_rate, purchase_date, frequency, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		cert.ID,
		cert.Name,
		cert.Principal,
		cert.DurationYears,
		cert.AnnualRate,
		cert.PurchaseDate.Format(dateFormat),
		string(cert.Frequency),
		string(cert.Status),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert certificate: %w", err)
	}

	r.log.Info().Str("id", cert.ID).Str("name", cert.Name).Msg("Certificate created")
	return nil
}

// GetAll returns all certificates
func (r *Repository) GetAll() ([]Certificate, error) {
	rows, err := r.db.Query(`
		SELECT id, name, principal, duration_years, annual_rate, purchase_date, frequency, status, created_at
		FROM certificates
		ORDER BY purchase_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query certificates: %w", err)
	}
	defer rows.Close()

	var certs []Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}
		certs = append(certs, cert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating certificates: %w", err)
	}

	return certs, nil
}

// GetByID returns a certificate by ID, or nil when not found
func (r *Repository) GetByID(id string) (*Certificate, error) {
	rows, err := r.db.Query(`
		SELECT id, name, principal, duration_years, annual_rate, purchase_date, frequency, status, created_at
		FROM certificates
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query certificate: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	cert, err := scanCertificate(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan certificate: %w", err)
	}

	return &cert, nil
}

// GetByStatus returns certificates with the given status
func (r *Repository) GetByStatus(status Status) ([]Certificate, error) {
	rows, err := r.db.Query(`
		SELECT id, name, principal, duration_years, annual_rate, purchase_date, frequency, status, created_at
		FROM certificates
		WHERE status = ?
		ORDER BY purchase_date ASC
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query certificates by status: %w", err)
	}
	defer rows.Close()

	var certs []Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}
		certs = append(certs, cert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating certificates: %w", err)
	}

	return certs, nil
}

// UpdateStatus transitions a certificate to a new status
func (r *Repository) UpdateStatus(id string, status Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid certificate status: %s", status)
	}

	result, err := r.db.Exec("UPDATE certificates SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update certificate status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.log.Info().Str("id", id).Str("status", string(status)).Int64("rows_affected", rowsAffected).Msg("Certificate status updated")
	return nil
}

func scanCertificate(rows *sql.Rows) (Certificate, error) {
	var cert Certificate
	var purchaseDate, frequency, status, createdAt string

	err := rows.Scan(
		&cert.ID,
		&cert.Name,
		&cert.Principal,
		&cert.DurationYears,
		&cert.AnnualRate,
		&purchaseDate,
		&frequency,
		&status,
		&createdAt,
	)
	if err != nil {
		return cert, err
	}

	cert.PurchaseDate, err = time.Parse(dateFormat, purchaseDate)
	if err != nil {
		return cert, fmt.Errorf("invalid purchase date %q: %w", purchaseDate, err)
	}

	cert.Frequency, err = FrequencyFromString(frequency)
	if err != nil {
		return cert, err
	}

	cert.Status, err = StatusFromString(status)
	if err != nil {
		return cert, err
	}

	if created, err := time.Parse(time.RFC3339, createdAt); err == nil {
		cert.CreatedAt = &created
	}

	return cert, nil
}
