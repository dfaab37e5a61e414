package certificates

import "database/sql"

// CertificatesSchema defines the certificates table
const CertificatesSchema = `
CREATE TABLE IF NOT EXISTS certificates (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    principal REAL NOT NULL,
    duration_years INTEGER NOT NULL,
    annual_rate REAL NOT NULL,
    purchase_date TEXT NOT NULL,
    frequency TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'ACTIVE',
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_certificates_status ON certificates(status);
`

// InitSchema ensures the certificates table exists
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(CertificatesSchema)
	return err
}
