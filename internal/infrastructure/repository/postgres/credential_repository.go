package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/micromerit/ai-service/internal/core/domain"
)

const credentialColumns = `id, learner_email, certificate_title, issuer_name, filename, storage_path, content_hash,
	status, error_message, certificate_id, extraction, extracted_text, created_at, updated_at`

type CredentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CredentialRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101601)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS credentials (
	id TEXT PRIMARY KEY,
	learner_email TEXT NOT NULL,
	certificate_title TEXT NOT NULL DEFAULT '',
	issuer_name TEXT NOT NULL DEFAULT '',
	filename TEXT NOT NULL,
	storage_path TEXT NOT NULL DEFAULT '',
	content_hash TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	certificate_number TEXT,
	certificate_id JSONB NOT NULL DEFAULT '{}'::jsonb,
	extraction JSONB NOT NULL DEFAULT '{}'::jsonb,
	extracted_text TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_credentials_learner_email ON credentials(learner_email);
CREATE INDEX IF NOT EXISTS idx_credentials_certificate_number ON credentials(certificate_number);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *CredentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	certIDJSON, extractionJSON, err := marshalResult(cred.CertificateID, cred.Extraction)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO credentials (
	id, learner_email, certificate_title, issuer_name, filename, storage_path, content_hash,
	status, error_message, certificate_number, certificate_id, extraction, extracted_text, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
`,
		cred.ID, domain.NormalizeEmail(cred.LearnerEmail), cred.CertificateTitle, cred.IssuerName, cred.Filename,
		cred.StoragePath, cred.ContentHash, string(cred.Status), cred.Error, cred.CertificateID.CertificateNumber,
		certIDJSON, extractionJSON, cred.ExtractedText, cred.CreatedAt, cred.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) GetByID(ctx context.Context, id string) (*domain.Credential, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE id = $1`, id)

	cred, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrCredentialNotFound, "get credential", fmt.Errorf("id %s", id))
		}
		return nil, err
	}
	return cred, nil
}

func (r *CredentialRepository) ListByLearner(ctx context.Context, email string) ([]domain.Credential, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+credentialColumns+`
FROM credentials
WHERE learner_email = $1
ORDER BY created_at ASC
`, domain.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("query learner credentials: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Credential, 0)
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate learner credentials: %w", err)
	}
	return out, nil
}

func (r *CredentialRepository) UpdateStatus(ctx context.Context, id string, status domain.CredentialStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE credentials
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update credential status: %w", err)
	}
	return ensureAffected(result, "update credential status", id)
}

// SaveResult stores the pipeline output and marks the credential ready.
func (r *CredentialRepository) SaveResult(ctx context.Context, id string, res domain.OCRResult) error {
	certIDJSON, extractionJSON, err := marshalResult(res.CertificateID, res.SkillExtraction)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE credentials
SET status = $2, error_message = '', certificate_number = $3, certificate_id = $4, extraction = $5,
	extracted_text = $6, updated_at = $7
WHERE id = $1
`, id, string(domain.CredentialReady), res.CertificateID.CertificateNumber, certIDJSON, extractionJSON,
		res.ExtractedText, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save credential result: %w", err)
	}
	return ensureAffected(result, "save credential result", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*domain.Credential, error) {
	var cred domain.Credential
	var status string
	var certIDRaw, extractionRaw []byte

	err := row.Scan(
		&cred.ID, &cred.LearnerEmail, &cred.CertificateTitle, &cred.IssuerName, &cred.Filename, &cred.StoragePath,
		&cred.ContentHash, &status, &cred.Error, &certIDRaw, &extractionRaw, &cred.ExtractedText,
		&cred.CreatedAt, &cred.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan credential: %w", err)
	}
	cred.Status = domain.CredentialStatus(status)

	if err := json.Unmarshal(certIDRaw, &cred.CertificateID); err != nil {
		return nil, fmt.Errorf("unmarshal certificate id: %w", err)
	}
	if err := json.Unmarshal(extractionRaw, &cred.Extraction); err != nil {
		return nil, fmt.Errorf("unmarshal extraction: %w", err)
	}
	return &cred, nil
}

func marshalResult(certID domain.ExtractionResult, extraction domain.SkillExtraction) ([]byte, []byte, error) {
	certIDJSON, err := json.Marshal(certID)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal certificate id: %w", err)
	}
	extractionJSON, err := json.Marshal(extraction)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal extraction: %w", err)
	}
	return certIDJSON, extractionJSON, nil
}

func ensureAffected(result sql.Result, op, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrCredentialNotFound, op, fmt.Errorf("id %s", id))
	}
	return nil
}
