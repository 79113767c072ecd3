package repository

import (
	"context"
	"errors"
	"time"

	"imobcrm_backend/internal/negotiations/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DocumentRecord is one document attached to a negotiation. The binary
// content lives in object storage; only metadata is kept here.
type DocumentRecord struct {
	ID            uuid.UUID
	NegotiationID uuid.UUID
	TenantID      uuid.UUID
	FileName      string
	FileKey       string
	ContentType   string
	SizeBytes     int64
	CreatedAt     time.Time
}

// DocumentParams describe one document append.
type DocumentParams struct {
	FileName    string
	FileKey     string
	ContentType string
	SizeBytes   int64
}

// AppendDocument inserts a document row and its DOCUMENTO_ADICIONADO
// timeline entry inside one transaction.
func (r *Repository) AppendDocument(ctx context.Context, tenantID, negotiationID uuid.UUID, params DocumentParams) (DocumentRecord, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return DocumentRecord{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM negotiations WHERE id = $1 AND tenant_id = $2)`,
		negotiationID, tenantID,
	).Scan(&exists); err != nil {
		return DocumentRecord{}, err
	}
	if !exists {
		return DocumentRecord{}, ErrNotFound
	}

	var doc DocumentRecord
	err = tx.QueryRow(ctx, `
		INSERT INTO negotiation_documents (negotiation_id, tenant_id, file_name, file_key, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, negotiation_id, tenant_id, file_name, file_key, content_type, size_bytes, created_at`,
		negotiationID, tenantID, params.FileName, params.FileKey, params.ContentType, params.SizeBytes,
	).Scan(
		&doc.ID, &doc.NegotiationID, &doc.TenantID,
		&doc.FileName, &doc.FileKey, &doc.ContentType, &doc.SizeBytes, &doc.CreatedAt,
	)
	if err != nil {
		return DocumentRecord{}, err
	}

	payload, err := domain.EncodeEventPayload(domain.EventDocumentoAdicionado, domain.DocumentoPayload{
		DocumentID: doc.ID,
		FileName:   doc.FileName,
	})
	if err != nil {
		return DocumentRecord{}, err
	}
	if err := appendEventTx(ctx, tx, tenantID, negotiationID, domain.EventDocumentoAdicionado, payload); err != nil {
		return DocumentRecord{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return DocumentRecord{}, err
	}
	return doc, nil
}

const listDocumentsQuery = `
	SELECT id, negotiation_id, tenant_id, file_name, file_key, content_type, size_bytes, created_at
	FROM negotiation_documents
	WHERE negotiation_id = $1 AND tenant_id = $2
	ORDER BY created_at ASC, id ASC`

// ListDocuments returns a negotiation's documents in append order.
func (r *Repository) ListDocuments(ctx context.Context, tenantID, negotiationID uuid.UUID) ([]DocumentRecord, error) {
	rows, err := r.pool.Query(ctx, listDocumentsQuery, negotiationID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]DocumentRecord, 0)
	for rows.Next() {
		var doc DocumentRecord
		if err := rows.Scan(
			&doc.ID, &doc.NegotiationID, &doc.TenantID,
			&doc.FileName, &doc.FileKey, &doc.ContentType, &doc.SizeBytes, &doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, doc)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// GetDocument fetches one document's metadata within the tenant.
func (r *Repository) GetDocument(ctx context.Context, tenantID, negotiationID, documentID uuid.UUID) (DocumentRecord, error) {
	var doc DocumentRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, negotiation_id, tenant_id, file_name, file_key, content_type, size_bytes, created_at
		FROM negotiation_documents
		WHERE id = $1 AND negotiation_id = $2 AND tenant_id = $3`,
		documentID, negotiationID, tenantID,
	).Scan(
		&doc.ID, &doc.NegotiationID, &doc.TenantID,
		&doc.FileName, &doc.FileKey, &doc.ContentType, &doc.SizeBytes, &doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DocumentRecord{}, ErrNotFound
		}
		return DocumentRecord{}, err
	}
	return doc, nil
}
