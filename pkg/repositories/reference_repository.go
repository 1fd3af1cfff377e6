package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ezirisk/ezirisk-engine/pkg/database"
	"github.com/ezirisk/ezirisk-engine/pkg/models"
)

// ReferenceRepository allocates sequential action reference numbers per
// organisation, document type, and year. Allocation is atomic: the counter
// row is upserted and incremented in a single statement.
type ReferenceRepository interface {
	NextSequence(ctx context.Context, orgID uuid.UUID, docType models.DocumentType, year int) (int, error)
}

type referenceRepository struct{}

// NewReferenceRepository creates a new ReferenceRepository.
func NewReferenceRepository() ReferenceRepository {
	return &referenceRepository{}
}

var _ ReferenceRepository = (*referenceRepository)(nil)

func (r *referenceRepository) NextSequence(ctx context.Context, orgID uuid.UUID, docType models.DocumentType, year int) (int, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO engine_reference_counters (org_id, doc_type, year, counter)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (org_id, doc_type, year)
		DO UPDATE SET counter = engine_reference_counters.counter + 1
		RETURNING counter`

	var seq int
	if err := scope.Conn.QueryRow(ctx, query, orgID, docType, year).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to allocate reference number: %w", err)
	}
	return seq, nil
}
