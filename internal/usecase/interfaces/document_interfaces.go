package interfaces

import (
	"context"

	"traiteur_devis/internal/domain/entities"
)

// IBudgetRenderer lays out a budget snapshot as a PDF. It formats values only.
type IBudgetRenderer interface {
	Render(data entities.BudgetData) ([]byte, error)
}

// IDocumentStorage stores binary content and returns its public URL.
type IDocumentStorage interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}
