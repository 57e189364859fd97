package interfaces

import (
	"context"

	"traiteur_devis/internal/domain/entities"
)

// IMailer delivers one transactional e-mail and returns the provider message id.
type IMailer interface {
	Send(ctx context.Context, msg entities.EmailMessage) (string, error)
}
