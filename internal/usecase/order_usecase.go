package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/infrastructure/logging"
	"traiteur_devis/internal/usecase/interfaces"
	"traiteur_devis/internal/usecase/notification"
)

var (
	ErrOrderNotFound  = fmt.Errorf("order %w", entities.ErrNotFound)
	ErrInvalidOrderID = entities.NewValidationError("id", "invalid order id")
)

// IOrderUseCase handles devis requests coming from the public quote form.
type IOrderUseCase interface {
	SubmitOrder(ctx context.Context, order entities.Order) (entities.Order, error)
	GetByID(ctx context.Context, id string) (entities.Order, error)
}

type OrderUseCase struct {
	repo     interfaces.IOrderRepository
	mailer   interfaces.IMailer
	composer notification.Composer
	log      *logrus.Logger
	now      func() time.Time
}

var _ IOrderUseCase = (*OrderUseCase)(nil)

func NewOrderUseCase(repo interfaces.IOrderRepository, mailer interfaces.IMailer, composer notification.Composer, log *logrus.Logger) *OrderUseCase {
	if log == nil {
		log = logging.Discard()
	}
	return &OrderUseCase{
		repo:     repo,
		mailer:   mailer,
		composer: composer,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SubmitOrder validates and stores a new order, then notifies the client and the
// admin. Notification failures are logged; the order stands.
func (u *OrderUseCase) SubmitOrder(ctx context.Context, order entities.Order) (entities.Order, error) {
	if err := order.Validate(); err != nil {
		u.log.WithError(err).Info("[order][usecase] submit rejected")
		return entities.Order{}, err
	}

	now := u.now()
	order.ID = uuid.NewString()
	order.Status = entities.OrderStatusPending
	order.EstimatedPrice = nil
	order.CreatedAt = now
	order.UpdatedAt = now

	log := u.log.WithFields(logrus.Fields{"order_id": order.ID, "guest_count": order.ContactData.GuestCount, "menu_type": order.MenuType})
	created, err := u.repo.Create(ctx, order)
	if err != nil {
		log.WithError(err).Error("[order][usecase] create failed")
		return entities.Order{}, entities.NewDependencyError("order storage", err)
	}
	log.Info("[order][usecase] order created")

	u.notify(ctx, created)
	return created, nil
}

func (u *OrderUseCase) notify(ctx context.Context, o entities.Order) {
	if u.mailer == nil {
		return
	}
	log := u.log.WithField("order_id", o.ID)

	ack, err := u.composer.OrderReceived(o)
	if err == nil {
		_, err = u.mailer.Send(ctx, ack)
	}
	if err != nil {
		log.WithError(err).Warn("[order][usecase] client acknowledgment not sent")
	}

	if u.composer.AdminEmail == "" {
		return
	}
	alert, err := u.composer.NewOrderAlert(o)
	if err == nil {
		_, err = u.mailer.Send(ctx, alert)
	}
	if err != nil {
		log.WithError(err).Warn("[order][usecase] admin alert not sent")
	}
}

func (u *OrderUseCase) GetByID(ctx context.Context, id string) (entities.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Order{}, ErrInvalidOrderID
	}
	o, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Order{}, entities.NewDependencyError("order storage", err)
	}
	if o.ID == "" {
		return entities.Order{}, ErrOrderNotFound
	}
	return o, nil
}
