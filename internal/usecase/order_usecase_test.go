package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"traiteur_devis/internal/domain/entities"
	mock_interfaces "traiteur_devis/internal/usecase/interfaces/mocks"
	"traiteur_devis/internal/usecase/notification"
)

func TestOrderUseCase_SubmitOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid order has no side effect", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_interfaces.NewMockIOrderRepository(ctrl)
		mailer := mock_interfaces.NewMockIMailer(ctrl)
		uc := NewOrderUseCase(repo, mailer, notification.NewComposer("Traiteur", "admin@traiteur.test"), nil)

		o := testOrder()
		o.ContactData.GuestCount = 0
		_, err := uc.SubmitOrder(ctx, o)
		if !errors.Is(err, entities.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("stores and notifies client and admin", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_interfaces.NewMockIOrderRepository(ctrl)
		mailer := mock_interfaces.NewMockIMailer(ctrl)
		uc := NewOrderUseCase(repo, mailer, notification.NewComposer("Traiteur", "admin@traiteur.test"), nil)

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, o entities.Order) (entities.Order, error) {
			if o.ID == "" || o.Status != entities.OrderStatusPending || o.CreatedAt.IsZero() {
				t.Fatalf("unexpected order %+v", o)
			}
			return o, nil
		})
		var recipients []string
		mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Times(2).DoAndReturn(func(_ context.Context, msg entities.EmailMessage) (string, error) {
			recipients = append(recipients, msg.To)
			return "msg", nil
		})

		o := testOrder()
		o.ID = "client-chosen"
		created, err := uc.SubmitOrder(ctx, o)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if created.ID == "client-chosen" {
			t.Fatalf("expected a server assigned id")
		}
		if len(recipients) != 2 || recipients[0] != "claire@example.com" || recipients[1] != "admin@traiteur.test" {
			t.Fatalf("unexpected recipients %v", recipients)
		}
	})

	t.Run("mail failure keeps the order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_interfaces.NewMockIOrderRepository(ctrl)
		mailer := mock_interfaces.NewMockIMailer(ctrl)
		uc := NewOrderUseCase(repo, mailer, notification.NewComposer("Traiteur", ""), nil)

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, o entities.Order) (entities.Order, error) {
			return o, nil
		})
		mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return("", errors.New("smtp down"))

		if _, err := uc.SubmitOrder(ctx, testOrder()); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock_interfaces.NewMockIOrderRepository(ctrl)
		uc := NewOrderUseCase(repo, nil, notification.NewComposer("Traiteur", ""), nil)

		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(entities.Order{}, errors.New("throttled"))
		_, err := uc.SubmitOrder(ctx, testOrder())
		if !errors.Is(err, entities.ErrDependencyFailure) {
			t.Fatalf("expected dependency failure, got %v", err)
		}
	})
}

func TestOrderUseCase_GetByID(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := mock_interfaces.NewMockIOrderRepository(ctrl)
	uc := NewOrderUseCase(repo, nil, notification.Composer{}, nil)

	if _, err := uc.GetByID(ctx, " "); !errors.Is(err, ErrInvalidOrderID) {
		t.Fatalf("expected ErrInvalidOrderID, got %v", err)
	}

	repo.EXPECT().GetByID(gomock.Any(), "order-9").Return(entities.Order{}, nil)
	if _, err := uc.GetByID(ctx, "order-9"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	repo.EXPECT().GetByID(gomock.Any(), "order-1").Return(testOrder(), nil)
	o, err := uc.GetByID(ctx, "order-1")
	if err != nil || o.ID != "order-1" {
		t.Fatalf("unexpected result %+v %v", o, err)
	}
}
