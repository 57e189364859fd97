package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/domain/pricing"
	"traiteur_devis/internal/infrastructure/logging"
	"traiteur_devis/internal/usecase/interfaces"
	"traiteur_devis/internal/usecase/notification"
)

var (
	ErrBudgetNotFound      = fmt.Errorf("budget %w", entities.ErrNotFound)
	ErrInvalidBudgetID     = entities.NewValidationError("id", "invalid budget id")
	ErrMissingActor        = entities.NewValidationError("actor", "the person performing the action is required")
	ErrBudgetAlreadyExists = errors.New("a budget already exists for this order")
	ErrPDFMissing          = errors.New("budget has no pdf, generate it first")
	ErrInvalidTransition   = errors.New("invalid budget status transition")
	ErrVersionConflict     = errors.New("budget was modified concurrently")
	ErrStrategyUnavailable = errors.New("pricing strategy not configured")
	ErrRollbackFailed      = errors.New("approval rollback failed, stored budget is still approved")
)

const (
	// maxEditAttempts bounds the compare-and-swap retries of one edit.
	maxEditAttempts = 3
	// rollbackTimeout bounds the approval revert, which runs detached from the
	// request context.
	rollbackTimeout = 5 * time.Second
)

// EditBudgetCommand replaces the BudgetData of a budget.
//
// With Recalculate set, derived amounts are rebuilt from quantities, unit prices
// and rates before validation; otherwise the payload must already reconcile.
type EditBudgetCommand struct {
	BudgetData  entities.BudgetData
	EditedBy    string
	Summary     string
	Recalculate bool
}

// IBudgetUseCase manages the budget lifecycle:
//
//	generate (v1, pending_review) -> edit* (v+1, pending_review, pdf cleared)
//	-> pdf -> approve and send | mark sent | reject
type IBudgetUseCase interface {
	GenerateBudget(ctx context.Context, orderID string, strategy string, generatedBy string) (entities.Budget, error)
	GetByID(ctx context.Context, id string) (entities.Budget, error)
	GetByOrderID(ctx context.Context, orderID string) (entities.Budget, error)
	EditBudget(ctx context.Context, id string, cmd EditBudgetCommand) (entities.Budget, error)
	GeneratePDF(ctx context.Context, id string) (entities.Budget, error)
	ApproveAndSend(ctx context.Context, id string, approvedBy string) (entities.Budget, error)
	MarkSent(ctx context.Context, id string, sentBy string) (entities.Budget, error)
	RejectBudget(ctx context.Context, id string, rejectedBy string, reason string) (entities.Budget, error)
	GetHistory(ctx context.Context, id string) (entities.BudgetHistory, error)
}

// BudgetDeps groups the collaborators of BudgetUseCase. Renderer, Storage and
// Mailer may be nil; the operations needing them then fail with a dependency error.
type BudgetDeps struct {
	Budgets         interfaces.IBudgetRepository
	Orders          interfaces.IOrderRepository
	Calculators     []pricing.Calculator
	DefaultStrategy pricing.Strategy
	Renderer        interfaces.IBudgetRenderer
	Storage         interfaces.IDocumentStorage
	Mailer          interfaces.IMailer
	Composer        notification.Composer
	Log             *logrus.Logger
	Now             func() time.Time
}

type BudgetUseCase struct {
	budgets         interfaces.IBudgetRepository
	orders          interfaces.IOrderRepository
	calculators     map[pricing.Strategy]pricing.Calculator
	defaultStrategy pricing.Strategy
	renderer        interfaces.IBudgetRenderer
	storage         interfaces.IDocumentStorage
	mailer          interfaces.IMailer
	composer        notification.Composer
	log             *logrus.Logger
	now             func() time.Time
}

var _ IBudgetUseCase = (*BudgetUseCase)(nil)

func NewBudgetUseCase(deps BudgetDeps) *BudgetUseCase {
	u := &BudgetUseCase{
		budgets:         deps.Budgets,
		orders:          deps.Orders,
		calculators:     make(map[pricing.Strategy]pricing.Calculator, len(deps.Calculators)),
		defaultStrategy: deps.DefaultStrategy,
		renderer:        deps.Renderer,
		storage:         deps.Storage,
		mailer:          deps.Mailer,
		composer:        deps.Composer,
		log:             deps.Log,
		now:             deps.Now,
	}
	for _, c := range deps.Calculators {
		u.calculators[c.Strategy()] = c
	}
	if u.defaultStrategy == "" {
		u.defaultStrategy = pricing.StrategyRules
	}
	if u.log == nil {
		u.log = logging.Discard()
	}
	if u.now == nil {
		u.now = func() time.Time { return time.Now().UTC() }
	}
	return u
}

// GenerateBudget prices an order and stores the result as version 1. Nothing is
// written unless the computed BudgetData passes validation.
func (u *BudgetUseCase) GenerateBudget(ctx context.Context, orderID string, strategy string, generatedBy string) (entities.Budget, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return entities.Budget{}, ErrInvalidOrderID
	}
	log := u.log.WithField("order_id", orderID)
	log.Info("[budget][usecase] generate start")

	calc, err := u.calculatorFor(strategy)
	if err != nil {
		return entities.Budget{}, err
	}
	log = log.WithField("strategy", calc.Strategy())

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		log.WithError(err).Error("[budget][usecase] failed loading order")
		return entities.Budget{}, entities.NewDependencyError("order storage", err)
	}
	if order.ID == "" {
		return entities.Budget{}, ErrOrderNotFound
	}

	existing, err := u.budgets.GetByOrderID(ctx, orderID)
	if err != nil {
		log.WithError(err).Error("[budget][usecase] failed loading existing budget")
		return entities.Budget{}, entities.NewDependencyError("budget storage", err)
	}
	if existing.ID != "" {
		log.WithField("budget_id", existing.ID).Info("[budget][usecase] budget already exists")
		return entities.Budget{}, ErrBudgetAlreadyExists
	}

	data, err := calc.ComputeBudget(ctx, order)
	if err == nil {
		err = pricing.Validate(data)
	}
	if err != nil {
		entry := log.WithError(err)
		if errors.Is(err, entities.ErrInvariantViolation) {
			entry.Error("[budget][usecase] computed budget does not reconcile")
		} else {
			entry.Warn("[budget][usecase] pricing failed")
		}
		return entities.Budget{}, err
	}

	now := u.now()
	budget := entities.Budget{
		ID:             uuid.NewString(),
		OrderID:        order.ID,
		Version:        1,
		Status:         entities.BudgetStatusPendingReview,
		Strategy:       string(calc.Strategy()),
		BudgetData:     data,
		VersionHistory: []entities.VersionHistoryEntry{},
		GeneratedBy:    generatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := budget.CheckInvariants(); err != nil {
		log.WithError(err).Error("[budget][usecase] invariant violated before create")
		return entities.Budget{}, err
	}

	created, err := u.budgets.Create(ctx, budget)
	if err != nil {
		log.WithError(err).Error("[budget][usecase] create failed")
		return entities.Budget{}, entities.NewDependencyError("budget storage", err)
	}
	if created.ID == "" {
		return entities.Budget{}, ErrBudgetAlreadyExists
	}
	log = log.WithField("budget_id", created.ID)

	if _, err := u.orders.MarkProcessed(ctx, order.ID, data.Totals.TotalTTC); err != nil {
		log.WithError(err).Warn("[budget][usecase] failed annotating order")
	}

	log.WithField("total_ttc", data.Totals.TotalTTC).Info("[budget][usecase] generate success")
	return created, nil
}

func (u *BudgetUseCase) calculatorFor(strategy string) (pricing.Calculator, error) {
	s := u.defaultStrategy
	if strings.TrimSpace(strategy) != "" {
		parsed, err := pricing.ParseStrategy(strategy)
		if err != nil {
			return nil, err
		}
		s = parsed
	}
	calc, ok := u.calculators[s]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStrategyUnavailable, s)
	}
	return calc, nil
}

func (u *BudgetUseCase) GetByID(ctx context.Context, id string) (entities.Budget, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Budget{}, ErrInvalidBudgetID
	}
	b, err := u.budgets.GetByID(ctx, id)
	if err != nil {
		return entities.Budget{}, entities.NewDependencyError("budget storage", err)
	}
	if b.ID == "" {
		return entities.Budget{}, ErrBudgetNotFound
	}
	return b, nil
}

func (u *BudgetUseCase) GetByOrderID(ctx context.Context, orderID string) (entities.Budget, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return entities.Budget{}, ErrInvalidOrderID
	}
	b, err := u.budgets.GetByOrderID(ctx, orderID)
	if err != nil {
		return entities.Budget{}, entities.NewDependencyError("budget storage", err)
	}
	if b.ID == "" {
		return entities.Budget{}, ErrBudgetNotFound
	}
	return b, nil
}

// EditBudget replaces the BudgetData, appends one history entry and bumps the
// version. The write is a compare-and-swap on the version read; a concurrent edit
// makes it reload, diff again and retry, so no history entry is ever lost.
func (u *BudgetUseCase) EditBudget(ctx context.Context, id string, cmd EditBudgetCommand) (entities.Budget, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Budget{}, ErrInvalidBudgetID
	}
	editedBy := strings.TrimSpace(cmd.EditedBy)
	if editedBy == "" {
		return entities.Budget{}, ErrMissingActor
	}

	data := cmd.BudgetData
	if cmd.Recalculate {
		data = pricing.Recalculate(data)
	}
	if err := pricing.Validate(data); err != nil {
		return entities.Budget{}, entities.NewValidationError("budgetData", err.Error())
	}

	log := u.log.WithFields(logrus.Fields{"budget_id": id, "edited_by": editedBy})
	for attempt := 1; attempt <= maxEditAttempts; attempt++ {
		current, err := u.GetByID(ctx, id)
		if err != nil {
			return entities.Budget{}, err
		}

		next := data
		if next.GeneratedAt.IsZero() {
			next.GeneratedAt = current.BudgetData.GeneratedAt
		}
		if next.ValidUntil.IsZero() {
			next.ValidUntil = current.BudgetData.ValidUntil
		}

		changes := pricing.Diff(current.BudgetData, next)
		newVersion := current.Version + 1
		summary := strings.TrimSpace(cmd.Summary)
		if summary == "" {
			summary = pricing.DefaultSummary(changes, newVersion)
		}

		now := u.now()
		updated, err := u.budgets.ApplyEdit(ctx, id, interfaces.BudgetEdit{
			ExpectedVersion: current.Version,
			BudgetData:      next,
			Entry: entities.VersionHistoryEntry{
				Version:   newVersion,
				ChangedBy: editedBy,
				ChangedAt: now,
				Changes:   changes,
				Summary:   summary,
			},
			EditedBy: editedBy,
			EditedAt: now,
		})
		if err != nil {
			log.WithError(err).Error("[budget][usecase] edit write failed")
			return entities.Budget{}, entities.NewDependencyError("budget storage", err)
		}
		if updated.ID == "" {
			log.WithFields(logrus.Fields{"expected_version": current.Version, "attempt": attempt}).
				Warn("[budget][usecase] edit lost a version race, retrying")
			continue
		}

		if err := u.checkStored(updated); err != nil {
			return entities.Budget{}, err
		}
		log.WithFields(logrus.Fields{"version": updated.Version, "changes": len(changes)}).Info("[budget][usecase] edit success")
		return updated, nil
	}
	return entities.Budget{}, ErrVersionConflict
}

// GeneratePDF renders the current version, uploads it and attaches its URL. The
// URL is only attached if no edit happened in between.
func (u *BudgetUseCase) GeneratePDF(ctx context.Context, id string) (entities.Budget, error) {
	current, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.Budget{}, err
	}
	if u.renderer == nil || u.storage == nil {
		return entities.Budget{}, entities.NewDependencyError("pdf pipeline", errors.New("not configured"))
	}
	log := u.log.WithFields(logrus.Fields{"budget_id": current.ID, "version": current.Version})

	doc, err := u.renderer.Render(current.BudgetData)
	if err != nil {
		log.WithError(err).Error("[budget][usecase] pdf render failed")
		return entities.Budget{}, entities.NewDependencyError("pdf renderer", err)
	}

	key := fmt.Sprintf("budgets/%s/v%d.pdf", current.ID, current.Version)
	url, err := u.storage.Upload(ctx, key, "application/pdf", doc)
	if err != nil {
		log.WithError(err).Error("[budget][usecase] pdf upload failed")
		return entities.Budget{}, entities.NewDependencyError("document storage", err)
	}

	updated, err := u.budgets.SetPDFURL(ctx, current.ID, current.Version, url)
	if err != nil {
		return entities.Budget{}, entities.NewDependencyError("budget storage", err)
	}
	if updated.ID == "" {
		return entities.Budget{}, u.explainRejectedWrite(ctx, current.ID, current.Version, false)
	}
	log.WithField("pdf_url", url).Info("[budget][usecase] pdf attached")
	return updated, nil
}

// ApproveAndSend approves a reviewed budget and mails it to the client. When the
// mail cannot be delivered the approval is rolled back and the error returned:
// an approved budget has always been delivered.
func (u *BudgetUseCase) ApproveAndSend(ctx context.Context, id string, approvedBy string) (entities.Budget, error) {
	approvedBy = strings.TrimSpace(approvedBy)
	if approvedBy == "" {
		return entities.Budget{}, ErrMissingActor
	}
	current, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.Budget{}, err
	}
	if !current.HasPDF() {
		return entities.Budget{}, ErrPDFMissing
	}
	if !current.Status.CanTransitionTo(entities.BudgetStatusApproved) {
		return entities.Budget{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, entities.BudgetStatusApproved)
	}
	if u.mailer == nil {
		return entities.Budget{}, entities.NewDependencyError("mailer", errors.New("not configured"))
	}
	log := u.log.WithFields(logrus.Fields{"budget_id": current.ID, "version": current.Version, "approved_by": approvedBy})

	approved, err := u.budgets.Approve(ctx, current.ID, current.Version, approvedBy, u.now())
	if err != nil {
		return entities.Budget{}, entities.NewDependencyError("budget storage", err)
	}
	if approved.ID == "" {
		return entities.Budget{}, u.explainRejectedWrite(ctx, current.ID, current.Version, true)
	}

	msg, err := u.composer.BudgetDelivery(approved.BudgetData, *approved.PDFURL)
	if err == nil {
		_, err = u.mailer.Send(ctx, msg)
	}
	if err != nil {
		log.WithError(err).Error("[budget][usecase] delivery failed, rolling back approval")
		sendErr := fmt.Errorf("budget %s was not sent: %w", current.ID, entities.NewDependencyError("mailer", err))
		if rbErr := u.revertApproval(ctx, current.ID); rbErr != nil {
			log.WithError(rbErr).Error("[budget][usecase] approval rollback failed")
			return entities.Budget{}, errors.Join(sendErr, fmt.Errorf("%w: %v", ErrRollbackFailed, rbErr))
		}
		return entities.Budget{}, sendErr
	}

	if err := u.checkStored(approved); err != nil {
		return entities.Budget{}, err
	}
	log.Info("[budget][usecase] approved and sent")
	return approved, nil
}

// revertApproval survives a cancelled or expired request: a failed send is
// most often that very context running out.
func (u *BudgetUseCase) revertApproval(ctx context.Context, id string) error {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	_, err := u.budgets.RevertApproval(rbCtx, id)
	return err
}

// MarkSent records a delivery made outside the service. No e-mail is sent.
func (u *BudgetUseCase) MarkSent(ctx context.Context, id string, sentBy string) (entities.Budget, error) {
	sentBy = strings.TrimSpace(sentBy)
	if sentBy == "" {
		return entities.Budget{}, ErrMissingActor
	}
	current, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.Budget{}, err
	}
	if !current.HasPDF() {
		return entities.Budget{}, ErrPDFMissing
	}
	if !current.Status.CanTransitionTo(entities.BudgetStatusSent) {
		return entities.Budget{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, entities.BudgetStatusSent)
	}

	sent, err := u.budgets.MarkSent(ctx, current.ID, sentBy, u.now())
	if err != nil {
		return entities.Budget{}, entities.NewDependencyError("budget storage", err)
	}
	if sent.ID == "" {
		return entities.Budget{}, u.explainRejectedWrite(ctx, current.ID, current.Version, true)
	}
	if err := u.checkStored(sent); err != nil {
		return entities.Budget{}, err
	}
	u.log.WithFields(logrus.Fields{"budget_id": sent.ID, "sent_by": sentBy}).Info("[budget][usecase] marked sent")
	return sent, nil
}

func (u *BudgetUseCase) RejectBudget(ctx context.Context, id string, rejectedBy string, reason string) (entities.Budget, error) {
	rejectedBy = strings.TrimSpace(rejectedBy)
	if rejectedBy == "" {
		return entities.Budget{}, ErrMissingActor
	}
	current, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.Budget{}, err
	}
	if !current.Status.CanTransitionTo(entities.BudgetStatusRejected) {
		return entities.Budget{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, entities.BudgetStatusRejected)
	}

	rejected, err := u.budgets.Reject(ctx, current.ID, rejectedBy, strings.TrimSpace(reason), u.now())
	if err != nil {
		return entities.Budget{}, entities.NewDependencyError("budget storage", err)
	}
	if rejected.ID == "" {
		return entities.Budget{}, u.explainRejectedWrite(ctx, current.ID, current.Version, false)
	}
	u.log.WithFields(logrus.Fields{"budget_id": rejected.ID, "rejected_by": rejectedBy}).Info("[budget][usecase] rejected")
	return rejected, nil
}

// GetHistory returns the version and a copy of the audit log.
func (u *BudgetUseCase) GetHistory(ctx context.Context, id string) (entities.BudgetHistory, error) {
	b, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.BudgetHistory{}, err
	}
	history := make([]entities.VersionHistoryEntry, len(b.VersionHistory))
	copy(history, b.VersionHistory)
	return entities.BudgetHistory{BudgetID: b.ID, Version: b.Version, VersionHistory: history}, nil
}

// explainRejectedWrite reloads a budget after a conditional write did not apply
// and reports why.
func (u *BudgetUseCase) explainRejectedWrite(ctx context.Context, id string, expectedVersion int, requirePDF bool) error {
	latest, err := u.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case latest.Version != expectedVersion:
		return ErrVersionConflict
	case requirePDF && !latest.HasPDF():
		return ErrPDFMissing
	default:
		return fmt.Errorf("%w: status is %s", ErrInvalidTransition, latest.Status)
	}
}

func (u *BudgetUseCase) checkStored(b entities.Budget) error {
	if err := b.CheckInvariants(); err != nil {
		u.log.WithError(err).WithField("budget_id", b.ID).Error("[budget][usecase] stored budget violates invariants")
		return err
	}
	return nil
}
