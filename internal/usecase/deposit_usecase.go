package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/domain/pricing"
	"traiteur_devis/internal/infrastructure/logging"
	"traiteur_devis/internal/usecase/interfaces"
)

var (
	ErrDepositNotFound                = fmt.Errorf("deposit %w", entities.ErrNotFound)
	ErrInvalidDepositID               = entities.NewValidationError("id", "invalid deposit id")
	ErrInvalidProviderPayload         = entities.NewValidationError("payload", "invalid payment provider payload")
	ErrBudgetNotApproved              = errors.New("budget not approved")
	ErrPaymentGatewayBadRequest       = errors.New("payment gateway bad request")
	ErrPaymentGatewayUnauthorized     = errors.New("payment gateway unauthorized")
	ErrPaymentGatewayInvalidUsers     = errors.New("payment gateway invalid users involved")
	ErrPaymentGatewayCustomerNotFound = errors.New("payment gateway customer not found")
)

// IDepositUseCase collects the deposit (acompte) of an approved budget.
type IDepositUseCase interface {
	CreateAndApprove(ctx context.Context, budgetID string, providerPayload json.RawMessage) (entities.DepositPayment, error)
	GetByID(ctx context.Context, id string) (entities.DepositPayment, error)
	ListByBudgetID(ctx context.Context, budgetID string) ([]entities.DepositPayment, error)
}

// DepositSettings tunes the deposit flow. In Sandbox mode payer defaults are filled
// in for the provider's test accounts.
type DepositSettings struct {
	Rate            float64
	Sandbox         bool
	TestPayerEmail  string
	TestPayerUserID string
}

type DepositUseCase struct {
	repo     interfaces.IDepositRepository
	budgets  interfaces.IBudgetRepository
	gateway  interfaces.IPaymentGateway
	settings DepositSettings
	log      *logrus.Logger
	now      func() time.Time
}

var _ IDepositUseCase = (*DepositUseCase)(nil)

func NewDepositUseCase(repo interfaces.IDepositRepository, budgets interfaces.IBudgetRepository, gateway interfaces.IPaymentGateway, settings DepositSettings, log *logrus.Logger) *DepositUseCase {
	if settings.Rate <= 0 || settings.Rate > 1 {
		settings.Rate = 0.30
	}
	if log == nil {
		log = logging.Discard()
	}
	return &DepositUseCase{
		repo:     repo,
		budgets:  budgets,
		gateway:  gateway,
		settings: settings,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// DepositAmount is the share of the budget total charged upfront.
func (u *DepositUseCase) DepositAmount(b entities.Budget) float64 {
	return pricing.Round2(b.BudgetData.Totals.TotalTTC * u.settings.Rate)
}

func (u *DepositUseCase) CreateAndApprove(ctx context.Context, budgetID string, providerPayload json.RawMessage) (entities.DepositPayment, error) {
	budgetID = strings.TrimSpace(budgetID)
	if budgetID == "" {
		return entities.DepositPayment{}, ErrInvalidBudgetID
	}
	log := u.log.WithFields(logrus.Fields{"budget_id": budgetID, "payload_len": len(providerPayload)})
	log.Info("[deposit][usecase] create-and-approve start")

	if len(providerPayload) == 0 {
		providerPayload = json.RawMessage("{}")
	}
	var reqMap map[string]any
	if err := json.Unmarshal(providerPayload, &reqMap); err != nil || reqMap == nil {
		log.Info("[deposit][usecase] invalid payload (not a json object)")
		return entities.DepositPayment{}, ErrInvalidProviderPayload
	}
	if u.gateway == nil {
		log.Error("[deposit][usecase] gateway not configured")
		return entities.DepositPayment{}, entities.NewDependencyError("payment gateway", errors.New("not configured"))
	}

	budget, err := u.budgets.GetByID(ctx, budgetID)
	if err != nil {
		log.WithError(err).Error("[deposit][usecase] failed loading budget")
		return entities.DepositPayment{}, entities.NewDependencyError("budget storage", err)
	}
	if budget.ID == "" {
		return entities.DepositPayment{}, ErrBudgetNotFound
	}
	if budget.Status != entities.BudgetStatusApproved && budget.Status != entities.BudgetStatusSent {
		log.WithField("status", budget.Status).Info("[deposit][usecase] budget not approved")
		return entities.DepositPayment{}, ErrBudgetNotApproved
	}

	amount := u.DepositAmount(budget)
	if u.settings.Sandbox {
		u.normalizeSandboxPayerFromUserID(reqMap)
		u.ensurePayerDefaults(reqMap, budget.BudgetData.ClientInfo.Email)
	} else if _, ok := reqMap["payer"]; !ok && budget.BudgetData.ClientInfo.Email != "" {
		reqMap["payer"] = map[string]any{"email": budget.BudgetData.ClientInfo.Email}
	}
	if !hasNonEmptyString(reqMap, "payment_method_id") && !u.settings.Sandbox {
		log.Info("[deposit][usecase] missing payment_method_id")
		return entities.DepositPayment{}, ErrInvalidProviderPayload
	}
	if !hasPayer(reqMap) {
		log.Info("[deposit][usecase] missing/invalid payer")
		return entities.DepositPayment{}, ErrInvalidProviderPayload
	}

	// external_reference lets the provider's notifications be matched to the budget.
	if _, ok := reqMap["external_reference"]; !ok {
		reqMap["external_reference"] = budgetID
	}
	if _, ok := reqMap["description"]; !ok {
		reqMap["description"] = fmt.Sprintf("Acompte devis %s", budgetID)
	}
	reqMap["transaction_amount"] = amount
	payload, err := json.Marshal(reqMap)
	if err != nil {
		return entities.DepositPayment{}, err
	}
	log = log.WithField("amount", amount)

	providerPaymentID, providerStatus, providerResp, err := u.gateway.CreatePayment(ctx, payload)
	if err != nil {
		log.WithError(err).Error("[deposit][usecase] payment gateway failed")
		switch {
		case isGatewayCustomerNotFound(err):
			return entities.DepositPayment{}, ErrPaymentGatewayCustomerNotFound
		case isGatewayInvalidUsers(err):
			return entities.DepositPayment{}, ErrPaymentGatewayInvalidUsers
		case isGatewayUnauthorized(err):
			return entities.DepositPayment{}, ErrPaymentGatewayUnauthorized
		case isGatewayBadRequest(err):
			return entities.DepositPayment{}, ErrPaymentGatewayBadRequest
		}
		return entities.DepositPayment{}, entities.NewDependencyError("payment gateway", err)
	}
	log = log.WithFields(logrus.Fields{"provider_payment_id": providerPaymentID, "provider_status": providerStatus})
	log.Info("[deposit][usecase] payment gateway success")

	var parsed map[string]interface{}
	if err := json.Unmarshal(providerResp, &parsed); err != nil {
		log.WithError(err).Warn("[deposit][usecase] provider response unmarshal failed")
	}

	p := entities.DepositPayment{
		ID:                 providerPaymentID,
		BudgetID:           budgetID,
		Amount:             amount,
		Date:               u.now(),
		Status:             depositStatus(providerStatus),
		ProviderPayloadRaw: providerResp,
		ProviderPayload:    parsed,
	}

	created, err := u.repo.Create(ctx, p)
	if err != nil {
		log.WithError(err).Error("[deposit][usecase] deposit repository create failed")
		return entities.DepositPayment{}, entities.NewDependencyError("deposit storage", err)
	}
	log.WithField("status", created.Status).Info("[deposit][usecase] create-and-approve success")
	return created, nil
}

func depositStatus(providerStatus string) entities.DepositStatus {
	switch strings.ToLower(providerStatus) {
	case "approved", "authorized":
		return entities.DepositStatusApproved
	case "rejected", "cancelled", "refunded", "charged_back":
		return entities.DepositStatusDenied
	default:
		return entities.DepositStatusPending
	}
}

func hasNonEmptyString(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	return strings.TrimSpace(s) != ""
}

func hasPayer(m map[string]any) bool {
	v, ok := m["payer"]
	if !ok {
		return false
	}
	payer, ok := v.(map[string]any)
	if !ok {
		return false
	}
	return hasNonEmptyString(payer, "email") || hasPayerID(payer)
}

func hasPayerID(payer map[string]any) bool {
	v, ok := payer["id"]
	if !ok || v == nil {
		return false
	}
	s := strings.TrimSpace(fmt.Sprintf("%v", v))
	return s != "" && s != "<nil>"
}

// ensurePayerDefaults fills the payer for sandbox payments. The client e-mail is
// used unless a test payer is configured.
func (u *DepositUseCase) ensurePayerDefaults(m map[string]any, clientEmail string) {
	v, ok := m["payer"]
	if !ok || v == nil {
		v = map[string]any{}
		m["payer"] = v
	}
	payer, ok := v.(map[string]any)
	if !ok {
		return
	}
	if _, ok := payer["type"]; !ok {
		payer["type"] = "customer"
	}
	if hasPayerID(payer) || hasNonEmptyString(payer, "email") {
		return
	}
	switch {
	case u.settings.TestPayerEmail != "":
		payer["email"] = u.settings.TestPayerEmail
	case clientEmail != "":
		payer["email"] = clientEmail
	}
}

// normalizeSandboxPayerFromUserID swaps the configured test user id for its e-mail,
// which is what the sandbox accepts.
func (u *DepositUseCase) normalizeSandboxPayerFromUserID(m map[string]any) {
	payer, ok := m["payer"].(map[string]any)
	if !ok || !hasPayerID(payer) || hasNonEmptyString(payer, "email") {
		return
	}
	if u.settings.TestPayerUserID == "" || u.settings.TestPayerEmail == "" {
		return
	}
	if strings.TrimSpace(fmt.Sprintf("%v", payer["id"])) != u.settings.TestPayerUserID {
		return
	}
	payer["email"] = u.settings.TestPayerEmail
	delete(payer, "id")
	u.log.Debug("[deposit][usecase] mapped sandbox payer user_id to payer.email")
}

func isGatewayBadRequest(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "\"error\":\"bad_request\"") || strings.Contains(msg, "\"status\":400")
}

func isGatewayUnauthorized(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "\"error\":\"unauthorized\"") || strings.Contains(msg, "\"status\":401")
}

func isGatewayInvalidUsers(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "invalid users involved") || strings.Contains(msg, "\"code\":2034")
}

func isGatewayCustomerNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "customer not found") || strings.Contains(msg, "\"code\":2002")
}

func (u *DepositUseCase) GetByID(ctx context.Context, id string) (entities.DepositPayment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.DepositPayment{}, ErrInvalidDepositID
	}
	p, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.DepositPayment{}, entities.NewDependencyError("deposit storage", err)
	}
	if p.ID == "" {
		return entities.DepositPayment{}, ErrDepositNotFound
	}
	return p, nil
}

func (u *DepositUseCase) ListByBudgetID(ctx context.Context, budgetID string) ([]entities.DepositPayment, error) {
	budgetID = strings.TrimSpace(budgetID)
	if budgetID == "" {
		return nil, ErrInvalidBudgetID
	}
	list, err := u.repo.ListByBudgetID(ctx, budgetID)
	if err != nil {
		return nil, entities.NewDependencyError("deposit storage", err)
	}
	return list, nil
}
