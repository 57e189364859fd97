// Package mail delivers transactional e-mails through a Resend-compatible HTTP API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/infrastructure/config"
	"traiteur_devis/internal/usecase/interfaces"
)

var ErrMissingRecipient = entities.NewValidationError("to", "recipient is required")

const maxErrorBody = 512

type ResendMailer struct {
	apiKey string
	apiURL string
	from   string
	http   *http.Client
	log    *logrus.Logger
}

var _ interfaces.IMailer = (*ResendMailer)(nil)

// NewResendMailer returns a mailer for cfg. Without an API key messages are
// logged and never leave the process.
func NewResendMailer(cfg config.MailConfig, httpClient *http.Client, log *logrus.Logger) *ResendMailer {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	from := cfg.From
	if cfg.CompanyName != "" && !strings.Contains(from, "<") {
		from = fmt.Sprintf("%s <%s>", cfg.CompanyName, cfg.From)
	}
	return &ResendMailer{
		apiKey: cfg.APIKey,
		apiURL: cfg.APIURL,
		from:   from,
		http:   httpClient,
		log:    log,
	}
}

func (m *ResendMailer) Send(ctx context.Context, msg entities.EmailMessage) (string, error) {
	if strings.TrimSpace(msg.To) == "" {
		return "", ErrMissingRecipient
	}
	log := m.log.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject})

	if m.apiKey == "" {
		id := "log-" + uuid.NewString()
		log.WithField("message_id", id).Info("[mail] api key not set, message logged only")
		return id, nil
	}

	to := msg.To
	if msg.ToName != "" {
		to = fmt.Sprintf("%s <%s>", msg.ToName, msg.To)
	}
	body, err := json.Marshal(map[string]any{
		"from":    m.from,
		"to":      []string{to},
		"subject": msg.Subject,
		"html":    msg.HTML,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("[mail] request failed")
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := gjson.GetBytes(raw, "message").String()
		if detail == "" {
			detail = string(raw)
			if len(detail) > maxErrorBody {
				detail = detail[:maxErrorBody] + "..."
			}
		}
		log.WithField("status", resp.StatusCode).Warn("[mail] provider rejected message")
		return "", fmt.Errorf("mail api error (%d): %s", resp.StatusCode, detail)
	}

	id := gjson.GetBytes(raw, "id").String()
	if id == "" {
		return "", errors.New("mail api returned no message id")
	}
	log.WithField("message_id", id).Info("[mail] message sent")
	return id, nil
}
