package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taxsavings-backend/internal/leads"
)

const defaultBrevoEndpoint = "https://api.brevo.com/v3/smtp/email"

// BrevoClient sends transactional email through the Brevo SMTP API.
type BrevoClient struct {
	apiKey      string
	senderEmail string
	senderName  string
	notifyEmail string
	notifyName  string
	sandbox     bool
	endpoint    string
	httpClient  *http.Client
}

type BrevoConfig struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	NotifyEmail string
	NotifyName  string
	Sandbox     bool
}

// NewBrevoClient returns nil when the API key or sender is missing; callers
// treat a nil client as "email disabled".
func NewBrevoClient(cfg BrevoConfig) *BrevoClient {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.SenderEmail) == "" {
		return nil
	}
	if strings.TrimSpace(cfg.SenderName) == "" {
		cfg.SenderName = cfg.SenderEmail
	}
	if strings.TrimSpace(cfg.NotifyEmail) == "" {
		cfg.NotifyEmail = cfg.SenderEmail
	}
	if strings.TrimSpace(cfg.NotifyName) == "" {
		cfg.NotifyName = cfg.SenderName
	}
	return &BrevoClient{
		apiKey:      cfg.APIKey,
		senderEmail: cfg.SenderEmail,
		senderName:  cfg.SenderName,
		notifyEmail: cfg.NotifyEmail,
		notifyName:  cfg.NotifyName,
		sandbox:     cfg.Sandbox,
		endpoint:    defaultBrevoEndpoint,
		httpClient:  &http.Client{Timeout: 8 * time.Second},
	}
}

// SendLeadNotification tells staff a calculator lead came in.
func (c *BrevoClient) SendLeadNotification(ctx context.Context, lead leads.Lead) (string, error) {
	if c == nil {
		return "", errors.New("brevo client is nil")
	}
	htmlBody, err := buildLeadNotificationHTML(lead)
	if err != nil {
		return "", err
	}
	subject := fmt.Sprintf("New %s lead - %s", kindLabel(lead.EstimateKind), lead.Name)
	return c.sendHTML(ctx, c.notifyEmail, c.notifyName, subject, htmlBody)
}

// SendLeadConfirmation sends the submitter a copy of their estimate.
func (c *BrevoClient) SendLeadConfirmation(ctx context.Context, lead leads.Lead) (string, error) {
	if c == nil {
		return "", errors.New("brevo client is nil")
	}
	htmlBody, err := buildLeadConfirmationHTML(lead)
	if err != nil {
		return "", err
	}
	subject := fmt.Sprintf("Your %s estimate", kindLabel(lead.EstimateKind))
	return c.sendHTML(ctx, lead.Email, lead.Name, subject, htmlBody)
}

func (c *BrevoClient) sendHTML(ctx context.Context, toEmail, toName, subject, htmlBody string) (string, error) {
	if c == nil {
		return "", errors.New("brevo client is nil")
	}
	if strings.TrimSpace(toEmail) == "" {
		return "", errors.New("missing recipient email")
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("missing subject")
	}
	if strings.TrimSpace(htmlBody) == "" {
		return "", errors.New("missing html body")
	}

	payload := brevoSendRequest{
		Sender: brevoSender{
			Name:  c.senderName,
			Email: c.senderEmail,
		},
		To: []brevoRecipient{
			{
				Email: toEmail,
				Name:  toName,
			},
		},
		Subject:     subject,
		HtmlContent: htmlBody,
	}
	if c.sandbox {
		payload.Headers = map[string]string{
			"X-Sib-Sandbox": "drop",
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("brevo marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("brevo create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("brevo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("brevo send failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out brevoSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("brevo decode response: %w", err)
	}
	if strings.TrimSpace(out.MessageID) == "" {
		return "", errors.New("brevo response missing messageId")
	}
	return out.MessageID, nil
}

type brevoSendRequest struct {
	Sender      brevoSender       `json:"sender"`
	To          []brevoRecipient  `json:"to"`
	Subject     string            `json:"subject"`
	HtmlContent string            `json:"htmlContent,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

type brevoSender struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type brevoRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoSendResponse struct {
	MessageID string `json:"messageId"`
}
