package mail

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"text/template"
	"time"

	"guardian/internal/config"

	"go.uber.org/zap"
)

// Mailgun delivers login codes through the Mailgun messages API.
//
// SendLoginCode never reports failure to its caller: whether the message
// went out must not leak into the request outcome, so problems are only
// logged. An unset API key or domain just means delivery is skipped.
type Mailgun struct {
	apiKey    string
	domain    string
	fromEmail string
	fromName  string
	appName   string
	expiry    time.Duration

	client *http.Client
	templ  *template.Template
	log    *zap.Logger
}

func NewMailgun(cfg config.Config, log *zap.Logger) *Mailgun {
	return &Mailgun{
		apiKey:    cfg.MailgunAPIKey,
		domain:    cfg.MailgunDomain,
		fromEmail: cfg.MailgunFromEmail,
		fromName:  cfg.MailgunFromName,
		appName:   cfg.AppName,
		expiry:    cfg.CodeExpiry,
		client:    &http.Client{Timeout: 10 * time.Second},
		templ:     template.Must(template.New("login-code").Parse(loginCodeTemplate)),
		log:       log,
	}
}

func (m *Mailgun) SendLoginCode(ctx context.Context, email, code string) error {
	if m.apiKey == "" || m.domain == "" {
		m.log.Error("mailgun not configured, login code not delivered")
		return nil
	}

	var body strings.Builder
	err := m.templ.Execute(&body, Params{
		Email:         email,
		AppName:       m.appName,
		Code:          code,
		ExpiryMinutes: int(m.expiry.Minutes()),
		SenderName:    m.fromName,
	})
	if err != nil {
		m.log.Error("email template failed", zap.Error(err))
		return nil
	}

	form := url.Values{}
	form.Set("from", fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail))
	form.Set("to", email)
	form.Set("subject", fmt.Sprintf("Your %s login code", m.appName))
	form.Set("text", body.String())

	endpoint := fmt.Sprintf("https://api.mailgun.net/v3/%s/messages", m.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		m.log.Error("mailgun request build failed", zap.Error(err))
		return nil
	}
	req.SetBasicAuth("api", m.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		m.log.Error("mailgun send failed", zap.String("email", MaskEmail(email)), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		m.log.Error("mailgun rejected message",
			zap.String("email", MaskEmail(email)),
			zap.Int("status", resp.StatusCode),
		)
		return nil
	}

	m.log.Info("login code sent", zap.String("email", MaskEmail(email)))
	return nil
}
