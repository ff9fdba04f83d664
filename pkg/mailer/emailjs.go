package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultEmailJSEndpoint is the EmailJS REST send endpoint.
const DefaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// EmailJSConfig holds the account keys and the template id per template name.
type EmailJSConfig struct {
	Endpoint   string
	ServiceID  string
	PublicKey  string
	PrivateKey string
	Templates  map[string]string
	// FromName is passed to every template as "name".
	FromName string
}

// Missing lists the required settings that are empty.
func (c EmailJSConfig) Missing() []string {
	var out []string
	if c.ServiceID == "" {
		out = append(out, "service_id")
	}
	if c.PublicKey == "" {
		out = append(out, "public_key")
	}
	if c.PrivateKey == "" {
		out = append(out, "private_key")
	}
	return out
}

// EmailJS sends mail through the EmailJS REST API.
type EmailJS struct {
	cfg    EmailJSConfig
	client *resty.Client
}

// NewEmailJS validates cfg and returns a sender. A nil client gets a
// default one that retries network errors and 5xx responses twice.
func NewEmailJS(cfg EmailJSConfig, client *resty.Client) (*EmailJS, error) {
	if missing := cfg.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("emailjs misconfigured, missing %v", missing)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEmailJSEndpoint
	}
	if client == nil {
		client = NewRESTClient(10*time.Second, 2)
	}
	return &EmailJS{cfg: cfg, client: client}, nil
}

// NewRESTClient returns a resty client that retries network errors and
// server errors up to retries times.
func NewRESTClient(timeout time.Duration, retries int) *resty.Client {
	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second)
	c.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		return r.StatusCode() >= 500
	})
	return c
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken"`
	TemplateParams map[string]string `json:"template_params"`
}

// ErrUnknownTemplate is returned when no template id is configured for a name.
var ErrUnknownTemplate = errors.New("unknown mail template")

func (e *EmailJS) Send(ctx context.Context, msg Message) error {
	templateID, ok := e.cfg.Templates[msg.Template]
	if !ok || templateID == "" {
		return fmt.Errorf("%w: %s", ErrUnknownTemplate, msg.Template)
	}
	params := map[string]string{"email": msg.To}
	if e.cfg.FromName != "" {
		params["name"] = e.cfg.FromName
	}
	for k, v := range msg.Params {
		params[k] = v
	}
	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(emailJSRequest{
			ServiceID:      e.cfg.ServiceID,
			TemplateID:     templateID,
			UserID:         e.cfg.PublicKey,
			AccessToken:    e.cfg.PrivateKey,
			TemplateParams: params,
		}).
		Post(e.cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("emailjs request: %w", err)
	}
	if resp.IsError() || resp.StatusCode() != http.StatusOK {
		detail := resp.String()
		if len(detail) > 512 {
			detail = detail[:512]
		}
		return fmt.Errorf("emailjs status %d: %s", resp.StatusCode(), strings.TrimSpace(detail))
	}
	return nil
}
