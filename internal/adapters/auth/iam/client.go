package iam

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vet-cardio-screening/internal/apperr"
	"vet-cardio-screening/internal/platform/httpclient"
	"vet-cardio-screening/internal/ports/auth"
)

var ErrNotConfigured = errors.New("iam client not configured")

// Config del cliente IAM. BaseURL y APIKey vienen de env en main.
type Config struct {
	BaseURL string
	APIKey  string

	// Header donde viaja la API key. Vacío => "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewClient(cfg Config) (*Client, error) {
	header := strings.TrimSpace(cfg.APIKeyHeader)
	if header == "" {
		header = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: header,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != "" && c.apiKey != ""
}

// VerifyToken valida el token contra el IAM y devuelve los claims con rol.
func (c *Client) VerifyToken(ctx context.Context, token string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, apperr.ErrUnauthorized
	}

	var out struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}

	err := c.http.DoJSON(ctx, http.MethodPost, "/v1/tokens/verify",
		map[string]string{
			c.apiKeyHeader:  c.apiKey,
			"Authorization": "Bearer " + token,
		},
		map[string]string{"token": token},
		&out,
	)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			switch httpErr.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden:
				return auth.Claims{}, fmt.Errorf("%w: iam rejected token", apperr.ErrUnauthorized)
			default:
				return auth.Claims{}, fmt.Errorf("%w: iam status=%d", apperr.ErrUnavailable, httpErr.StatusCode)
			}
		}
		return auth.Claims{}, fmt.Errorf("%w: iam: %v", apperr.ErrUnavailable, err)
	}

	out.UserID = strings.TrimSpace(out.UserID)
	if out.UserID == "" {
		return auth.Claims{}, fmt.Errorf("%w: iam response missing user_id", apperr.ErrUnauthorized)
	}
	role, ok := auth.ParseRole(out.Role)
	if !ok {
		return auth.Claims{}, fmt.Errorf("%w: unknown role %q", apperr.ErrUnauthorized, out.Role)
	}

	return auth.Claims{
		UserID:   out.UserID,
		Username: strings.TrimSpace(out.Username),
		Role:     role,
	}, nil
}
