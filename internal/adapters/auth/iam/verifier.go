package iam

import (
	"context"
	"fmt"
	"strings"

	"vet-cardio-screening/internal/apperr"
	"vet-cardio-screening/internal/ports/auth"
)

// Verifier implementa auth.AuthVerifier contra el IAM remoto.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	if strings.TrimSpace(token) == "" {
		return auth.Claims{}, fmt.Errorf("%w: empty token", apperr.ErrUnauthorized)
	}
	return v.client.VerifyToken(ctx, token)
}
