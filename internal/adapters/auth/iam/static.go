package iam

import (
	"context"
	"fmt"

	"vet-cardio-screening/internal/apperr"
	"vet-cardio-screening/internal/ports/auth"
)

// StaticVerifier resuelve tokens contra un mapa fijo.
// Para dev y tests de router; nunca para producción.
type StaticVerifier struct {
	tokens map[string]auth.Claims
}

func NewStaticVerifier(tokens map[string]auth.Claims) *StaticVerifier {
	cp := make(map[string]auth.Claims, len(tokens))
	for k, v := range tokens {
		cp[k] = v
	}
	return &StaticVerifier{tokens: cp}
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	c, ok := v.tokens[token]
	if !ok {
		return auth.Claims{}, fmt.Errorf("%w: unknown token", apperr.ErrUnauthorized)
	}
	return c, nil
}
