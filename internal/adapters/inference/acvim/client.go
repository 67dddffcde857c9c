// Package acvim habla con el servicio remoto que clasifica soplos cardiacos
// sobre la escala ACVIM. El modelo es una caja negra: acá solo se arma el
// request y se traduce la respuesta/errores al contrato del core.
package acvim

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vet-cardio-screening/internal/apperr"
	"vet-cardio-screening/internal/platform/httpclient"
	"vet-cardio-screening/internal/ports/inference"
)

const predictPath = "/api/predict"

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	http *httpclient.Client
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("acvim: base url required")
	}
	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{http: hc}, nil
}

// NewClientWithTransport permite inyectar un RoundTripper para tests.
func NewClientWithTransport(timeout time.Duration, tr http.RoundTripper, baseURL string) *Client {
	hc := httpclient.NewWithTransport(timeout, tr)
	hc.BaseURL = strings.TrimRight(baseURL, "/")
	return &Client{http: hc}
}

// respuesta del servicio de predicción
type predictResponse struct {
	Raza           string `json:"raza"`
	Edad           int    `json:"edad"`
	SoploCardiaco  string `json:"soploCardiaco"`
	EsRiesgo       bool   `json:"esRiesgo"`
	DatosResultado string `json:"datosResultado"`
}

func (c *Client) Infer(ctx context.Context, audio []byte, contentType string) (inference.Draft, error) {
	if len(audio) == 0 {
		return inference.Draft{}, fmt.Errorf("%w: audio vacío", apperr.ErrInvalid)
	}

	var out predictResponse
	err := c.http.DoRaw(ctx, http.MethodPost, predictPath, contentType, nil, audio, &out)
	if err != nil {
		return inference.Draft{}, classifyErr(err)
	}

	return inference.Draft{
		Raza:           strings.TrimSpace(out.Raza),
		Edad:           out.Edad,
		SoploCardiaco:  strings.TrimSpace(out.SoploCardiaco),
		EsRiesgo:       out.EsRiesgo,
		DatosResultado: strings.TrimSpace(out.DatosResultado),
	}, nil
}

func classifyErr(err error) error {
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusBadRequest ||
			httpErr.StatusCode == http.StatusUnsupportedMediaType ||
			httpErr.StatusCode == http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: el servicio no pudo procesar el audio", apperr.ErrInvalid)
		case httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500:
			return fmt.Errorf("%w: inference status=%d", apperr.ErrUnavailable, httpErr.StatusCode)
		default:
			return fmt.Errorf("%w: inference status=%d", apperr.ErrUnavailable, httpErr.StatusCode)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: inference", apperr.ErrTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	// errores de red del http.Client llegan envueltos; el timeout del
	// cliente se reporta como url.Error con Timeout()=true
	var timeouter interface{ Timeout() bool }
	if errors.As(err, &timeouter) && timeouter.Timeout() {
		return fmt.Errorf("%w: inference", apperr.ErrTimeout)
	}
	return fmt.Errorf("%w: inference: %v", apperr.ErrUnavailable, err)
}
