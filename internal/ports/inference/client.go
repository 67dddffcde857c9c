package inference

import "context"

// Draft es la salida cruda del servicio de inferencia: una evaluación
// editable que todavía no es historia clínica.
type Draft struct {
	Raza           string
	Edad           int
	SoploCardiaco  string // descriptor del soplo, p.ej. "Grado II/VI"
	EsRiesgo       bool
	DatosResultado string // narrativa de soporte del modelo
}

// Client es el colaborador externo que convierte un audio de soplo cardiaco
// en un borrador estructurado. El modelo es una caja negra: acá solo viven
// el contrato y la clasificación de errores (apperr.ErrInvalid para audio
// no procesable, ErrUnavailable/ErrTimeout para fallas transitorias).
type Client interface {
	Infer(ctx context.Context, audio []byte, contentType string) (Draft, error)
}
