package evaluations

import "time"

// Resultado es la categoría final de una evaluación cardiaca.
// @Enum Normal, Riesgo Moderado, Alto Riesgo
type Resultado string

const (
	ResultadoNormal   Resultado = "Normal"
	ResultadoModerado Resultado = "Riesgo Moderado"
	ResultadoAlto     Resultado = "Alto Riesgo"
)

// Evaluation es un registro clínico inmutable: una vez persistido nunca se
// actualiza ni se borra. La historia de un perro se ordena por Fecha.
type Evaluation struct {
	ID    string
	DogID string

	Fecha       time.Time
	Resultado   Resultado
	Comentarios string

	// IdemKey es la clave de idempotencia generada por el cliente del store;
	// nunca viaja en las respuestas.
	IdemKey string
}

// Draft es la salida editable de la inferencia. Vive solo dentro de un run
// del workflow; se convierte en Evaluation recién al confirmar.
type Draft struct {
	Raza           string
	Edad           int
	SoploCardiaco  string
	EsRiesgo       bool
	DatosResultado string
}
