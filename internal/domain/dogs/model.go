package dogs

import "time"

// Sexo del paciente.
// @Enum Macho, Hembra
type Sexo string

const (
	SexoMacho  Sexo = "Macho"
	SexoHembra Sexo = "Hembra"
)

// Estado vital del paciente.
// @Enum Vivo, Muerto
type Estado string

const (
	EstadoVivo   Estado = "Vivo"
	EstadoMuerto Estado = "Muerto"
)

// Dog representa un paciente sujeto a evaluación cardiaca.
// OwnerID es obligatorio e inmutable después de la creación.
type Dog struct {
	ID      string
	OwnerID string

	Nombre  string
	Especie string
	Raza    string
	Sexo    Sexo
	Estado  Estado

	FechaNacimiento *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
