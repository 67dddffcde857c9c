package owners

import "time"

// Sexo del propietario.
// @Enum Masculino, Femenino
type Sexo string

const (
	SexoMasculino Sexo = "Masculino"
	SexoFemenino  Sexo = "Femenino"
)

// Owner representa a la persona responsable de uno o más pacientes.
// El DNI es único en todo el catálogo.
type Owner struct {
	ID string

	Nombres   string
	Apellidos string
	DNI       string
	Celular   string
	Correo    string
	Direccion string
	Sexo      Sexo

	FechaNacimiento *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
