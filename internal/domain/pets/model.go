package pets

import "time"

// Species define las especies soportadas.
// @Enum dog, cat
type Species string

const (
	SpeciesDog Species = "dog"
	SpeciesCat Species = "cat"
)

// Sex define el sexo de la mascota.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// Pet es el perfil de una mascota publicada en la plataforma.
// No tiene campo de estado: la disponibilidad siempre se calcula (ver Resolver).
type Pet struct {
	ID             string
	CurrentOwnerID string

	Name    string
	Species Species
	Breed   string
	Sex     Sex

	BirthDate *time.Time

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}
