// Package migrations contiene el esquema por dialecto, embebido en el binario.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
