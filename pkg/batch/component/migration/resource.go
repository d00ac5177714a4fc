package migration

import (
	"embed"
	"io/fs"
)

//go:embed resource
var rawMigrationFS embed.FS

// MigrationsFS returns the embedded migrations for one database type.
func MigrationsFS(dbType string) (fs.FS, error) {
	return fs.Sub(rawMigrationFS, "resource/"+dbType)
}
