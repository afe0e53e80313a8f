package migrations

import "embed"

// Migrations are the embedded SQL migration files applied at startup.
//
//go:embed *.sql
var Migrations embed.FS
