// Package appfs embeds the files the apps ship with: SQL migrations, templates and assets.
package appfs

import "embed"

//go:embed migrations/*.sql sessions_migrations/*.sql all:templates assets
var FS embed.FS
