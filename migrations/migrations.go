package migrations

import "embed"

// FS SQL миграции схемы снимка дашборда
//
//go:embed *.sql
var FS embed.FS

const Version = 1
