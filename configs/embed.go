// Package configs ships the default catalogs compiled into the binary.
package configs

import "embed"

//go:embed *.yaml
var FS embed.FS
