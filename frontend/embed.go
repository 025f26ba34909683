//go:build !noembed

// Package frontend provides the embedded display page.
package frontend

import (
	"embed"
	"io/fs"
)

//go:embed all:dist
var distDir embed.FS

// DistFS is the embedded display page with the "dist" prefix stripped.
var DistFS fs.FS

func init() {
	DistFS, _ = fs.Sub(distDir, "dist")
}
