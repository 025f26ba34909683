//go:build noembed

// Package frontend provides the embedded display page.
// This file is used when building with -tags noembed.
package frontend

import (
	"io/fs"
	"testing/fstest"
)

// DistFS is a stub filesystem holding a placeholder index.html.
var DistFS fs.FS = fstest.MapFS{
	"index.html": &fstest.MapFile{Data: []byte("<!-- noembed stub -->")},
}
