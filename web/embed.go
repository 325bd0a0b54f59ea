// Package web holds the dashboard shells and render scripts served under /assets.
package web

import "embed"

//go:embed shared/*.css shared/*.js */index.html */app.js
var FS embed.FS
