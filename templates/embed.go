// Package templates embeds the page layout and its fragments.
package templates

import "embed"

// FS holds base.tmpl and partials/*.tmpl.
//
//go:embed *.tmpl partials/*.tmpl
var FS embed.FS
