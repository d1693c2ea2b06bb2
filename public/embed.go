// Package public embeds the stylesheet and script served under /assets.
package public

import (
	"embed"
	"io/fs"
)

//go:embed static
var embedded embed.FS

// Static returns the asset tree rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(embedded, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
