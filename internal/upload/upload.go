// Package upload fakes file storage for the create-ad form. Nothing is
// transferred: a file is "stored" by deriving a URL from its name.
package upload

import (
	"net/url"
	"path"
	"strings"
)

// Uploader hands out URLs under a fixed base.
type Uploader struct {
	base string
}

// New returns an Uploader for base. A trailing slash is added if missing.
func New(base string) *Uploader {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Uploader{base: base}
}

// URL returns the address the named file would be served from. Only the
// last path element of filename is used.
//
// Some browsers (old IE among them) send the full client path, with
// backslashes, as the filename. Normalising the separators before
// path.Base strips "C:\Users\ana\banner.png" down to "banner.png", and
// the same step turns "../../etc/passwd" into "passwd". PathEscape then
// makes spaces and the like URL-safe.
func (u *Uploader) URL(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	return u.base + url.PathEscape(name)
}
