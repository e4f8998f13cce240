package id

import (
	"crypto/rand"
	"path"
	"strings"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable
// by creation time and safe for use as DynamoDB partition keys.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// ObjectKey builds an object-storage key of the form prefix/owner/<ulid><ext>.
func ObjectKey(prefix, owner, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(prefix, owner, New()+ext)
}
