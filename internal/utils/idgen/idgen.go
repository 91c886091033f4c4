// Package idgen issues prefixed, lexically sortable identifiers.
package idgen

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	PrefixMediaObject = "obj"
	PrefixTask        = "task"
	PrefixPost        = "post"
	PrefixComment     = "cmt"
	PrefixUser        = "usr"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// New returns "<prefix>_<lowercase ulid>".
func New(prefix string) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()
	return prefix + "_" + strings.ToLower(id.String())
}

// IsValid reports whether value is a ULID carrying the given prefix.
func IsValid(prefix, value string) bool {
	rest, ok := strings.CutPrefix(strings.TrimSpace(value), prefix+"_")
	if !ok {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(rest))
	return err == nil
}
