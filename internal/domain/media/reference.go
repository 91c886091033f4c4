package media

import (
	"path"
	"strings"
)

// TempScope is used in object keys for uploads not yet attached to a scope.
const TempScope = "temp"

// ReferenceConvention maps object keys to the public references embedded in content.
// Keys have the form {domain}/{ownerId}/{scopeId|temp}/{filename}; the reference is
// {prefix}/{key}.
type ReferenceConvention struct {
	prefix string
}

func NewReferenceConvention(prefix string) ReferenceConvention {
	return ReferenceConvention{prefix: strings.TrimSuffix(strings.TrimSpace(prefix), "/")}
}

// Prefix returns the owned-storage reference prefix without a trailing slash.
func (c ReferenceConvention) Prefix() string {
	return c.prefix
}

// KeyFor builds an object key. An empty scope becomes TempScope.
func (c ReferenceConvention) KeyFor(domain, ownerID, scopeID, filename string) string {
	if strings.TrimSpace(scopeID) == "" {
		scopeID = TempScope
	}
	return strings.Join([]string{
		sanitizeSegment(domain),
		sanitizeSegment(ownerID),
		sanitizeSegment(scopeID),
		sanitizeSegment(path.Base(filename)),
	}, "/")
}

// ReferenceURL returns the public reference for key.
func (c ReferenceConvention) ReferenceURL(key string) string {
	return c.prefix + "/" + strings.TrimPrefix(key, "/")
}

// KeyFromReference returns the object key for an owned reference. External
// references and bare prefixes report false.
func (c ReferenceConvention) KeyFromReference(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	key, ok := strings.CutPrefix(ref, c.prefix+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

func sanitizeSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	segment = strings.ReplaceAll(segment, "/", "_")
	segment = strings.ReplaceAll(segment, "\\", "_")
	if segment == "" || segment == "." || segment == ".." {
		return "_"
	}
	return segment
}
