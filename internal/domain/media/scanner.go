package media

import (
	"regexp"
	"sort"
)

var (
	markdownImagePattern = regexp.MustCompile(`!\[[^\]]*\]\(\s*<?([^)\s>]+)>?(?:\s+["'][^"']*["'])?\s*\)`)
	imgTagPattern        = regexp.MustCompile(`(?i)<img\b[^>]*?\bsrc\s*=\s*["']([^"']+)["']`)
)

// ReferenceSet is a set of object keys.
type ReferenceSet map[string]struct{}

func NewReferenceSet(keys ...string) ReferenceSet {
	set := make(ReferenceSet, len(keys))
	for _, key := range keys {
		set.Add(key)
	}
	return set
}

func (s ReferenceSet) Add(key string) {
	if key != "" {
		s[key] = struct{}{}
	}
}

func (s ReferenceSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Merge adds every key of other to s.
func (s ReferenceSet) Merge(other ReferenceSet) {
	for key := range other {
		s[key] = struct{}{}
	}
}

// Keys returns the keys in sorted order.
func (s ReferenceSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Scanner extracts owned media references from free text. It is stateless and
// safe for concurrent use.
type Scanner struct {
	convention ReferenceConvention
}

func NewScanner(convention ReferenceConvention) *Scanner {
	return &Scanner{convention: convention}
}

// ExtractReferences returns the object keys embedded in text through markdown
// images or <img src> tags. References outside the owned prefix are ignored.
func (s *Scanner) ExtractReferences(text string) ReferenceSet {
	refs := make(ReferenceSet)
	s.collect(text, refs)
	return refs
}

// ExtractInto adds the references found in text to refs.
func (s *Scanner) ExtractInto(text string, refs ReferenceSet) {
	s.collect(text, refs)
}

// AddReference adds a bare reference value, such as an avatar column, to refs.
func (s *Scanner) AddReference(ref string, refs ReferenceSet) {
	if key, ok := s.convention.KeyFromReference(ref); ok {
		refs.Add(key)
	}
}

func (s *Scanner) collect(text string, refs ReferenceSet) {
	if text == "" {
		return
	}
	for _, pattern := range []*regexp.Regexp{markdownImagePattern, imgTagPattern} {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			s.AddReference(match[1], refs)
		}
	}
}
