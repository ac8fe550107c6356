package scene

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// slugFold strips diacritics so "Pêche" and "Peche" slug identically.
// NFD decomposes, Mn marks are removed, NFC recomposes what remains.
var slugFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var slugPattern = regexp.MustCompile(`[^a-z0-9_-]+`)

// Slugify reduces a caller-supplied name to the canonical slug alphabet
// [a-z0-9_-]. Empty results fall back to "item".
func Slugify(value string) string {
	folded, _, err := transform.String(slugFold, strings.TrimSpace(value))
	if err != nil {
		folded = strings.TrimSpace(value)
	}
	cleaned := slugPattern.ReplaceAllString(strings.ToLower(folded), "-")
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		return "item"
	}
	return cleaned
}

// CanonicalID resolves a raw caller-supplied id to the scene's stable
// canonical id for the namespace.
//
// Resolution order:
//  1. Ids already carrying the namespace prefix pass through unchanged.
//  2. A previously aliased raw id resolves to the recorded canonical id.
//  3. Otherwise a new id "<prefix>:<slug>#<counter:03d>" is minted and
//     the alias recorded, so the same raw name resolves identically for
//     the scene's lifetime - across batches and turns.
//
// An empty raw id mints a fresh id seeded from the namespace name.
func (s *State) CanonicalID(ns Namespace, rawID string) string {
	token := strings.TrimSpace(rawID)
	if strings.HasPrefix(token, ns.Prefix()+":") {
		return token
	}
	if token == "" {
		return s.mint(ns, string(ns))
	}
	aliasKey := string(ns) + ":" + token
	if canonical, ok := s.IDAliases[aliasKey]; ok && canonical != "" {
		return canonical
	}
	canonical := s.mint(ns, token)
	s.IDAliases[aliasKey] = canonical
	return canonical
}

// mint allocates the next canonical id in the namespace.
func (s *State) mint(ns Namespace, seed string) string {
	idx := s.Counters[ns]
	if idx < 1 {
		idx = 1
	}
	s.Counters[ns] = idx + 1
	return fmt.Sprintf("%s:%s#%03d", ns.Prefix(), Slugify(seed), idx)
}
