// Package schema canonicalizes raw spreadsheet columns into the internal
// vocabulary and builds typed opportunity records at the normalization
// boundary.
package schema

import (
	"os"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// stripAccents decomposes to NFD, drops combining marks, and recomposes.
// "TIPO DE ATUAÇÃO" -> "TIPO DE ATUACAO".
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader canonicalizes a single column label: trim, collapse
// internal whitespace to underscores, transliterate accents, upper-case.
// Idempotent: applying it twice yields the same result as once.
func NormalizeHeader(label string) string {
	s := strings.TrimSpace(label)
	s = strings.Join(strings.Fields(s), "_")
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	return strings.ToUpper(s)
}

// NormalizeHeaders canonicalizes every label in a header row.
func NormalizeHeaders(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = NormalizeHeader(l)
	}
	return out
}

// LoadAliases reads an optional YAML file mapping raw column labels to
// canonical names, for exports whose headers do not normalize cleanly.
// Keys are normalized before use, so the file may use human-readable labels.
func LoadAliases(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "schema: read alias file")
	}
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrap(err, "schema: parse alias file")
	}
	aliases := make(map[string]string, len(raw))
	for k, v := range raw {
		aliases[NormalizeHeader(k)] = NormalizeHeader(v)
	}
	return aliases, nil
}

// ApplyAliases rewrites normalized headers through the alias map. Headers
// without an alias pass through unchanged.
func ApplyAliases(headers []string, aliases map[string]string) []string {
	if len(aliases) == 0 {
		return headers
	}
	out := make([]string, len(headers))
	for i, h := range headers {
		if canonical, ok := aliases[h]; ok {
			out[i] = canonical
		} else {
			out[i] = h
		}
	}
	return out
}
