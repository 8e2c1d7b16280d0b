// Package search turns free-text search input into a structured query plan.
// The parser only classifies the text; matching against candidate fields is
// the plan's job, and empty input is the caller's (an empty plan means "no
// filter").
package search

import "strings"

// Kind classifies a parsed query.
type Kind int

const (
	// KindEmpty means there was nothing to search for.
	KindEmpty Kind = iota
	// KindSingleTerm matches one word against any field.
	KindSingleTerm
	// KindMultipleTerms requires every word to match some field.
	KindMultipleTerms
	// KindExactPhrase matches a quoted phrase verbatim (case-insensitive).
	KindExactPhrase
)

// Plan is the parsed form of a search string.
type Plan struct {
	Kind  Kind
	Terms []string
}

// quotePairs lists the quote characters that trigger exact-phrase mode when
// they wrap the whole trimmed input.
var quotePairs = map[byte]byte{'"': '"', '\'': '\''}

// Parse classifies raw search text:
//
//   - text fully wrapped in a matching quote pair becomes an exact phrase,
//     whitespace inside and all;
//   - a single remaining token becomes a single-term query;
//   - anything else splits on whitespace runs into a multi-term query.
func Parse(text string) Plan {
	text = strings.TrimSpace(text)
	if text == "" {
		return Plan{Kind: KindEmpty}
	}

	if len(text) >= 2 {
		if closer, ok := quotePairs[text[0]]; ok && text[len(text)-1] == closer {
			inner := text[1 : len(text)-1]
			if strings.TrimSpace(inner) == "" {
				return Plan{Kind: KindEmpty}
			}
			return Plan{Kind: KindExactPhrase, Terms: []string{inner}}
		}
	}

	tokens := strings.Fields(text)
	if len(tokens) == 1 {
		return Plan{Kind: KindSingleTerm, Terms: tokens}
	}
	return Plan{Kind: KindMultipleTerms, Terms: tokens}
}

// IsEmpty reports whether the plan filters nothing.
func (p Plan) IsEmpty() bool {
	return p.Kind == KindEmpty || len(p.Terms) == 0
}

// Matches reports whether the plan accepts a record with the given field
// values. Each term must be a case-insensitive substring of at least one
// field; multi-term plans require every term to match independently, so
// different terms may hit different fields.
func (p Plan) Matches(fields ...string) bool {
	if p.IsEmpty() {
		return true
	}

	lowered := make([]string, 0, len(fields))
	for _, f := range fields {
		lowered = append(lowered, strings.ToLower(f))
	}

	for _, term := range p.Terms {
		term = strings.ToLower(term)
		found := false
		for _, f := range lowered {
			if strings.Contains(f, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
