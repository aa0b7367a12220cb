package terms

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	canonicalConfidence = 1.0
	synonymConfidence   = 0.9
)

// Match is one occurrence of a vocabulary term in a piece of text.
// Position refers to the normalized form of the input (see Normalize).
type Match struct {
	Term       *Term   `json:"term"`
	Text       string  `json:"text"` // the matched surface form
	Position   int     `json:"position"`
	Confidence float64 `json:"confidence"`
}

type compiledPattern struct {
	re         *regexp.Regexp
	term       *Term
	confidence float64
}

// Index is a static lookup over the clinical vocabulary. It is read-only
// after construction and safe for concurrent use.
type Index struct {
	terms    []Term
	patterns []compiledPattern
}

// NewIndex builds an index over the default vocabulary.
func NewIndex() *Index {
	return NewIndexWith(DefaultVocabulary())
}

// NewIndexWith builds an index over the given vocabulary.
func NewIndexWith(vocabulary []Term) *Index {
	idx := &Index{terms: vocabulary}
	for i := range idx.terms {
		t := &idx.terms[i]
		idx.patterns = append(idx.patterns, compiledPattern{
			re:         wordPattern(t.Canonical),
			term:       t,
			confidence: canonicalConfidence,
		})
		for _, syn := range t.Synonyms {
			idx.patterns = append(idx.patterns, compiledPattern{
				re:         wordPattern(syn),
				term:       t,
				confidence: synonymConfidence,
			})
		}
	}
	return idx
}

// wordPattern compiles a case-insensitive, word-boundary pattern for a term.
func wordPattern(term string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(strings.ToLower(term)) + `\b`)
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases text and strips combining marks so accented input
// still matches the vocabulary. Idempotent.
func Normalize(text string) string {
	out, _, err := transform.String(stripMarks, text)
	if err != nil {
		out = text
	}
	return strings.ToLower(out)
}

// FindAll returns every vocabulary match in the text, ordered by position.
// Canonical matches score 1.0, synonym matches 0.9. Duplicate hits of the
// same (term, position) pair keep only the highest-confidence one.
func (idx *Index) FindAll(text string) []Match {
	normalized := Normalize(text)

	type key struct {
		canonical string
		position  int
	}
	best := make(map[key]Match)

	for _, p := range idx.patterns {
		for _, loc := range p.re.FindAllStringIndex(normalized, -1) {
			k := key{canonical: p.term.Canonical, position: loc[0]}
			m := Match{
				Term:       p.term,
				Text:       normalized[loc[0]:loc[1]],
				Position:   loc[0],
				Confidence: p.confidence,
			}
			if existing, ok := best[k]; !ok || m.Confidence > existing.Confidence {
				best[k] = m
			}
		}
	}

	matches := make([]Match, 0, len(best))
	for _, m := range best {
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Position != matches[j].Position {
			return matches[i].Position < matches[j].Position
		}
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// FindCategory returns matches restricted to a single category.
func (idx *Index) FindCategory(text string, category Category) []Match {
	all := idx.FindAll(text)
	var out []Match
	for _, m := range all {
		if m.Term.Category == category {
			out = append(out, m)
		}
	}
	return out
}
