package retrieval

import (
	"regexp"
	"strings"
)

// tokenRe keeps Hangul, Latin, and digit runs; everything else is a separator.
var tokenRe = regexp.MustCompile(`[\p{Hangul}A-Za-z0-9]+`)

const maxQueryTerms = 8

// Stopwords for both query languages. Queries are composed upstream from
// dialogue, so function words dominate without this cut.
var stopwords = map[string]bool{
	// Korean particles and fillers survive tokenization as suffixed forms
	// rarely; these cover the standalone ones.
	"그리고": true, "그래서": true, "하지만": true, "있는": true,
	"있습니다": true, "합니다": true, "대한": true, "관련": true,
	"어떤": true, "무엇": true, "어디": true, "저는": true, "제가": true,
	"알려줘": true, "알려주세요": true, "싶어요": true, "있나요": true,
	"지원": true, "정책": true, "혜택": true,
	// English.
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"of": true, "to": true, "in": true, "for": true, "is": true,
	"are": true, "what": true, "how": true, "can": true, "i": true,
	"my": true, "me": true, "please": true, "about": true,
	"policy": true, "support": true, "benefit": true,
}

// termSet builds the lexical rerank vocabulary: the query's leading content
// words plus profile and condition hint terms. Order is preserved and
// duplicates collapse so scoring stays deterministic.
func termSet(query string, hints []string) []string {
	seen := map[string]bool{}
	var out []string

	queryTerms := 0
	for _, tok := range tokenize(query) {
		if queryTerms >= maxQueryTerms {
			break
		}
		if len([]rune(tok)) < 2 || stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
		queryTerms++
	}

	// Hints are curated terms (disease names can be a single Hangul
	// syllable), so only the stopword cut applies.
	for _, hint := range hints {
		for _, tok := range tokenize(strings.ToLower(hint)) {
			if stopwords[tok] || seen[tok] {
				continue
			}
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}
