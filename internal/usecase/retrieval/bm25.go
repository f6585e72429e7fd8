package retrieval

import (
	"math"
	"strings"
)

// BM25 parameters, standard values.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// lexicalRerank scores every candidate against the term set with BM25 over
// the candidate pool itself, then blends the max-normalized score into the
// hybrid score. With no score variance across the pool the lexical component
// contributes nothing and ranking stays purely vector-driven.
func lexicalRerank(pool []Candidate, terms []string, alpha float64) {
	if len(pool) == 0 {
		return
	}

	docTokens := make([]map[string]int, len(pool))
	var totalLen float64
	for i, c := range pool {
		toks := tokenize(c.Document.Title + " " + c.Document.Requirements + " " + c.Document.Benefits)
		counts := make(map[string]int, len(toks))
		for _, t := range toks {
			counts[t]++
		}
		docTokens[i] = counts
		totalLen += float64(len(toks))
	}
	avgLen := totalLen / float64(len(pool))
	if avgLen == 0 {
		avgLen = 1
	}

	// Document frequency per term, over the pool only.
	df := make(map[string]int, len(terms))
	for _, term := range terms {
		for _, counts := range docTokens {
			if counts[term] > 0 {
				df[term]++
			}
		}
	}

	n := float64(len(pool))
	maxScore, minScore := math.Inf(-1), math.Inf(1)
	for i := range pool {
		var score float64
		docLen := 0.0
		for _, c := range docTokens[i] {
			docLen += float64(c)
		}
		for _, term := range terms {
			tf := float64(docTokens[i][term])
			if tf == 0 {
				continue
			}
			idf := math.Log((n-float64(df[term])+0.5)/(float64(df[term])+0.5) + 1)
			score += idf * (tf * (bm25K1 + 1)) / (tf + bm25K1*(1-bm25B+bm25B*docLen/avgLen))
		}
		pool[i].LexicalScore = score
		if score > maxScore {
			maxScore = score
		}
		if score < minScore {
			minScore = score
		}
	}

	for i := range pool {
		norm := 0.0
		if maxScore > minScore && maxScore > 0 {
			norm = pool[i].LexicalScore / maxScore
		}
		pool[i].HybridScore = (1-alpha)*pool[i].Similarity + alpha*norm
	}
}

func tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}
