package index

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BM25 parameters, the standard defaults.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// bm25Index scores chunks lexically. It is rebuilt in full over the
// whole corpus on every add, which keeps it a pure derivation of the
// metadata table. Fields are exported for gob.
type bm25Index struct {
	// TermFreqs[i] maps token -> occurrences in chunk slot i.
	TermFreqs []map[string]int

	// DocLens[i] is the token count of chunk slot i.
	DocLens []int

	// DocFreq maps token -> number of chunks containing it.
	DocFreq map[string]int

	// AvgDocLen is the mean of DocLens.
	AvgDocLen float64
}

// tokenize lowercases and splits on whitespace. Deliberately no
// stemming or punctuation handling: query enhancement upstream and
// BM25's term saturation carry enough of the weight, and the scheme
// must stay stable across reindexes.
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// buildBM25 indexes the given chunk texts, slot order preserved.
func buildBM25(texts []string) *bm25Index {
	ix := &bm25Index{
		TermFreqs: make([]map[string]int, len(texts)),
		DocLens:   make([]int, len(texts)),
		DocFreq:   make(map[string]int),
	}

	var total int
	for i, text := range texts {
		tokens := tokenize(text)
		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		ix.TermFreqs[i] = freqs
		ix.DocLens[i] = len(tokens)
		total += len(tokens)
		for tok := range freqs {
			ix.DocFreq[tok]++
		}
	}
	if len(texts) > 0 {
		ix.AvgDocLen = float64(total) / float64(len(texts))
	}
	return ix
}

func (ix *bm25Index) count() int {
	return len(ix.TermFreqs)
}

// search returns the top k slots by BM25 score for the query,
// highest first. Zero and negative scores are dropped. allow filters
// slots; nil means no filter.
func (ix *bm25Index) search(query string, k int, allow func(slot int) bool) []slotScore {
	tokens := tokenize(query)
	if len(tokens) == 0 || ix.count() == 0 || k <= 0 {
		return nil
	}

	n := float64(ix.count())
	var scores []slotScore
	for slot, freqs := range ix.TermFreqs {
		if allow != nil && !allow(slot) {
			continue
		}
		var score float64
		for _, tok := range tokens {
			tf := float64(freqs[tok])
			if tf == 0 {
				continue
			}
			df := float64(ix.DocFreq[tok])
			idf := math.Log((n-df+0.5)/(df+0.5) + 1)
			norm := tf * (bm25K1 + 1) /
				(tf + bm25K1*(1-bm25B+bm25B*float64(ix.DocLens[slot])/ix.AvgDocLen))
			score += idf * norm
		}
		if score > 0 {
			scores = append(scores, slotScore{slot: slot, score: score})
		}
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if len(scores) > k {
		scores = scores[:k]
	}
	return scores
}

// saveLexical writes the index to path atomically.
func saveLexical(path string, ix *bm25Index) error {
	tmp, err := writeLexicalTemp(path, ix)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing lexical file: %w", err)
	}
	return nil
}

// writeLexicalTemp writes the index to a temp file next to path and
// returns the temp file name. The caller renames or removes it.
func writeLexicalTemp(path string, ix *bm25Index) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "lexical-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating lexical temp file: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(ix); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("encoding lexical index: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing lexical temp file: %w", err)
	}
	return f.Name(), nil
}

// loadLexical reads an index written by saveLexical.
func loadLexical(path string) (*bm25Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening lexical file: %w", err)
	}
	defer f.Close()

	var ix bm25Index
	if err := gob.NewDecoder(f).Decode(&ix); err != nil {
		return nil, fmt.Errorf("decoding lexical index: %w", err)
	}
	return &ix, nil
}
