package chunker

import "strings"

// separators, tried in order: paragraph breaks first, then lines,
// sentence endings, clauses, words, and finally hard character cuts.
var separators = []string{"\n\n\n", "\n\n", "\n", ". ", "! ", "? ", "; ", ", ", " ", ""}

// splitter cuts oversized text at the most natural boundary
// available, keeping a character overlap between adjacent chunks.
type splitter struct {
	chunkSize int
	overlap   int
}

func newSplitter(chunkSize, overlap int) *splitter {
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &splitter{chunkSize: chunkSize, overlap: overlap}
}

// split returns ordered chunks of at most chunkSize characters.
func (s *splitter) split(text string) []string {
	parts := s.splitWith(text, separators)
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (s *splitter) splitWith(text string, seps []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	// First separator actually present wins.
	sep := ""
	var rest []string
	for i, cand := range seps {
		if cand == "" {
			break
		}
		if strings.Contains(text, cand) {
			sep = cand
			rest = seps[i+1:]
			break
		}
	}
	if sep == "" {
		return s.hardCut(text)
	}

	pieces := strings.SplitAfter(text, sep)

	// A single piece can still exceed the limit; recurse on it with
	// the finer separators before merging.
	var flat []string
	for _, p := range pieces {
		if p == "" {
			continue
		}
		if len(p) > s.chunkSize {
			flat = append(flat, s.splitWith(p, rest)...)
		} else {
			flat = append(flat, p)
		}
	}
	return s.merge(flat)
}

// merge packs pieces into chunks up to chunkSize, carrying the tail
// of each finished chunk into the next as overlap.
func (s *splitter) merge(pieces []string) []string {
	var chunks []string
	var cur strings.Builder

	for _, p := range pieces {
		if cur.Len() > 0 && cur.Len()+len(p) > s.chunkSize {
			chunk := cur.String()
			chunks = append(chunks, chunk)
			cur.Reset()
			// Shrink the carried overlap so the next chunk still
			// fits the limit.
			carry := s.overlap
			if len(p)+carry > s.chunkSize {
				carry = s.chunkSize - len(p)
			}
			if carry > 0 && len(chunk) > carry {
				cur.WriteString(chunk[len(chunk)-carry:])
			}
		}
		cur.WriteString(p)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// hardCut slices with no boundary to respect, stepping by
// chunkSize-overlap.
func (s *splitter) hardCut(text string) []string {
	step := s.chunkSize - s.overlap
	if step <= 0 {
		step = s.chunkSize
	}
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.chunkSize
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}
