package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/logger"
)

// minFontSizeRatio is the prominence threshold: a line qualifies as a
// header candidate when its font is at least this much larger than
// the document average, or when it is bold.
const minFontSizeRatio = 1.1

// minVisualHeaders is how many visual headers layout analysis must
// yield before signature detection is skipped entirely; below this
// the two detections are combined.
const minVisualHeaders = 8

var numberingBonusRe = regexp.MustCompile(`^[\d\w]+[.)]\s*[A-Z]`)

var wordRe = regexp.MustCompile(`\W+`)

// DetectWithLayout finds sections using per-line layout hints,
// combined with signature detection when visual evidence is thin.
// With no usable layout hints it degrades to Detect.
func DetectWithLayout(text string, lines []domain.LayoutLine) []domain.Section {
	visual := visualHeaders(text, lines)

	var headers []header
	switch {
	case len(visual) >= minVisualHeaders:
		logger.Debug("layout analysis found %d headers, skipping signature scan", len(visual))
		headers = visual
	default:
		logger.Debug("layout analysis found only %d headers, combining with signature scan", len(visual))
		headers = combineHeaders(visual, findHeaders(text))
	}

	return assembleSections(text, headers)
}

// visualHeaders scores layout lines for header prominence and
// returns validated candidates sorted by position.
func visualHeaders(text string, lines []domain.LayoutLine) []header {
	var total float64
	var counted int
	for _, l := range lines {
		if l.FontSize > 0 {
			total += l.FontSize
			counted++
		}
	}
	if counted == 0 {
		return nil
	}
	avg := total / float64(counted)
	threshold := avg * minFontSizeRatio

	var candidates []header
	for _, l := range lines {
		title := strings.TrimSpace(l.Text)
		if len(title) < 3 || len(title) > 100 {
			continue
		}
		if !l.Bold && l.FontSize < threshold {
			continue
		}
		if !validHeaderTitle(title) {
			continue
		}
		pos := locateLine(text, title, l.StartPos)
		if pos < 0 {
			continue
		}
		candidates = append(candidates, header{
			title:    title,
			startPos: pos,
			endPos:   pos + len(title),
			level:    visualHeaderLevel(title, l),
			score:    headerScore(title, l, avg),
			visual:   true,
		})
	}

	// Highest score first so dedup keeps the better candidate.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	var filtered []header
	for _, c := range candidates {
		dup := false
		for _, kept := range filtered {
			if abs(c.startPos-kept.startPos) < 100 && titlesSimilar(c.title, kept.title) {
				dup = true
				break
			}
		}
		if !dup {
			filtered = append(filtered, c)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].startPos < filtered[j].startPos
	})
	return filtered
}

// headerScore weighs prominence and title shape. Larger is better.
func headerScore(title string, l domain.LayoutLine, avgFontSize float64) float64 {
	var score float64
	if l.FontSize > avgFontSize {
		ratio := l.FontSize / avgFontSize
		if ratio > 3.0 {
			ratio = 3.0
		}
		score += ratio
	}
	if l.Bold {
		score += 1.0
	}
	if n := len(title); n >= 5 && n <= 50 {
		score += 0.5
	}
	if len(title) > 80 {
		score -= 1.0
	}
	if title != "" && title[0] >= 'A' && title[0] <= 'Z' {
		score += 0.3
	}
	if numberingBonusRe.MatchString(title) {
		score += 0.5
	}
	return score
}

// visualHeaderLevel derives nesting depth from prominence and shape.
func visualHeaderLevel(title string, l domain.LayoutLine) int {
	if l.FontSize > 14 && l.Bold {
		return 0
	}
	if topLevelNumRe.MatchString(title) && !subLevelNumRe.MatchString(title) {
		return 0
	}
	for _, main := range mainSectionsOrder {
		if strings.Contains(title, main) {
			return 0
		}
	}
	return 1
}

// locateLine resolves a layout line to a character offset in the
// paper text, preferring the hint the source attached.
func locateLine(text, title string, hint int) int {
	if hint > 0 && hint+len(title) <= len(text) && strings.HasPrefix(text[hint:], title) {
		return hint
	}
	if pos := strings.Index(text, title); pos >= 0 {
		return pos
	}
	// Whitespace in extracted text rarely matches the rendered line
	// exactly; retry on collapsed whitespace.
	collapsed := strings.Join(strings.Fields(title), " ")
	if pos := strings.Index(text, collapsed); pos >= 0 {
		return pos
	}
	if hint > 0 && hint < len(text) {
		return hint
	}
	return -1
}

// titlesSimilar reports near-duplicate titles: identical after
// stripping non-word characters, or >70% word overlap.
func titlesSimilar(a, b string) bool {
	if wordRe.ReplaceAllString(strings.ToLower(a), "") == wordRe.ReplaceAllString(strings.ToLower(b), "") {
		return true
	}
	wordsA := fieldsSet(a)
	wordsB := fieldsSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return false
	}
	common := 0
	for w := range wordsA {
		if wordsB[w] {
			common++
		}
	}
	longest := len(wordsA)
	if len(wordsB) > longest {
		longest = len(wordsB)
	}
	return float64(common)/float64(longest) > 0.7
}

func fieldsSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}

// combineHeaders merges visual and signature headers: visual wins;
// a signature header is added only when no visual header already
// covers the same title or sits within 100 characters.
func combineHeaders(visual, signature []header) []header {
	combined := append([]header(nil), visual...)

	for _, sh := range signature {
		dup := false
		lowered := strings.ToLower(sh.title)
		for _, vh := range visual {
			vLowered := strings.ToLower(vh.title)
			if lowered == vLowered ||
				strings.Contains(vLowered, lowered) ||
				strings.Contains(lowered, vLowered) ||
				abs(sh.startPos-vh.startPos) < 100 {
				dup = true
				break
			}
		}
		if !dup {
			combined = append(combined, sh)
		}
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].startPos < combined[j].startPos
	})

	// Two detections can still land on the same boundary; keep the
	// visual one.
	var filtered []header
	for _, h := range combined {
		replaced := false
		dup := false
		for i, kept := range filtered {
			if abs(h.startPos-kept.startPos) < 50 {
				if h.visual && !kept.visual {
					filtered[i] = h
					replaced = true
				} else {
					dup = true
				}
				break
			}
		}
		if !replaced && !dup {
			filtered = append(filtered, h)
		}
	}

	logger.Debug("combined headers: %d visual + %d signature = %d total",
		len(visual), len(signature), len(filtered))
	return filtered
}
