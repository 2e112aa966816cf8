package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/logger"
)

// FullArticleTitle names the single section produced when no headers
// are detected at all.
const FullArticleTitle = "Full Article"

// TitleSectionName names the implicit leading section covering the
// text before the first detected header.
const TitleSectionName = "Title"

// header is a detected section header before assembly into sections.
type header struct {
	title    string
	startPos int
	endPos   int
	level    int
	score    float64
	visual   bool
}

// Signature patterns for section headers. A header candidate is a
// line of its own, either numbered, a single-letter appendix, or a
// standard scientific section name.
var headerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\n\s*(\d+\.?\s+[A-Za-z][^.\n]{2,60})\s*\n`),
	regexp.MustCompile(`\n\s*(\d+\.\d+\.?\s+[A-Za-z][^.\n]{2,60})\s*\n`),
	regexp.MustCompile(`\n\s*(\d+\.\d+\.\d+\.?\s+[A-Za-z][^.\n]{2,60})\s*\n`),
	regexp.MustCompile(`\n\s*([A-Z]\s+[A-Za-z][^.\n]{2,60})\s*\n`),
	regexp.MustCompile(`\n\s*(Abstract|ABSTRACT)\s*\n`),
	regexp.MustCompile(`\n\s*(Introduction|INTRODUCTION)\s*\n`),
	regexp.MustCompile(`\n\s*(Related [Ww]ork|RELATED WORK)\s*\n`),
	regexp.MustCompile(`\n\s*(Background|BACKGROUND)\s*\n`),
	regexp.MustCompile(`\n\s*(Methods?|METHODS?|Methodology|METHODOLOGY)\s*\n`),
	regexp.MustCompile(`\n\s*(Results?|RESULTS?)\s*\n`),
	regexp.MustCompile(`\n\s*(Discussion|DISCUSSION)\s*\n`),
	regexp.MustCompile(`\n\s*(Conclusions?|CONCLUSIONS?)\s*\n`),
	regexp.MustCompile(`\n\s*(Acknowledgments?|ACKNOWLEDGMENTS?|Acknowledgements|ACKNOWLEDGEMENTS)\s*\n`),
	regexp.MustCompile(`\n\s*(References?|REFERENCES?|Bibliography|BIBLIOGRAPHY)\s*\n`),
	regexp.MustCompile(`\n\s*(Appendix|APPENDIX)\s*\n`),
	regexp.MustCompile(`\n\s*(Appendix [A-Z]|APPENDIX [A-Z])\s*\n`),
}

var standardSections = map[string]bool{
	"Abstract": true, "ABSTRACT": true,
	"Introduction": true, "INTRODUCTION": true,
	"Related Work": true, "RELATED WORK": true,
	"Background": true, "BACKGROUND": true,
	"Methods": true, "METHODS": true, "Methodology": true, "METHODOLOGY": true,
	"Results": true, "RESULTS": true,
	"Discussion": true, "DISCUSSION": true,
	"Conclusion": true, "CONCLUSION": true, "Conclusions": true, "CONCLUSIONS": true,
	"Acknowledgments": true, "ACKNOWLEDGMENTS": true,
	"Acknowledgements": true, "ACKNOWLEDGEMENTS": true,
	"References": true, "REFERENCES": true,
	"Bibliography": true, "BIBLIOGRAPHY": true,
	"Appendix": true, "APPENDIX": true,
}

var (
	numberedHeaderRe  = regexp.MustCompile(`^\d+(\.\d+)*[.\s]*[A-Za-z]`)
	appendixLetterRe  = regexp.MustCompile(`^[A-Z]\s+[A-Za-z]`)
	appendixNamedRe   = regexp.MustCompile(`(?i)^Appendix\s+[A-Z]`)
	yearTokenRe       = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	digitGroupRe      = regexp.MustCompile(`\d+`)
	topLevelNumRe     = regexp.MustCompile(`^\d+\s+`)
	subLevelNumRe     = regexp.MustCompile(`^\d+\.\d+\s+`)
	subSubLevelNumRe  = regexp.MustCompile(`^\d+\.\d+\.\d+\s+`)
	blankRunRe        = regexp.MustCompile(`\n\s*\n\s*\n`)
	danglingEndings   = []string{"but", "and", "or", "the", "a", "an"}
	mainSectionsOrder = []string{
		"Abstract", "Introduction", "Related work", "Methods", "Methodology",
		"Results", "Discussion", "Conclusion", "Conclusions", "References",
	}
)

// mathSymbols disqualify a candidate: headers never carry formulas.
const mathSymbols = "=≤≥±∞∑∏∫"

// Detect finds sections in plain text using header signature
// patterns alone. It never fails: text without recognisable headers
// becomes a single whole-document section.
func Detect(text string) []domain.Section {
	headers := findHeaders(text)
	return assembleSections(text, headers)
}

// findHeaders scans the text with every signature pattern and returns
// validated headers sorted by position, deduplicated.
func findHeaders(text string) []header {
	var headers []header

	for _, pat := range headerPatterns {
		for _, m := range pat.FindAllStringSubmatchIndex(text, -1) {
			title := strings.TrimSpace(text[m[2]:m[3]])
			if !validHeaderTitle(title) {
				continue
			}
			headers = append(headers, header{
				title:    title,
				startPos: m[0],
				endPos:   m[1],
				level:    headerLevel(title),
			})
		}
	}

	sort.SliceStable(headers, func(i, j int) bool {
		return headers[i].startPos < headers[j].startPos
	})
	headers = dedupeHeaders(headers)

	logger.Debug("header detection: %d headers found", len(headers))
	return headers
}

// validHeaderTitle applies the fragment-of-sentence rejection
// heuristics and the strict acceptance criteria.
func validHeaderTitle(title string) bool {
	title = strings.TrimSpace(title)

	if len(title) < 3 || len(title) > 100 {
		return false
	}
	if strings.Contains(title, "@") || strings.Contains(strings.ToLower(title), "http") {
		return false
	}
	if strings.ContainsAny(title, mathSymbols) {
		return false
	}
	// Years and dense numbers mark citations and tables, not headers.
	if yearTokenRe.MatchString(title) {
		return false
	}
	if len(digitGroupRe.FindAllString(title, -1)) > 2 {
		return false
	}
	first := rune(title[0])
	if first >= 'a' && first <= 'z' {
		return false
	}
	lowered := strings.ToLower(strings.TrimRight(title, " "))
	for _, w := range danglingEndings {
		if strings.HasSuffix(lowered, " "+w) || lowered == w {
			return false
		}
	}
	if strings.Contains(title, "  ") {
		return false
	}
	if strings.Count(title, " ") > 8 {
		return false
	}

	if numberedHeaderRe.MatchString(title) {
		return true
	}
	if appendixLetterRe.MatchString(title) {
		return true
	}
	if standardSections[title] {
		return true
	}
	if appendixNamedRe.MatchString(title) {
		return true
	}
	return false
}

// headerLevel derives nesting depth from the title shape.
func headerLevel(title string) int {
	for _, main := range mainSectionsOrder {
		if strings.Contains(title, main) {
			return 0
		}
	}
	switch {
	case subSubLevelNumRe.MatchString(title):
		return 2
	case subLevelNumRe.MatchString(title):
		return 1
	case topLevelNumRe.MatchString(title):
		return 0
	}
	return 1
}

// dedupeHeaders drops a header repeating the previous title within
// 100 characters. Input must be sorted by position.
func dedupeHeaders(headers []header) []header {
	if len(headers) == 0 {
		return headers
	}
	unique := headers[:1]
	for _, h := range headers[1:] {
		prev := unique[len(unique)-1]
		if h.title == prev.title && abs(h.startPos-prev.startPos) < 100 {
			continue
		}
		unique = append(unique, h)
	}
	return unique
}

// assembleSections turns sorted headers into contiguous sections
// covering the whole text. The gap before the first header becomes a
// leading "Title" section; no headers at all yields one
// whole-document section.
func assembleSections(text string, headers []header) []domain.Section {
	if len(headers) == 0 {
		logger.Warn("no section headers found, using single whole-document section")
		return []domain.Section{{
			Title:    FullArticleTitle,
			Level:    0,
			StartPos: 0,
			EndPos:   len(text),
			Content:  text,
		}}
	}

	var sections []domain.Section

	if headers[0].startPos > 0 {
		lead := strings.TrimSpace(text[:headers[0].startPos])
		if lead != "" {
			sections = append(sections, domain.Section{
				Title:    TitleSectionName,
				Level:    0,
				StartPos: 0,
				EndPos:   headers[0].startPos,
				Content:  lead,
			})
		}
	}

	for i, h := range headers {
		start := h.startPos
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1].startPos
		}
		content := strings.TrimSpace(text[start:end])
		content = blankRunRe.ReplaceAllString(content, "\n\n")
		if content == "" {
			continue
		}
		sections = append(sections, domain.Section{
			Title:    h.title,
			Level:    h.level,
			StartPos: start,
			EndPos:   end,
			Content:  content,
		})
	}

	return sections
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
