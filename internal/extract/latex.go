package extract

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/logger"
)

// LatexDocument is the structured result of parsing a LaTeX source
// bundle.
type LatexDocument struct {
	Title    string
	Authors  []string
	Abstract string

	// Text is the cleaned full text, commands and comments stripped.
	Text string

	// Sections cover the document; positions refer to the raw
	// LaTeX source, contents are cleaned.
	Sections []domain.Section
}

var (
	latexSectionRe  = regexp.MustCompile(`\\(part|chapter|section|subsection|subsubsection)\*?\{([^}]+)\}`)
	latexTitleRe    = regexp.MustCompile(`\\title\{([^}]+)\}`)
	latexAuthorRe   = regexp.MustCompile(`\\author\{([^}]+)\}`)
	latexAbstractRe = regexp.MustCompile(`\\abstract\*?\{([^}]+)\}`)
	abstractEnvRe   = regexp.MustCompile(`(?s)\\begin\{abstract\}(.*?)\\end\{abstract\}`)
	authorSplitRe   = regexp.MustCompile(`\\and|,`)

	latexCommentRe    = regexp.MustCompile(`(?m)%.*$`)
	latexArgCommandRe = regexp.MustCompile(`\\[a-zA-Z]+\{[^}]*\}`)
	latexBareRe       = regexp.MustCompile(`\\[a-zA-Z]+`)
	whitespaceRunRe   = regexp.MustCompile(`\s+`)
)

// mainTexPriority orders candidate names for the main document file.
var mainTexPriority = []string{"main.tex", "article.tex", "paper.tex"}

// ParseLatexArchive extracts a gzip LaTeX source bundle, selects the
// main .tex file and parses it. The archive may be a tarball or a
// single gzipped .tex file.
func ParseLatexArchive(archive []byte) (*LatexDocument, error) {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()

	payload, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("decompress source bundle: %w", err)
	}

	texFiles, tarErr := collectTexFiles(payload)
	if tarErr != nil {
		// arXiv serves single-file submissions as a bare gzipped
		// .tex, not a tarball.
		if looksLikeLatex(payload) {
			logger.Debug("source bundle is a single gzipped .tex file")
			return ParseLatexSource(string(payload)), nil
		}
		return nil, fmt.Errorf("read source tarball: %w", tarErr)
	}
	if len(texFiles) == 0 {
		if looksLikeLatex(payload) {
			return ParseLatexSource(string(payload)), nil
		}
		return nil, fmt.Errorf("select main tex file: %w", domain.ErrEmptyDocument)
	}

	main := selectMainTex(texFiles)
	logger.Debug("selected main tex file %q of %d", main.name, len(texFiles))
	return ParseLatexSource(main.content), nil
}

type texFile struct {
	name    string
	content string
}

// collectTexFiles reads every .tex entry from a tar stream, in
// archive order.
func collectTexFiles(payload []byte) ([]texFile, error) {
	tr := tar.NewReader(bytes.NewReader(payload))
	var files []texFile
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if !strings.EqualFold(path.Ext(hdr.Name), ".tex") {
			continue
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		files = append(files, texFile{name: path.Base(hdr.Name), content: string(content)})
	}
	return files, nil
}

// selectMainTex applies the name priority list, falling back to the
// first .tex file in the archive.
func selectMainTex(files []texFile) texFile {
	for _, want := range mainTexPriority {
		for _, f := range files {
			if strings.EqualFold(f.name, want) {
				return f
			}
		}
	}
	return files[0]
}

func looksLikeLatex(payload []byte) bool {
	head := payload
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte(`\documentclass`)) ||
		bytes.Contains(head, []byte(`\begin{document}`))
}

// ParseLatexSource parses raw LaTeX source into title, authors,
// abstract, cleaned text and sections.
func ParseLatexSource(content string) *LatexDocument {
	doc := &LatexDocument{
		Text: CleanLatex(content),
	}

	if m := latexTitleRe.FindStringSubmatch(content); m != nil {
		doc.Title = strings.TrimSpace(m[1])
	}
	for _, m := range latexAuthorRe.FindAllStringSubmatch(content, -1) {
		for _, a := range authorSplitRe.Split(m[1], -1) {
			if a = strings.TrimSpace(a); a != "" {
				doc.Authors = append(doc.Authors, a)
			}
		}
	}
	if m := latexAbstractRe.FindStringSubmatch(content); m != nil {
		doc.Abstract = strings.TrimSpace(m[1])
	} else if m := abstractEnvRe.FindStringSubmatch(content); m != nil {
		doc.Abstract = strings.TrimSpace(CleanLatex(m[1]))
	}

	doc.Sections = latexSections(content)
	if len(doc.Sections) == 0 && doc.Text != "" {
		doc.Sections = []domain.Section{{
			Title:    FullArticleTitle,
			Level:    0,
			StartPos: 0,
			EndPos:   len(content),
			Content:  doc.Text,
		}}
	}
	return doc
}

// latexSections splits the source at sectioning commands. The
// preamble before the first command becomes a "Title" section.
func latexSections(content string) []domain.Section {
	matches := latexSectionRe.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}

	type mark struct {
		title string
		level int
		start int
	}
	marks := make([]mark, 0, len(matches))
	for _, m := range matches {
		command := content[m[2]:m[3]]
		marks = append(marks, mark{
			title: strings.TrimSpace(content[m[4]:m[5]]),
			level: latexSectionLevel(command),
			start: m[0],
		})
	}
	sort.SliceStable(marks, func(i, j int) bool { return marks[i].start < marks[j].start })

	var sections []domain.Section

	if marks[0].start > 0 {
		lead := CleanLatex(content[:marks[0].start])
		if lead != "" {
			sections = append(sections, domain.Section{
				Title:    TitleSectionName,
				Level:    0,
				StartPos: 0,
				EndPos:   marks[0].start,
				Content:  lead,
			})
		}
	}

	for i, mk := range marks {
		end := len(content)
		if i+1 < len(marks) {
			end = marks[i+1].start
		}
		clean := CleanLatex(content[mk.start:end])
		if clean == "" {
			continue
		}
		sections = append(sections, domain.Section{
			Title:    mk.title,
			Level:    mk.level,
			StartPos: mk.start,
			EndPos:   end,
			Content:  clean,
		})
	}
	return sections
}

func latexSectionLevel(command string) int {
	switch command {
	case "part", "chapter", "section":
		return 0
	case "subsection":
		return 1
	default:
		return 2
	}
}

// CleanLatex strips comments and commands from LaTeX source and
// collapses whitespace, leaving flat prose.
func CleanLatex(content string) string {
	text := latexCommentRe.ReplaceAllString(content, "")
	text = latexArgCommandRe.ReplaceAllString(text, "")
	text = latexBareRe.ReplaceAllString(text, "")
	text = whitespaceRunRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
