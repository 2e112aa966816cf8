package extract

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTex = `\documentclass{article}
\title{Neural Networks for Tests}
\author{Ada Lovelace \and Alan Turing}
\begin{document}
\maketitle
\begin{abstract}
We study structured extraction.
\end{abstract}
\section{Introduction}
Intro text here.
\section{Methods}
% an internal note
Method text.
\subsection{Setup}
Setup text.
\end{document}`

func gzipTarball(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestParseLatexSource(t *testing.T) {
	doc := ParseLatexSource(sampleTex)

	assert.Equal(t, "Neural Networks for Tests", doc.Title)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, doc.Authors)
	assert.Equal(t, "We study structured extraction.", doc.Abstract)

	titles := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"Title", "Introduction", "Methods", "Setup"}, titles)

	assert.Equal(t, 0, doc.Sections[1].Level)
	assert.Equal(t, 1, doc.Sections[3].Level)

	// Comments and commands are stripped from section contents.
	assert.Equal(t, "Method text.", doc.Sections[2].Content)
	assert.NotContains(t, doc.Text, `\section`)
	assert.NotContains(t, doc.Text, "internal note")
}

func TestParseLatexSource_NoSections(t *testing.T) {
	doc := ParseLatexSource(`\documentclass{article}
\begin{document}
Flat body without sectioning.
\end{document}`)

	require.Len(t, doc.Sections, 1)
	assert.Equal(t, FullArticleTitle, doc.Sections[0].Title)
	assert.Contains(t, doc.Sections[0].Content, "Flat body without sectioning.")
}

func TestParseLatexArchive_SelectsMainTex(t *testing.T) {
	archive := gzipTarball(t, map[string]string{
		"supplement.tex": `\title{Wrong File}\section{Extra}{}`,
		"main.tex":       sampleTex,
	})

	doc, err := ParseLatexArchive(archive)
	require.NoError(t, err)
	assert.Equal(t, "Neural Networks for Tests", doc.Title)
}

func TestParseLatexArchive_SingleGzippedTex(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(sampleTex))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	doc, err := ParseLatexArchive(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Neural Networks for Tests", doc.Title)
}

func TestParseLatexArchive_NotGzip(t *testing.T) {
	_, err := ParseLatexArchive([]byte("%PDF-1.5 definitely not gzip"))
	assert.Error(t, err)
}

func TestCleanLatex(t *testing.T) {
	got := CleanLatex("Some \\textbf{bold} words % trailing comment\nand \\noindent more")
	assert.Equal(t, "Some words and more", got)
}
