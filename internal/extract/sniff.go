package extract

import "bytes"

// PayloadKind classifies a fetched document payload by content.
type PayloadKind string

const (
	PayloadGzip    PayloadKind = "gzip"
	PayloadPDF     PayloadKind = "pdf"
	PayloadZip     PayloadKind = "zip"
	PayloadLatex   PayloadKind = "latex"
	PayloadHTML    PayloadKind = "html"
	PayloadUnknown PayloadKind = "unknown"
)

// Sniff classifies a payload from its leading bytes. File extensions
// are untrustworthy for archive downloads; magic bytes are not.
func Sniff(data []byte) PayloadKind {
	switch {
	case bytes.HasPrefix(data, []byte{0x1f, 0x8b}):
		return PayloadGzip
	case bytes.HasPrefix(data, []byte("%PDF")):
		return PayloadPDF
	case bytes.HasPrefix(data, []byte("PK")):
		return PayloadZip
	case bytes.HasPrefix(data, []byte(`\documentclass`)), bytes.HasPrefix(data, []byte(`\begin{document}`)):
		return PayloadLatex
	case bytes.HasPrefix(data, []byte("<!DOCTYPE")), bytes.HasPrefix(data, []byte("<html")):
		return PayloadHTML
	default:
		return PayloadUnknown
	}
}
