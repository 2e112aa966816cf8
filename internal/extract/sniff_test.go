package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want PayloadKind
	}{
		{"gzip", []byte{0x1f, 0x8b, 0x08, 0x00}, PayloadGzip},
		{"pdf", []byte("%PDF-1.7 rest"), PayloadPDF},
		{"zip", []byte("PK\x03\x04"), PayloadZip},
		{"latex", []byte(`\documentclass{article}`), PayloadLatex},
		{"html", []byte("<!DOCTYPE html>"), PayloadHTML},
		{"empty", nil, PayloadUnknown},
		{"plain text", []byte("hello there"), PayloadUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sniff(tt.data))
		})
	}
}
