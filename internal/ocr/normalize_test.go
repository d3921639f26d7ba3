package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"crlf and tabs", "a\r\nb\tc\rd", "a\nb c\nd"},
		{"box rules removed", "AJ1323\n-----\nStyle", "AJ1323\n\nStyle"},
		{"blank runs collapsed", "a\n\n\n\n\nb", "a\n\nb"},
		{"quantity digits untouched", "BLACK BLACK 01 0 1", "BLACK BLACK 01 0 1"},
		{"form feed becomes newline", "p1\fp2", "p1\np2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}
