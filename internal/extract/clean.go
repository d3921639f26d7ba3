package extract

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Clean prepares OCR text for segmentation: NFKC folding, removal of
// denylisted OCR glyphs and whitespace collapsing. Horizontal whitespace
// runs become one space; any run containing a line break becomes one "\n".
func Clean(text string, noise []string) string {
	s := norm.NFKC.String(text)
	if len(noise) > 0 {
		pairs := make([]string, 0, len(noise)*2)
		for _, g := range noise {
			if g == "" {
				continue
			}
			pairs = append(pairs, g, " ")
		}
		s = strings.NewReplacer(pairs...).Replace(s)
	}

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace, pendingNL := false, false
	for _, r := range s {
		switch r {
		case '\n', '\r', '\f', '\v':
			pendingNL = true
			continue
		case ' ', '\t', '\u00a0':
			pendingSpace = true
			continue
		}
		if b.Len() > 0 {
			if pendingNL {
				b.WriteByte('\n')
			} else if pendingSpace {
				b.WriteByte(' ')
			}
		}
		pendingSpace, pendingNL = false, false
		b.WriteRune(r)
	}
	return b.String()
}
