package extract

import (
	"regexp"

	"github.com/joseph-ayodele/tradedocs/internal/entity"
)

// Segment splits cleaned document text into product sections. Each match of
// code opens a section that runs up to the next match or end of text. Text
// before the first match is not part of any section (see Prefix).
func Segment(code *regexp.Regexp, cleaned string) []entity.ProductSection {
	locs := code.FindAllStringIndex(cleaned, -1)
	if len(locs) == 0 {
		return nil
	}
	sections := make([]entity.ProductSection, 0, len(locs))
	for i, loc := range locs {
		end := len(cleaned)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		sections = append(sections, entity.ProductSection{
			Code:  cleaned[loc[0]:loc[1]],
			Start: loc[0],
			End:   end,
			Text:  cleaned[loc[0]:end],
		})
	}
	return sections
}

// Prefix returns the text preceding the first product code, or the whole
// text when there is none.
func Prefix(code *regexp.Regexp, cleaned string) string {
	loc := code.FindStringIndex(cleaned)
	if loc == nil {
		return cleaned
	}
	return cleaned[:loc[0]]
}
