package extract

import (
	"github.com/joseph-ayodele/tradedocs/internal/entity"
)

// FieldExtractor applies a compiled rule table to one product section.
type FieldExtractor struct {
	rules *Rules
}

func NewFieldExtractor(rules *Rules) *FieldExtractor {
	if rules == nil {
		rules = DefaultRules()
	}
	return &FieldExtractor{rules: rules}
}

// Extract populates a record from section. Every rule runs on its own, so a
// miss on one field never affects another; misses leave the field empty.
func (f *FieldExtractor) Extract(section string) entity.ProductRecord {
	values := make(map[string]string, len(f.rules.Fields)+1)
	for _, rule := range f.rules.Fields {
		for _, re := range rule.Patterns {
			m := re.FindStringSubmatch(section)
			if m == nil {
				continue
			}
			got := make([]string, len(rule.Fields))
			complete := true
			for i := range rule.Fields {
				g := rule.Groups[i]
				if g >= len(m) || m[g] == "" {
					complete = false
					break
				}
				v := m[g]
				if rule.Post != nil {
					v = rule.Post(v)
				}
				got[i] = v
			}
			if !complete {
				continue
			}
			for i, name := range rule.Fields {
				values[name] = got[i]
			}
			break
		}
	}
	return entity.ProductRecord{
		ProductCode:    values[FieldProductCode],
		Style:          values[FieldStyle],
		Color:          values[FieldColor],
		Brand:          values[FieldBrand],
		Season:         values[FieldSeason],
		WholesalePrice: values[FieldWholesalePrice],
		RetailPrice:    values[FieldRetailPrice],
		Category:       values[FieldCategory],
		Origin:         values[FieldOrigin],
	}
}
