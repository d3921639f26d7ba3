package reconcile

import (
	"fmt"
	"strconv"

	"github.com/joseph-ayodele/tradedocs/internal/entity"
	"github.com/joseph-ayodele/tradedocs/internal/extract"
)

// FieldQuantity and FieldCustomCode extend the record field names for comparison.
const (
	FieldQuantity   = "quantity"
	FieldCustomCode = "custom_code"
)

type fieldGetter func(entity.ExtractedItem) string

var fieldGetters = map[string]fieldGetter{
	FieldQuantity:               func(it entity.ExtractedItem) string { return strconv.Itoa(it.Size.Quantity) },
	FieldCustomCode:             func(it entity.ExtractedItem) string { return it.CustomCode },
	extract.FieldStyle:          func(it entity.ExtractedItem) string { return it.Record.Style },
	extract.FieldColor:          func(it entity.ExtractedItem) string { return it.Record.Color },
	extract.FieldBrand:          func(it entity.ExtractedItem) string { return it.Record.Brand },
	extract.FieldSeason:         func(it entity.ExtractedItem) string { return it.Record.Season },
	extract.FieldWholesalePrice: func(it entity.ExtractedItem) string { return it.Record.WholesalePrice },
	extract.FieldRetailPrice:    func(it entity.ExtractedItem) string { return it.Record.RetailPrice },
	extract.FieldCategory:       func(it entity.ExtractedItem) string { return it.Record.Category },
	extract.FieldOrigin:         func(it entity.ExtractedItem) string { return it.Record.Origin },
}

// DefaultFields are compared on every common product/size.
var DefaultFields = []string{FieldQuantity, extract.FieldWholesalePrice}

func resolveFields(names []string) ([]string, error) {
	if len(names) == 0 {
		return append([]string(nil), DefaultFields...), nil
	}
	for _, n := range names {
		if _, ok := fieldGetters[n]; !ok {
			return nil, fmt.Errorf("unknown comparison field %q", n)
		}
	}
	return append([]string(nil), names...), nil
}
