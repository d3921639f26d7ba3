package entity

import (
	"time"

	"github.com/google/uuid"
)

// Discrepancy is one field-level disagreement on a product/size present in both documents.
type Discrepancy struct {
	ProductCode string  `json:"product_code"`
	Size        string  `json:"size"`
	Field       string  `json:"field"`
	Doc1Value   string  `json:"doc1_value"`
	Doc2Value   string  `json:"doc2_value"`
	Similarity  float64 `json:"similarity"`
}

// DocOnlyEntry is a product/size present in only one of the two documents.
type DocOnlyEntry struct {
	ProductCode string `json:"product_code"`
	Size        string `json:"size"`
	Color       string `json:"color"`
	Quantity    int    `json:"quantity"`
}

// MatchingEntry is a product/size whose compared fields all agree.
type MatchingEntry struct {
	ProductCode string `json:"product_code"`
	Size        string `json:"size"`
}

// ComparisonResult is the immutable output of reconciling two extraction results.
type ComparisonResult struct {
	MatchRate            float64         `json:"match_rate"`
	ProductExistenceRate float64         `json:"product_existence_rate"`
	DetailScore          float64         `json:"detail_score"`
	TotalProducts        int             `json:"total_products"`
	CommonProducts       int             `json:"common_products"`
	Doc1OnlyProducts     int             `json:"doc1_only_products"`
	Doc2OnlyProducts     int             `json:"doc2_only_products"`
	MatchingFieldCount   int             `json:"matching_field_count"`
	Doc1Only             []DocOnlyEntry  `json:"doc1_only"`
	Doc2Only             []DocOnlyEntry  `json:"doc2_only"`
	Matching             []MatchingEntry `json:"matching"`
	Discrepancies        []Discrepancy   `json:"discrepancies"`
}

// Comparison is a persisted ComparisonResult for audit/history.
type Comparison struct {
	ID        uuid.UUID         `json:"id"`
	Doc1ID    uuid.UUID         `json:"doc1_id"`
	Doc2ID    uuid.UUID         `json:"doc2_id"`
	MatchRate float64           `json:"match_rate"`
	Result    *ComparisonResult `json:"result"`
	CreatedAt time.Time         `json:"created_at"`
}
