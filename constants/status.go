package constants

// DocStatus is the canonical status for rows in documents.
type DocStatus string

// Stable values (store these exact strings in DB).
const (
	DocStatusRunning   DocStatus = "RUNNING"   // extraction in progress
	DocStatusExtracted DocStatus = "EXTRACTED" // at least one item extracted
	DocStatusEmpty     DocStatus = "EMPTY"     // processed, nothing usable found
	DocStatusFailed    DocStatus = "FAILED"    // conversion failed, no partial result
)

// IsTerminal reports whether the status ends a document's lifecycle.
func (s DocStatus) IsTerminal() bool {
	return s == DocStatusExtracted || s == DocStatusEmpty || s == DocStatusFailed
}
