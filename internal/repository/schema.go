package repository

import (
	"strings"

	"entgo.io/ent/dialect"
)

const (
	tableDocuments   = "documents"
	tableItems       = "document_items"
	tableComparisons = "comparisons"
)

var documentColumns = []string{
	"id", "name", "source_path", "content_hash", "pages", "item_count",
	"status", "error_message", "needs_review", "created_at", "finished_at",
}

var itemColumns = []string{
	"document_id", "position", "page", "product_code", "style", "color", "brand", "season",
	"wholesale_price", "retail_price", "category", "origin", "size", "quantity",
	"custom_code", "size_path",
}

var comparisonColumns = []string{"id", "doc1_id", "doc2_id", "match_rate", "result", "created_at"}

// schema returns the DDL for d. Timestamps are unix milliseconds so both
// drivers scan them the same way.
func schema(d string) []string {
	floatType := "REAL"
	if d == dialect.Postgres {
		floatType = "DOUBLE PRECISION"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			source_path TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			pages INTEGER NOT NULL DEFAULT 0,
			item_count INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error_message TEXT,
			needs_review BOOLEAN NOT NULL DEFAULT FALSE,
			created_at BIGINT NOT NULL,
			finished_at BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS documents_content_hash ON documents (content_hash)`,
		`CREATE TABLE IF NOT EXISTS document_items (
			document_id TEXT NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			page INTEGER NOT NULL,
			product_code TEXT NOT NULL,
			style TEXT NOT NULL,
			color TEXT NOT NULL,
			brand TEXT NOT NULL,
			season TEXT NOT NULL,
			wholesale_price TEXT NOT NULL,
			retail_price TEXT NOT NULL,
			category TEXT NOT NULL,
			origin TEXT NOT NULL,
			size TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			custom_code TEXT NOT NULL,
			size_path TEXT NOT NULL,
			PRIMARY KEY (document_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS comparisons (
			id TEXT PRIMARY KEY,
			doc1_id TEXT NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
			doc2_id TEXT NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
			match_rate REAL NOT NULL,
			result TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
	}
	for i := range stmts {
		stmts[i] = strings.ReplaceAll(stmts[i], " REAL ", " "+floatType+" ")
	}
	return stmts
}
