// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ParsedDocument is the ingest stage's record for one raw document, written
// as documents/parsed/<stem>.yaml.
type ParsedDocument struct {
	// SourceID is the opaque id the merge records as provenance. It is kept
	// across re-ingestion while the document content is unchanged.
	SourceID string `json:"source_id" yaml:"source_id"`

	// Path is the raw document the record was parsed from.
	Path string `json:"path" yaml:"path"`

	// ContentHash identifies the raw bytes; it keys the parse cache.
	ContentHash string `json:"content_hash" yaml:"content_hash"`

	Detection Detection   `json:"detection" yaml:"detection"`
	Result    ParseResult `json:"result" yaml:"result"`

	// Cached is set when Result came from the parse cache.
	Cached bool `json:"cached,omitempty" yaml:"cached,omitempty"`
}
