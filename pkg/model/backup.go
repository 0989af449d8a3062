// Package model defines the plain data structures produced by the backup
// analysis engine and consumed by exporters, persistence and the web UI.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// BackupFile holds the metadata and derived scalars for one analyzed backup
// file. It is populated once per analysis run and never mutated afterwards.
type BackupFile struct {
	FileName      string    `json:"file_name"`
	SizeBytes     int64     `json:"size_bytes"`
	Signature     string    `json:"signature"`
	FormatVersion string    `json:"format_version"`
	AnalyzedAt    time.Time `json:"analyzed_at"`

	// Byte-class percentages over the whole file. NullPercent is a subset
	// of ControlPercent: every null byte is also a control byte.
	NullPercent    float64 `json:"null_percent"`
	ControlPercent float64 `json:"control_percent"`
	ASCIIPercent   float64 `json:"ascii_percent"`
	OtherPercent   float64 `json:"other_percent"`

	BlockCount      int `json:"block_count"`
	NullRegionCount int `json:"null_region_count"`
}

// NullRegion is a maximal run of zero bytes at least the configured minimum
// length. Start and End are inclusive byte offsets.
type NullRegion struct {
	Start  int `json:"start"`
	End    int `json:"end"`
	Length int `json:"length"`
}

// BlockKind classifies a structural block by its position in the file.
type BlockKind int

const (
	// BlockKindHeader is the block starting at offset 0.
	BlockKindHeader BlockKind = iota
	// BlockKindDefinition is a non-header block lying wholly before the
	// definition boundary offset.
	BlockKindDefinition
	// BlockKindData is any other block; invoice extraction only looks here.
	BlockKindData
)

// String returns the string representation of BlockKind.
func (k BlockKind) String() string {
	switch k {
	case BlockKindHeader:
		return "HEADER"
	case BlockKindDefinition:
		return "DEFINITION"
	case BlockKindData:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON marshals the kind as its string form.
func (k BlockKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON unmarshals the kind from its string form.
func (k *BlockKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "HEADER":
		*k = BlockKindHeader
	case "DEFINITION":
		*k = BlockKindDefinition
	case "DATA":
		*k = BlockKindData
	default:
		return fmt.Errorf("unknown block kind: %q", s)
	}
	return nil
}

// StructuralBlock is a contiguous byte span between (or around) null
// regions. Start and End are inclusive byte offsets. ContainsText,
// ContainsBinary and SignatureHex are only computed for non-header blocks.
type StructuralBlock struct {
	Index          int       `json:"index"`
	Start          int       `json:"start"`
	End            int       `json:"end"`
	Length         int       `json:"length"`
	Kind           BlockKind `json:"kind"`
	ContainsText   bool      `json:"contains_text"`
	ContainsBinary bool      `json:"contains_binary"`
	SignatureHex   string    `json:"signature_hex"`
}

// DensityWindow summarizes byte-class composition for one fixed-size slice
// of the file. The four densities are exclusive and sum to 1.0 per window.
type DensityWindow struct {
	Start          int     `json:"start"`
	End            int     `json:"end"`
	NullDensity    float64 `json:"null_density"`
	ControlDensity float64 `json:"control_density"`
	ASCIIDensity   float64 `json:"ascii_density"`
	OtherDensity   float64 `json:"other_density"`
}
