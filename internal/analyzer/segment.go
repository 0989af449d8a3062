package analyzer

import (
	"encoding/hex"
	"sort"

	"github.com/pdv-analysis/pkg/model"
)

// blockSignatureLen is how many leading bytes of a block are captured as
// its hex signature.
const blockSignatureLen = 16

// segmentBlocks derives structural blocks from the gaps between null
// regions plus the tail after the last region. Blocks and regions jointly
// tile [0, len(data)-1] with no gaps and no overlaps.
//
// The region list is sorted defensively before walking it; a list with
// overlapping or equal-start regions is a contract violation and yields
// ErrMalformedRegions.
func segmentBlocks(data []byte, regions []model.NullRegion, definitionBoundary int) ([]model.StructuralBlock, error) {
	sorted := make([]model.NullRegion, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start <= sorted[i-1].End {
			return nil, ErrMalformedRegions
		}
	}

	blocks := make([]model.StructuralBlock, 0, len(sorted)+1)
	cursor := 0

	appendBlock := func(start, end int) {
		b := model.StructuralBlock{
			Index:  len(blocks),
			Start:  start,
			End:    end,
			Length: end - start + 1,
			Kind:   classifyBlock(start, end, len(blocks), definitionBoundary),
		}
		if b.Kind != model.BlockKindHeader {
			inspectBlockContent(data[start:end+1], &b)
		}
		blocks = append(blocks, b)
	}

	for _, region := range sorted {
		if region.Start > cursor {
			appendBlock(cursor, region.Start-1)
		} else if cursor > 0 {
			// Region starts at or before the cursor. Maximal runs can
			// never touch or overlap, so this list did not come from
			// the scanner and a zero-length block is about to appear.
			return nil, ErrMalformedRegions
		}
		cursor = region.End + 1
	}

	if cursor < len(data) {
		appendBlock(cursor, len(data)-1)
	}

	return blocks, nil
}

// classifyBlock assigns the kind purely by position: the block at offset 0
// is the header, later blocks wholly below the definition boundary are
// definition blocks, everything else is data.
func classifyBlock(start, end, index, definitionBoundary int) model.BlockKind {
	if index == 0 && start == 0 {
		return model.BlockKindHeader
	}
	if end < definitionBoundary {
		return model.BlockKindDefinition
	}
	return model.BlockKindData
}

// inspectBlockContent fills the content heuristics: a block "contains text"
// when printable ASCII makes up more than half of it, "contains binary"
// when any byte exceeds 127. The first bytes are kept hex-encoded for
// manual identification.
func inspectBlockContent(block []byte, b *model.StructuralBlock) {
	ascii := 0
	for _, c := range block {
		if c >= 32 && c <= 127 {
			ascii++
		}
		if c > 127 {
			b.ContainsBinary = true
		}
	}
	b.ContainsText = ascii*2 > len(block)

	n := len(block)
	if n > blockSignatureLen {
		n = blockSignatureLen
	}
	b.SignatureHex = hex.EncodeToString(block[:n])
}
