package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pdv-analysis/pkg/model"
)

func writeInvoicesCSV(w io.Writer, records []model.InvoiceRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{
		"number", "series", "total_value", "final_value",
		"status", "kind", "block_index", "offset",
	}); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			rec.Number,
			rec.Series,
			strconv.FormatFloat(rec.TotalValue, 'f', 2, 64),
			strconv.FormatFloat(rec.FinalValue, 'f', 2, 64),
			rec.Status,
			rec.Kind,
			strconv.Itoa(rec.BlockIndex),
			strconv.Itoa(rec.Offset),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeBlocksCSV(w io.Writer, blocks []model.StructuralBlock) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{
		"index", "start", "end", "length", "kind",
		"contains_text", "contains_binary", "signature_hex",
	}); err != nil {
		return err
	}

	for _, b := range blocks {
		row := []string{
			strconv.Itoa(b.Index),
			strconv.Itoa(b.Start),
			strconv.Itoa(b.End),
			strconv.Itoa(b.Length),
			b.Kind.String(),
			strconv.FormatBool(b.ContainsText),
			strconv.FormatBool(b.ContainsBinary),
			b.SignatureHex,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeRegionsCSV(w io.Writer, regions []model.NullRegion) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"start", "end", "length"}); err != nil {
		return err
	}

	for _, r := range regions {
		row := []string{
			strconv.Itoa(r.Start),
			strconv.Itoa(r.End),
			strconv.Itoa(r.Length),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
