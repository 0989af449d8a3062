// Package repository provides database persistence for analysis runs.
package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/pdv-analysis/pkg/model"
)

// BackupFileRecord represents the backup_files table. Structural details
// (blocks and null regions) are stored as JSON documents alongside the
// scalar summary columns.
type BackupFileRecord struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunUUID         string    `gorm:"column:run_uuid;type:varchar(64);uniqueIndex"`
	FileName        string    `gorm:"column:file_name;type:varchar(512)"`
	SizeBytes       int64     `gorm:"column:size_bytes"`
	Signature       string    `gorm:"column:signature;type:varchar(8)"`
	FormatVersion   string    `gorm:"column:format_version;type:varchar(16)"`
	NullPercent     float64   `gorm:"column:null_percent"`
	ControlPercent  float64   `gorm:"column:control_percent"`
	ASCIIPercent    float64   `gorm:"column:ascii_percent"`
	OtherPercent    float64   `gorm:"column:other_percent"`
	BlockCount      int       `gorm:"column:block_count"`
	NullRegionCount int       `gorm:"column:null_region_count"`
	RecordCount     int       `gorm:"column:record_count"`
	Blocks          JSONField `gorm:"column:blocks;type:json"`
	Regions         JSONField `gorm:"column:regions;type:json"`
	AnalyzedAt      time.Time `gorm:"column:analyzed_at"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for BackupFileRecord.
func (BackupFileRecord) TableName() string {
	return "backup_files"
}

// ToModel converts BackupFileRecord to the analysis result it was saved
// from. Invoice records live in their own table and are filled in by the
// repository.
func (r *BackupFileRecord) ToModel() (*model.AnalysisResult, error) {
	result := &model.AnalysisResult{
		File: &model.BackupFile{
			FileName:        r.FileName,
			SizeBytes:       r.SizeBytes,
			Signature:       r.Signature,
			FormatVersion:   r.FormatVersion,
			AnalyzedAt:      r.AnalyzedAt,
			NullPercent:     r.NullPercent,
			ControlPercent:  r.ControlPercent,
			ASCIIPercent:    r.ASCIIPercent,
			OtherPercent:    r.OtherPercent,
			BlockCount:      r.BlockCount,
			NullRegionCount: r.NullRegionCount,
		},
	}

	if r.Blocks != nil {
		if err := json.Unmarshal(r.Blocks, &result.Blocks); err != nil {
			return nil, err
		}
	}
	if r.Regions != nil {
		if err := json.Unmarshal(r.Regions, &result.Regions); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// InvoiceRow represents the invoice_records table.
type InvoiceRow struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunUUID    string    `gorm:"column:run_uuid;type:varchar(64);index"`
	BlockIndex int       `gorm:"column:block_index"`
	Offset     int       `gorm:"column:byte_offset"`
	Number     string    `gorm:"column:number;type:varchar(16)"`
	Series     string    `gorm:"column:series;type:varchar(8)"`
	TotalValue float64   `gorm:"column:total_value"`
	FinalValue float64   `gorm:"column:final_value"`
	Status     string    `gorm:"column:status;type:varchar(16)"`
	Kind       string    `gorm:"column:kind;type:varchar(16)"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for InvoiceRow.
func (InvoiceRow) TableName() string {
	return "invoice_records"
}

// ToModel converts InvoiceRow to model.InvoiceRecord.
func (r *InvoiceRow) ToModel() model.InvoiceRecord {
	return model.InvoiceRecord{
		BlockIndex: r.BlockIndex,
		Offset:     r.Offset,
		Number:     r.Number,
		Series:     r.Series,
		TotalValue: r.TotalValue,
		FinalValue: r.FinalValue,
		Status:     r.Status,
		Kind:       r.Kind,
	}
}

// newInvoiceRow builds an InvoiceRow from a model record.
func newInvoiceRow(runUUID string, rec model.InvoiceRecord) *InvoiceRow {
	return &InvoiceRow{
		RunUUID:    runUUID,
		BlockIndex: rec.BlockIndex,
		Offset:     rec.Offset,
		Number:     rec.Number,
		Series:     rec.Series,
		TotalValue: rec.TotalValue,
		FinalValue: rec.FinalValue,
		Status:     rec.Status,
		Kind:       rec.Kind,
	}
}

// JSONField is a custom type for handling JSON fields in GORM.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}
