// Package records keeps the history of generated letters.
package records

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record - one generated letter.
type Record struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	FormType       string    `gorm:"size:64;index" json:"form_type"`
	TemplateName   string    `gorm:"size:255" json:"template_name"`
	Category       string    `gorm:"size:64" json:"category"`
	SubOption      string    `gorm:"size:64" json:"sub_option"`
	RujukanKami    string    `gorm:"size:128;index" json:"rujukan_kami"`
	RujukanTuan    string    `gorm:"size:128" json:"rujukan_tuan"`
	NamaSyarikat   string    `gorm:"size:255;index" json:"nama_syarikat"`
	Alamat         string    `gorm:"type:text" json:"alamat"`
	Tarikh         string    `gorm:"size:32" json:"tarikh"`
	TarikhIslam    string    `gorm:"size:64" json:"tarikh_islam"`
	NamaPegawai    string    `gorm:"size:255" json:"nama_pegawai"`
	Status         string    `gorm:"size:32;index" json:"status"`
	DocumentPath   string    `gorm:"size:1024" json:"document_path"`
	PDFPath        string    `gorm:"size:1024" json:"pdf_path"`
	AdditionalData string    `gorm:"type:text" json:"additional_data"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName - history table.
func (Record) TableName() string {
	return "applications"
}

// BeforeCreate hook to generate UUID
func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// SetAdditional stores extra form fields as JSON.
func (r *Record) SetAdditional(data map[string]string) error {
	if len(data) == 0 {
		r.AdditionalData = ""
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	r.AdditionalData = string(b)
	return nil
}

// Additional decodes AdditionalData; empty data gives an empty map.
func (r *Record) Additional() (map[string]string, error) {
	out := map[string]string{}
	if r.AdditionalData == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(r.AdditionalData), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AuditLog - an action taken on a record.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RecordID  string    `gorm:"size:36;index" json:"record_id"`
	Action    string    `gorm:"size:32" json:"action"`
	UserName  string    `gorm:"size:255" json:"user_name"`
	Details   string    `gorm:"type:text" json:"details"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}

// TableName - audit table.
func (AuditLog) TableName() string {
	return "audit_log"
}

// Record statuses
const (
	StatusGenerated = "GENERATED"
	StatusPDFFailed = "PDF_FAILED"
)

// Audit actions
const (
	ActionCreate = "CREATE"
	ActionDelete = "DELETE"
)

// Stats - counts for the history dashboard.
type Stats struct {
	Total      int64            `json:"total"`
	ByFormType map[string]int64 `json:"by_form_type"`
	ByStatus   map[string]int64 `json:"by_status"`
	ThisMonth  int64            `json:"this_month"`
}
