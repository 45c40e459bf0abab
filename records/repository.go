package records

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Repository - history records and their audit trail.
type Repository interface {
	Create(r *Record, user string) error
	Get(id string) (*Record, error)
	List(formType string, limit int) ([]Record, error)
	Search(text, formType string) ([]Record, error)
	Delete(id, user string) error
	Stats(formType string) (*Stats, error)
	AuditTrail(recordID string, limit int) ([]AuditLog, error)
}

type repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository - repository over a migrated db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db, now: time.Now}
}

// Models - tables this package needs migrated.
func Models() []any {
	return []any{&Record{}, &AuditLog{}}
}

// Create inserts the record and its CREATE audit entry in one transaction.
func (r *repository) Create(rec *Record, user string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("create record: %w", err)
		}
		return r.audit(tx, rec.ID, ActionCreate, user, fmt.Sprintf("%s %s", rec.FormType, rec.TemplateName))
	})
}

// Get - one record by id.
func (r *repository) Get(id string) (*Record, error) {
	var rec Record
	result := r.db.Where("id = ?", id).First(&rec)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &rec, nil
}

// List - newest first, optionally of one form type; limit <= 0 means 100.
func (r *repository) List(formType string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []Record
	q := r.db.Order("created_at DESC").Limit(limit)
	if formType != "" {
		q = q.Where("form_type = ?", formType)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Search - records whose reference, company or address contains text.
func (r *repository) Search(text, formType string) ([]Record, error) {
	like := "%" + strings.TrimSpace(text) + "%"
	var out []Record
	q := r.db.Where("rujukan_kami LIKE ? OR nama_syarikat LIKE ? OR alamat LIKE ?", like, like, like)
	if formType != "" {
		q = q.Where("form_type = ?", formType)
	}
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the record and logs who did it.
func (r *repository) Delete(id, user string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&Record{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return r.audit(tx, id, ActionDelete, user, "")
	})
}

// Stats - totals by form type and status, plus this month's count.
func (r *repository) Stats(formType string) (*Stats, error) {
	base := func() *gorm.DB {
		q := r.db.Model(&Record{})
		if formType != "" {
			q = q.Where("form_type = ?", formType)
		}
		return q
	}

	s := &Stats{ByFormType: map[string]int64{}, ByStatus: map[string]int64{}}
	if err := base().Count(&s.Total).Error; err != nil {
		return nil, err
	}

	type bucket struct {
		Name  string
		Count int64
	}
	var rows []bucket
	if err := base().Select("form_type AS name, COUNT(*) AS count").Group("form_type").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, b := range rows {
		s.ByFormType[b.Name] = b.Count
	}
	rows = nil
	if err := base().Select("status AS name, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, b := range rows {
		s.ByStatus[b.Name] = b.Count
	}

	now := r.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if err := base().Where("created_at >= ?", monthStart).Count(&s.ThisMonth).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// AuditTrail - newest first; empty recordID lists everything.
func (r *repository) AuditTrail(recordID string, limit int) ([]AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []AuditLog
	q := r.db.Order("timestamp DESC").Order("id DESC").Limit(limit)
	if recordID != "" {
		q = q.Where("record_id = ?", recordID)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) audit(tx *gorm.DB, recordID, action, user, details string) error {
	entry := AuditLog{
		RecordID:  recordID,
		Action:    action,
		UserName:  user,
		Details:   details,
		Timestamp: r.now(),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}
