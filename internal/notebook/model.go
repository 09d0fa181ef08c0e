package notebook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aozorasoft/renraku/backend/internal/layout"
)

const (
	dateKeyLayout        = "2006-01-02"
	maxStamperNameLength = 64
	defaultRecordCount   = 8
)

var (
	// ErrInvalidDateKey indicates a date key that is not a calendar date in
	// YYYY-MM-DD form.
	ErrInvalidDateKey = errors.New("notebook: invalid date key")
	// ErrInvalidStamperName indicates an empty or over-long acknowledgement name.
	ErrInvalidStamperName = errors.New("notebook: invalid stamper name")
	// ErrUnknownCategory indicates a category outside the closed enumeration.
	ErrUnknownCategory = errors.New("notebook: unknown category")
	// ErrRecordNotFound indicates that no content record carries the requested id.
	ErrRecordNotFound = errors.New("notebook: record not found")
	// ErrPreviousDayNotFound indicates that the prior day has no stored note.
	ErrPreviousDayNotFound = errors.New("notebook: previous day not found")
)

// DateKey is a validated YYYY-MM-DD date string, the primary key of the
// daily note store.
type DateKey string

// NewDateKey validates raw input and returns a DateKey.
func NewDateKey(rawInput string) (DateKey, error) {
	trimmed := strings.TrimSpace(rawInput)
	parsed, err := time.Parse(dateKeyLayout, trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDateKey, rawInput)
	}
	// time.Parse accepts some non-canonical spellings; round-trip to reject them.
	if parsed.Format(dateKeyLayout) != trimmed {
		return "", fmt.Errorf("%w: %q", ErrInvalidDateKey, rawInput)
	}
	return DateKey(trimmed), nil
}

// String returns the underlying date string.
func (k DateKey) String() string {
	return string(k)
}

// Time returns the calendar date at midnight UTC.
func (k DateKey) Time() time.Time {
	parsed, _ := time.Parse(dateKeyLayout, string(k))
	return parsed
}

// Previous returns the key of the prior calendar day.
func (k DateKey) Previous() DateKey {
	return DateKey(k.Time().AddDate(0, 0, -1).Format(dateKeyLayout))
}

// StamperName is a validated self-reported acknowledgement name.
type StamperName string

// NewStamperName trims raw input and rejects blank or over-long names.
func NewStamperName(rawInput string) (StamperName, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: blank", ErrInvalidStamperName)
	}
	if len(trimmed) > maxStamperNameLength {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrInvalidStamperName, maxStamperNameLength)
	}
	return StamperName(trimmed), nil
}

// String returns the underlying name.
func (n StamperName) String() string {
	return string(n)
}

// ParseCategory validates raw input against the closed category enumeration.
// Only the edit surface is strict; rendering degrades unknown stored values
// to a blank marker instead.
func ParseCategory(rawInput string) (layout.Category, error) {
	category := layout.Category(strings.ToLower(strings.TrimSpace(rawInput)))
	if !category.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, rawInput)
	}
	return category, nil
}

// ContentRecord is one authored column of a day's note. Records are
// persisted as a whole ordered list; list position is the display order.
type ContentRecord struct {
	ID       int             `json:"id"`
	Category layout.Category `json:"category"`
	Text     string          `json:"text"`
}

// DefaultRecords returns the eight-record skeleton used for days with no
// stored note yet: ids 1..8, pre-assigned categories, empty text.
func DefaultRecords() []ContentRecord {
	categories := []layout.Category{
		layout.CategoryHandout,
		layout.CategoryHomework,
		layout.CategoryNormal,
		layout.CategoryNormal,
		layout.CategoryContact,
		layout.CategoryContact,
		layout.CategoryBelongings,
		layout.CategoryEmpty,
	}
	records := make([]ContentRecord, 0, defaultRecordCount)
	for index, category := range categories {
		records = append(records, ContentRecord{ID: index + 1, Category: category})
	}
	return records
}

// DailyNote is the persisted aggregate for one date. The record list is
// stored as a JSON document and overwritten wholesale on every mutation;
// concurrent edits race last-write-wins.
type DailyNote struct {
	DateKey          string `gorm:"column:date_key;primaryKey;size:10;not null"`
	RecordsJSON      string `gorm:"column:records_json;type:text;not null"`
	UpdatedBy        string `gorm:"column:updated_by;size:320;not null;default:''"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (DailyNote) TableName() string {
	return "daily_notes"
}

// Records decodes the stored record list.
func (n DailyNote) Records() ([]ContentRecord, error) {
	if strings.TrimSpace(n.RecordsJSON) == "" {
		return nil, nil
	}
	var records []ContentRecord
	if err := json.Unmarshal([]byte(n.RecordsJSON), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Acknowledgement is one append-only "read this" stamp for a date. Names
// are self-reported and deliberately not unique per date.
type Acknowledgement struct {
	StampID          string `gorm:"column:stamp_id;primaryKey;size:190;not null"`
	DateKey          string `gorm:"column:date_key;size:10;not null;index:idx_stamps_date_time,priority:1"`
	Name             string `gorm:"column:name;size:190;not null"`
	StampedAtSeconds int64  `gorm:"column:stamped_at_s;not null;index:idx_stamps_date_time,priority:2"`
}

// TableName provides the explicit table binding for GORM.
func (Acknowledgement) TableName() string {
	return "acknowledgements"
}

// Day is the loaded view of one date: the stored note, or the default
// skeleton when nothing has been saved yet.
type Day struct {
	Date      DateKey
	Records   []ContentRecord
	UpdatedBy string
	UpdatedAt time.Time
	Stored    bool
}
