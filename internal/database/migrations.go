package database

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/aozorasoft/renraku/backend/internal/notebook"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationNormalizeRecordCategories = "2026-07-14_normalize_record_categories"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationNormalizeRecordCategories, apply: normalizeRecordCategories},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// normalizeRecordCategories rewrites stored record payloads whose category
// names carry stray whitespace or upper-case letters from early imports.
func normalizeRecordCategories(db *gorm.DB) error {
	var notes []notebook.DailyNote
	if err := db.Find(&notes).Error; err != nil {
		return err
	}

	type rawRecord struct {
		ID       int    `json:"id"`
		Category string `json:"category"`
		Text     string `json:"text"`
	}

	for _, note := range notes {
		var records []rawRecord
		if err := json.Unmarshal([]byte(note.RecordsJSON), &records); err != nil {
			continue
		}
		changed := false
		for index := range records {
			normalized := strings.ToLower(strings.TrimSpace(records[index].Category))
			if normalized != records[index].Category {
				records[index].Category = normalized
				changed = true
			}
		}
		if !changed {
			continue
		}
		encoded, err := json.Marshal(records)
		if err != nil {
			return err
		}
		err = db.Model(&notebook.DailyNote{}).
			Where("date_key = ?", note.DateKey).
			Update("records_json", string(encoded)).Error
		if err != nil {
			return err
		}
	}
	return nil
}
