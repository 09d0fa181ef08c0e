package database

import (
	"path/filepath"
	"testing"

	"github.com/aozorasoft/renraku/backend/internal/notebook"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestApplyMigrationsNormalizesRecordCategories(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	if err := database.AutoMigrate(&notebook.DailyNote{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	note := notebook.DailyNote{
		DateKey:          "2024-03-05",
		RecordsJSON:      `[{"id":1,"category":" Homework ","text":"漢字ドリル"},{"id":2,"category":"contact","text":""}]`,
		UpdatedBy:        "sensei@example.com",
		UpdatedAtSeconds: 1700000000,
	}
	if err := database.Create(&note).Error; err != nil {
		testContext.Fatalf("failed to insert daily note: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	var stored notebook.DailyNote
	if err := database.Where("date_key = ?", note.DateKey).Take(&stored).Error; err != nil {
		testContext.Fatalf("failed to reload daily note: %v", err)
	}
	records, err := stored.Records()
	if err != nil {
		testContext.Fatalf("failed to decode records: %v", err)
	}
	if len(records) != 2 {
		testContext.Fatalf("expected 2 records, got %d", len(records))
	}
	if string(records[0].Category) != "homework" {
		testContext.Fatalf("expected normalized category, got %q", records[0].Category)
	}
	if records[0].ID != 1 || records[1].ID != 2 {
		testContext.Fatalf("record ids changed during migration: %d, %d", records[0].ID, records[1].ID)
	}
	if records[0].Text != "漢字ドリル" {
		testContext.Fatalf("record text changed during migration: %q", records[0].Text)
	}

	var record migrationRecord
	if err := database.Where("name = ?", migrationNormalizeRecordCategories).Take(&record).Error; err != nil {
		testContext.Fatalf("expected migration record to be created: %v", err)
	}
	if record.AppliedAtSeconds == 0 {
		testContext.Fatalf("expected migration timestamp to be set")
	}
}

func TestApplyMigrationsRunsOnce(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(&notebook.DailyNote{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}
	var first migrationRecord
	if err := database.Where("name = ?", migrationNormalizeRecordCategories).Take(&first).Error; err != nil {
		testContext.Fatalf("expected migration record: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("second migration pass failed: %v", err)
	}
	var count int64
	if err := database.Model(&migrationRecord{}).Count(&count).Error; err != nil {
		testContext.Fatalf("failed to count migration records: %v", err)
	}
	if count != 1 {
		testContext.Fatalf("expected a single migration record, got %d", count)
	}
}

func TestOpenSQLiteRequiresPath(testContext *testing.T) {
	if _, err := OpenSQLite("", zap.NewNop()); err == nil {
		testContext.Fatalf("expected an error for an empty path")
	}
}
