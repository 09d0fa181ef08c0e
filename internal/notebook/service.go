package notebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aozorasoft/renraku/backend/internal/layout"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	// ErrInvalidDirection indicates a move direction other than -1 or +1.
	ErrInvalidDirection = errors.New("notebook: invalid move direction")
	noOpLogger          = zap.NewNop()
)

// ServiceError carries a dotted operation code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code exposes the dotted operation code for transport-layer error bodies.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew    = "notebook.service.new"
	opLoadDay       = "notebook.load_day"
	opSetText       = "notebook.set_text"
	opSetCategory   = "notebook.set_category"
	opMoveRecord    = "notebook.move_record"
	opCopyPrevious  = "notebook.copy_previous_day"
	opSubmitStamp   = "notebook.submit_acknowledgement"
	opListStamps    = "notebook.list_acknowledgements"
	opPersistedSave = "notebook.save_day"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// IDProvider issues identifiers for acknowledgement stamps.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig bundles the dependencies of the notebook service.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service owns daily notes and their acknowledgement logs.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService validates the configuration and constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// LoadDay returns the stored note for the date, or the default eight-record
// skeleton when nothing has been saved yet. The skeleton is not persisted;
// the first privileged save materializes it.
func (s *Service) LoadDay(ctx context.Context, date DateKey) (Day, error) {
	if s.db == nil {
		s.logError(opLoadDay, "missing_database", errMissingDatabase)
		return Day{}, newServiceError(opLoadDay, "missing_database", errMissingDatabase)
	}

	var stored DailyNote
	err := s.db.WithContext(ctx).
		Where("date_key = ?", date.String()).
		Take(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Day{Date: date, Records: DefaultRecords()}, nil
	}
	if err != nil {
		s.logError(opLoadDay, "query_failed", err, zap.String("date", date.String()))
		return Day{}, newServiceError(opLoadDay, "query_failed", err)
	}

	records, err := stored.Records()
	if err != nil {
		s.logError(opLoadDay, "decode_failed", err, zap.String("date", date.String()))
		return Day{}, newServiceError(opLoadDay, "decode_failed", err)
	}

	return Day{
		Date:      date,
		Records:   records,
		UpdatedBy: stored.UpdatedBy,
		UpdatedAt: time.Unix(stored.UpdatedAtSeconds, 0).UTC(),
		Stored:    true,
	}, nil
}

// SetText replaces one record's text and persists the whole list. Text is
// clamped to the column's display-unit budget before storage; the layout
// still truncates whatever bypassed the service.
func (s *Service) SetText(ctx context.Context, date DateKey, recordID int, text string, author string) (Day, error) {
	day, err := s.LoadDay(ctx, date)
	if err != nil {
		return Day{}, err
	}

	index := recordIndex(day.Records, recordID)
	if index < 0 {
		return Day{}, newServiceError(opSetText, "record_not_found", fmt.Errorf("%w: id %d", ErrRecordNotFound, recordID))
	}
	day.Records[index].Text = layout.ClampText(text, layout.MaxTextUnits)

	return s.saveDay(ctx, opSetText, date, day.Records, author)
}

// SetCategory replaces one record's category and persists the whole list.
func (s *Service) SetCategory(ctx context.Context, date DateKey, recordID int, category layout.Category, author string) (Day, error) {
	if !category.Known() {
		return Day{}, newServiceError(opSetCategory, "unknown_category", fmt.Errorf("%w: %q", ErrUnknownCategory, category))
	}

	day, err := s.LoadDay(ctx, date)
	if err != nil {
		return Day{}, err
	}

	index := recordIndex(day.Records, recordID)
	if index < 0 {
		return Day{}, newServiceError(opSetCategory, "record_not_found", fmt.Errorf("%w: id %d", ErrRecordNotFound, recordID))
	}
	day.Records[index].Category = category

	return s.saveDay(ctx, opSetCategory, date, day.Records, author)
}

// MoveRecord swaps the record at index with its neighbor in the given
// direction and persists on success. A target outside the list is a silent
// no-op: the day is returned unchanged and nothing is written.
func (s *Service) MoveRecord(ctx context.Context, date DateKey, index int, direction int, author string) (Day, bool, error) {
	if direction != -1 && direction != 1 {
		return Day{}, false, newServiceError(opMoveRecord, "invalid_direction", fmt.Errorf("%w: %d", ErrInvalidDirection, direction))
	}

	day, err := s.LoadDay(ctx, date)
	if err != nil {
		return Day{}, false, err
	}

	target := index + direction
	if index < 0 || index >= len(day.Records) || target < 0 || target >= len(day.Records) {
		return day, false, nil
	}
	day.Records[index], day.Records[target] = day.Records[target], day.Records[index]

	saved, err := s.saveDay(ctx, opMoveRecord, date, day.Records, author)
	if err != nil {
		return Day{}, false, err
	}
	return saved, true, nil
}

// CopyFromPreviousDay replaces the date's record list with the prior
// calendar day's stored list. A missing predecessor is reported as
// ErrPreviousDayNotFound without mutating anything.
func (s *Service) CopyFromPreviousDay(ctx context.Context, date DateKey, author string) (Day, error) {
	if s.db == nil {
		s.logError(opCopyPrevious, "missing_database", errMissingDatabase)
		return Day{}, newServiceError(opCopyPrevious, "missing_database", errMissingDatabase)
	}

	previous := date.Previous()
	var stored DailyNote
	err := s.db.WithContext(ctx).
		Where("date_key = ?", previous.String()).
		Take(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Day{}, newServiceError(opCopyPrevious, "not_found", fmt.Errorf("%w: %s", ErrPreviousDayNotFound, previous))
	}
	if err != nil {
		s.logError(opCopyPrevious, "query_failed", err, zap.String("date", previous.String()))
		return Day{}, newServiceError(opCopyPrevious, "query_failed", err)
	}

	records, err := stored.Records()
	if err != nil {
		s.logError(opCopyPrevious, "decode_failed", err, zap.String("date", previous.String()))
		return Day{}, newServiceError(opCopyPrevious, "decode_failed", err)
	}

	return s.saveDay(ctx, opCopyPrevious, date, records, author)
}

// SubmitAcknowledgement appends one stamp with a server-assigned timestamp.
// Name validation happens in NewStamperName before any store contact.
func (s *Service) SubmitAcknowledgement(ctx context.Context, date DateKey, name StamperName) (Acknowledgement, error) {
	if s.db == nil {
		s.logError(opSubmitStamp, "missing_database", errMissingDatabase)
		return Acknowledgement{}, newServiceError(opSubmitStamp, "missing_database", errMissingDatabase)
	}
	if s.idProvider == nil {
		s.logError(opSubmitStamp, "missing_id_provider", errMissingIDProvider)
		return Acknowledgement{}, newServiceError(opSubmitStamp, "missing_id_provider", errMissingIDProvider)
	}

	stampID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opSubmitStamp, "id_generation_failed", err, zap.String("date", date.String()))
		return Acknowledgement{}, newServiceError(opSubmitStamp, "id_generation_failed", err)
	}

	stamp := Acknowledgement{
		StampID:          stampID,
		DateKey:          date.String(),
		Name:             name.String(),
		StampedAtSeconds: s.clock().UTC().Unix(),
	}
	if err := s.db.WithContext(ctx).Create(&stamp).Error; err != nil {
		s.logError(opSubmitStamp, "insert_failed", err, zap.String("date", date.String()))
		return Acknowledgement{}, newServiceError(opSubmitStamp, "insert_failed", err)
	}
	return stamp, nil
}

// ListAcknowledgements returns the date's stamps in append order. The stamp
// id tiebreak keeps same-second stamps stable; UUIDv7 ids sort by creation.
func (s *Service) ListAcknowledgements(ctx context.Context, date DateKey) ([]Acknowledgement, error) {
	if s.db == nil {
		s.logError(opListStamps, "missing_database", errMissingDatabase)
		return nil, newServiceError(opListStamps, "missing_database", errMissingDatabase)
	}

	var stamps []Acknowledgement
	if err := s.db.WithContext(ctx).
		Where("date_key = ?", date.String()).
		Order("stamped_at_s ASC, stamp_id ASC").
		Find(&stamps).Error; err != nil {
		s.logError(opListStamps, "query_failed", err, zap.String("date", date.String()))
		return nil, newServiceError(opListStamps, "query_failed", err)
	}
	return stamps, nil
}

// HasStamped reports whether the name appears anywhere in the date's stamp
// list. Best-effort only: names are self-reported, not identity-bound.
func (s *Service) HasStamped(ctx context.Context, date DateKey, name StamperName) (bool, error) {
	stamps, err := s.ListAcknowledgements(ctx, date)
	if err != nil {
		return false, err
	}
	for _, stamp := range stamps {
		if stamp.Name == name.String() {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) saveDay(ctx context.Context, operation string, date DateKey, records []ContentRecord, author string) (Day, error) {
	encoded, err := json.Marshal(records)
	if err != nil {
		s.logError(operation, "encode_failed", err, zap.String("date", date.String()))
		return Day{}, newServiceError(opPersistedSave, "encode_failed", err)
	}

	now := s.clock().UTC()
	note := DailyNote{
		DateKey:          date.String(),
		RecordsJSON:      string(encoded),
		UpdatedBy:        author,
		UpdatedAtSeconds: now.Unix(),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date_key"}},
			UpdateAll: true,
		}).
		Create(&note).Error
	if err != nil {
		s.logError(operation, "save_failed", err, zap.String("date", date.String()))
		return Day{}, newServiceError(opPersistedSave, "save_failed", err)
	}

	return Day{
		Date:      date,
		Records:   records,
		UpdatedBy: author,
		UpdatedAt: now,
		Stored:    true,
	}, nil
}

func recordIndex(records []ContentRecord, recordID int) int {
	for index, record := range records {
		if record.ID == recordID {
			return index
		}
	}
	return -1
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("notebook service error", attrs...)
}
