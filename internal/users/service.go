package users

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aozorasoft/renraku/backend/internal/auth"
	"gorm.io/gorm"
)

// ErrInvalidIdentity indicates the claims did not contain a usable identifier.
var ErrInvalidIdentity = errors.New("users: invalid identity")

const identityProvider = "google"

// ServiceConfig describes the dependencies required for identity recording.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service persists the identities seen at sign-in.
type Service struct {
	db    *gorm.DB
	now   func() time.Time
	cache sync.Map
}

// NewService constructs the identity service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:    cfg.Database,
		now:   clock,
		cache: sync.Map{},
	}, nil
}

// RecordSignIn upserts the identity row for the verified claims and returns
// the principal email. Repeat sign-ins refresh the display name and
// last-seen timestamp.
func (s *Service) RecordSignIn(claims auth.GoogleClaims) (string, error) {
	subject := normalize(claims.Subject)
	email := normalize(claims.Email)
	if subject == "" || email == "" {
		return "", ErrInvalidIdentity
	}

	cacheKey := identityProvider + ":" + subject
	if _, seen := s.cache.Load(cacheKey); seen {
		updates := map[string]interface{}{"last_seen_at": s.now()}
		if display := normalize(claims.DisplayName); display != "" {
			updates["user_display_name"] = display
		}
		_ = s.db.Model(&Identity{}).
			Where("provider = ? AND subject = ?", identityProvider, subject).
			Updates(updates).
			Error
		return email, nil
	}

	var identity Identity
	err := s.db.
		Where("provider = ? AND subject = ?", identityProvider, subject).
		First(&identity).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		identity = Identity{
			Provider:    identityProvider,
			Subject:     subject,
			Email:       email,
			DisplayName: normalize(claims.DisplayName),
			LastSeenAt:  s.now(),
		}
		if err := s.db.Create(&identity).Error; err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	} else {
		updates := map[string]interface{}{"last_seen_at": s.now()}
		if email != identity.Email {
			updates["user_email"] = email
		}
		if display := normalize(claims.DisplayName); display != "" && display != identity.DisplayName {
			updates["user_display_name"] = display
		}
		_ = s.db.Model(&Identity{}).
			Where("provider = ? AND subject = ?", identityProvider, subject).
			Updates(updates).
			Error
	}

	s.cache.Store(cacheKey, email)
	return email, nil
}
