package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stagehand-io/stagehand/pkg/models"
)

// CreateBusinessRequest carries the fields accepted at business creation.
type CreateBusinessRequest struct {
	OwnerID             string
	BusinessName        string
	BusinessDescription string
	Address             string
	PhoneNumber         string
	Website             string
}

// CreateBusiness creates a tenant and returns it together with its freshly
// generated internal API key. The key is returned exactly once; afterwards
// it is only ever compared against.
func (s *Store) CreateBusiness(ctx context.Context, req CreateBusinessRequest) (*models.Business, string, error) {
	if req.BusinessName == "" {
		return nil, "", NewValidationError("business_name", "required")
	}
	if req.OwnerID == "" {
		return nil, "", NewValidationError("owner_id", "required")
	}

	key, err := generateAPIKey()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate api key: %w", err)
	}

	biz := &models.Business{
		ID:                  uuid.New().String(),
		Name:                req.BusinessName,
		OwnerID:             req.OwnerID,
		InternalAPIKey:      key,
		BusinessDescription: req.BusinessDescription,
		Address:             req.Address,
		PhoneNumber:         req.PhoneNumber,
		Website:             req.Website,
		CreatedAt:           time.Now().UTC(),
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.db.WithContext(opCtx).Create(biz).Error; err != nil {
		return nil, "", translate(err)
	}
	return biz, key, nil
}

// GetBusiness fetches a business by ID.
func (s *Store) GetBusiness(ctx context.Context, businessID string) (*models.Business, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var biz models.Business
	if err := s.db.WithContext(opCtx).First(&biz, "business_id = ?", businessID).Error; err != nil {
		return nil, translate(err)
	}
	return &biz, nil
}

// LookupBusinessByKey resolves a per-business API key to its tenant.
func (s *Store) LookupBusinessByKey(ctx context.Context, key string) (*models.Business, error) {
	if key == "" {
		return nil, ErrNotFound
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var biz models.Business
	if err := s.db.WithContext(opCtx).First(&biz, "internal_api_key = ?", key).Error; err != nil {
		return nil, translate(err)
	}
	return &biz, nil
}

// BindPlatformAccount maps a platform-side account ID to a business. The
// (platform, account) pair is unique; rebinding an account needs an unbind
// first.
func (s *Store) BindPlatformAccount(ctx context.Context, businessID, platform, platformAccountID string) (*models.PlatformBinding, error) {
	if !models.ValidPlatform(platform) {
		return nil, NewValidationError("platform", "invalid")
	}
	if platformAccountID == "" {
		return nil, NewValidationError("platform_account_id", "required")
	}
	if _, err := s.GetBusiness(ctx, businessID); err != nil {
		return nil, err
	}

	binding := &models.PlatformBinding{
		ID:                uuid.New().String(),
		BusinessID:        businessID,
		Platform:          platform,
		PlatformAccountID: platformAccountID,
		CreatedAt:         time.Now().UTC(),
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.db.WithContext(opCtx).Create(binding).Error; err != nil {
		return nil, translate(err)
	}
	return binding, nil
}

// LookupBusinessByPlatformAccount resolves a webhook recipient (page ID,
// phone number ID) to the owning business.
func (s *Store) LookupBusinessByPlatformAccount(ctx context.Context, platform, platformAccountID string) (*models.Business, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var binding models.PlatformBinding
	if err := s.db.WithContext(opCtx).
		First(&binding, "platform = ? AND platform_account_id = ?", platform, platformAccountID).Error; err != nil {
		return nil, translate(err)
	}
	return s.GetBusiness(ctx, binding.BusinessID)
}

// generateAPIKey produces an opaque 32-byte token from a cryptographically
// secure RNG, hex-encoded.
func generateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
