package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/contractiq/coherence/internal/datastore/entities"
	"github.com/contractiq/coherence/internal/errors"
)

// weightProfileRepository implements WeightProfileRepository.
type weightProfileRepository struct {
	db *gorm.DB
}

// NewWeightProfileRepository creates a new WeightProfileRepository.
func NewWeightProfileRepository(db *gorm.DB) WeightProfileRepository {
	return &weightProfileRepository{db: db}
}

// SaveVersion inserts a snapshot. Saving the same profile version twice fails
// on the unique index.
func (r *weightProfileRepository) SaveVersion(ctx context.Context, version *entities.WeightProfileVersion) error {
	if version.ProfileName == "" || version.Version < 1 {
		return fmt.Errorf("failed to save weight profile version: missing profile name or version")
	}
	if err := r.db.WithContext(ctx).Create(version).Error; err != nil {
		return fmt.Errorf("failed to save weight profile %q version %d: %w", version.ProfileName, version.Version, err)
	}
	return nil
}

// ListVersions returns every snapshot of a profile, oldest first.
func (r *weightProfileRepository) ListVersions(ctx context.Context, profileName string) ([]entities.WeightProfileVersion, error) {
	var versions []entities.WeightProfileVersion
	err := r.db.WithContext(ctx).
		Where("profile_name = ?", profileName).
		Order("version ASC").
		Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list versions of weight profile %q: %w", profileName, err)
	}
	return versions, nil
}

// GetLatest returns the highest version of a profile.
// Returns ErrProfileVersionNotFound if the profile has no snapshots.
func (r *weightProfileRepository) GetLatest(ctx context.Context, profileName string) (*entities.WeightProfileVersion, error) {
	var version entities.WeightProfileVersion
	err := r.db.WithContext(ctx).
		Where("profile_name = ?", profileName).
		Order("version DESC").
		First(&version).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileVersionNotFound
		}
		return nil, fmt.Errorf("failed to get latest weight profile %q: %w", profileName, err)
	}
	return &version, nil
}

// ListAll returns every snapshot grouped by profile name, each group oldest
// first.
func (r *weightProfileRepository) ListAll(ctx context.Context) ([]entities.WeightProfileVersion, error) {
	var versions []entities.WeightProfileVersion
	if err := r.db.WithContext(ctx).Order("profile_name ASC, version ASC").Find(&versions).Error; err != nil {
		return nil, fmt.Errorf("failed to list weight profile versions: %w", err)
	}
	return versions, nil
}

// DeleteProfile removes every snapshot of a profile.
func (r *weightProfileRepository) DeleteProfile(ctx context.Context, profileName string) (int64, error) {
	result := r.db.WithContext(ctx).Where("profile_name = ?", profileName).Delete(&entities.WeightProfileVersion{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete weight profile %q: %w", profileName, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrProfileVersionNotFound
	}
	return result.RowsAffected, nil
}

// SaveAudit saves a gaming audit record.
func (r *weightProfileRepository) SaveAudit(ctx context.Context, audit *entities.GamingAudit) error {
	if err := r.db.WithContext(ctx).Create(audit).Error; err != nil {
		return fmt.Errorf("failed to save gaming audit: %w", err)
	}
	return nil
}

// ListAudit returns audit records matching the filter, newest first, with
// the total count before pagination.
func (r *weightProfileRepository) ListAudit(ctx context.Context, filter GamingAuditFilter) ([]entities.GamingAudit, int64, error) {
	var items []entities.GamingAudit
	var total int64

	scope := func(q *gorm.DB) *gorm.DB {
		if filter.ProjectID != "" {
			q = q.Where("project_id = ?", filter.ProjectID)
		}
		if filter.TenantID != "" {
			q = q.Where("tenant_id = ?", filter.TenantID)
		}
		return q
	}

	if err := r.db.WithContext(ctx).Model(&entities.GamingAudit{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count gaming audit: %w", err)
	}

	query := r.db.WithContext(ctx).Scopes(scope).Order("detected_at DESC, id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list gaming audit: %w", err)
	}
	return items, total, nil
}

// DeleteAuditBefore deletes audit records detected before the given time.
func (r *weightProfileRepository) DeleteAuditBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("detected_at < ?", before).Delete(&entities.GamingAudit{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete gaming audit before %v: %w", before, result.Error)
	}
	return result.RowsAffected, nil
}
