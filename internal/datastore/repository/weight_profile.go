package repository

import (
	"context"
	"time"

	"github.com/contractiq/coherence/internal/datastore/entities"
	"github.com/contractiq/coherence/internal/errors"
)

var (
	// ErrProfileVersionNotFound is returned when a profile has no stored snapshot.
	ErrProfileVersionNotFound = errors.NewStd("weight profile version not found")
)

// WeightProfileRepository persists weight profile snapshots and gaming audit
// records.
type WeightProfileRepository interface {
	// Profile snapshots
	SaveVersion(ctx context.Context, version *entities.WeightProfileVersion) error
	ListVersions(ctx context.Context, profileName string) ([]entities.WeightProfileVersion, error)
	GetLatest(ctx context.Context, profileName string) (*entities.WeightProfileVersion, error)
	ListAll(ctx context.Context) ([]entities.WeightProfileVersion, error)
	DeleteProfile(ctx context.Context, profileName string) (int64, error)

	// Gaming audit
	SaveAudit(ctx context.Context, audit *entities.GamingAudit) error
	ListAudit(ctx context.Context, filter GamingAuditFilter) ([]entities.GamingAudit, int64, error)
	DeleteAuditBefore(ctx context.Context, before time.Time) (int64, error)
}

// GamingAuditFilter controls audit listing queries.
type GamingAuditFilter struct {
	ProjectID string
	TenantID  string
	Limit     int
	Offset    int
}
