package entities

import "time"

// WeightProfileVersion is one immutable snapshot of a weight profile. Rows
// are only ever inserted; a profile's history is every row with its name,
// ordered by Version.
type WeightProfileVersion struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	ProfileName string             `gorm:"size:255;not null;uniqueIndex:idx_profile_version,priority:1" json:"profile_name"`
	Version     int                `gorm:"not null;uniqueIndex:idx_profile_version,priority:2" json:"version"`
	ProjectType string             `gorm:"size:100;default:'';index" json:"project_type"`
	Weights     map[string]float64 `gorm:"type:text;serializer:json;not null" json:"weights"`
	SnapshotAt  time.Time          `gorm:"not null" json:"snapshot_at"`
	CreatedAt   time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (WeightProfileVersion) TableName() string {
	return "weight_profile_versions"
}
