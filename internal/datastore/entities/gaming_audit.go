package entities

import "time"

// GamingAudit records each positive anti-gaming verdict for a project.
type GamingAudit struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProjectID     string    `gorm:"size:64;not null;index:idx_gaming_audit_project_detected,priority:1" json:"project_id"`
	TenantID      string    `gorm:"size:64;default:'';index" json:"tenant_id"`
	Reason        string    `gorm:"size:50;not null" json:"reason"`
	Violations    []string  `gorm:"type:text;serializer:json" json:"violations"`
	AuditLogs     []string  `gorm:"type:text;serializer:json" json:"audit_logs"`
	PenaltyPoints int       `gorm:"not null;default:0" json:"penalty_points"`
	DetectedAt    time.Time `gorm:"not null;index:idx_gaming_audit_project_detected,priority:2" json:"detected_at"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for GORM.
func (GamingAudit) TableName() string {
	return "gaming_audit"
}
