package repository

import "time"

// Persistence records for the timeline aggregate. The workbench mutates the
// in-memory model only; a save writes the whole aggregate back in one
// transaction and the server copy is the source of truth afterward.

// TimelineRecord is the root row, one per project.
type TimelineRecord struct {
	ID                int64  `gorm:"primaryKey"`
	ProjectID         string `gorm:"uniqueIndex;size:64"`
	TotalDuration     float64
	MasterAudioURL    string `gorm:"size:1024"`
	MasterMixAudioURL string `gorm:"size:1024"`
	Confirmed         bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SegmentRecord is one ordered segment of a timeline.
type SegmentRecord struct {
	ID         int64  `gorm:"primaryKey"`
	TimelineID int64  `gorm:"index"`
	SegmentID  string `gorm:"size:64;index"`
	Name       string `gorm:"size:255"`
	Position   int
}

// ShotRecord is one ordered shot within a segment.
type ShotRecord struct {
	ID                  int64  `gorm:"primaryKey"`
	TimelineID          int64  `gorm:"index"`
	SegmentID           string `gorm:"size:64;index"`
	ShotID              string `gorm:"size:64;index"`
	Name                string `gorm:"size:255"`
	Position            int
	Duration            float64
	TimecodeStart       float64
	TimecodeEnd         float64
	NarrationAudioURL   string `gorm:"size:1024"`
	NarrationDurationMs int64
	DialogueAudioURL    string `gorm:"size:1024"`
	DialogueDurationMs  int64
	VoiceAudioURL       string `gorm:"size:1024"`
	VoiceDurationMs     int64
	ThumbnailURL        string `gorm:"size:1024"`
}

// ShotMediaRecord is the downstream-media side table refreshed by the
// overlay poller.
type ShotMediaRecord struct {
	ID           int64  `gorm:"primaryKey"`
	ProjectID    string `gorm:"size:64;index"`
	ShotID       string `gorm:"size:64;index"`
	ThumbnailURL string `gorm:"size:1024"`
	VideoURL     string `gorm:"size:1024"`
	Status       string `gorm:"size:32"`
	UpdatedAt    time.Time
}

// UserRecord is a workbench account row.
type UserRecord struct {
	ID           int64  `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:64"`
	PasswordHash string `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserRecord) TableName() string { return "users" }
