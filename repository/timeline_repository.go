package repository

import (
	"errors"
	"fmt"
	"time"

	"CutRoom/db"
	"CutRoom/logger"
	"CutRoom/model"

	"gorm.io/gorm"
)

// ErrTimelineNotFound is returned when a project has no stored timeline.
var ErrTimelineNotFound = errors.New("timeline not found")

// TimelineRepository loads and stores the audio-cut aggregate.
type TimelineRepository interface {
	FetchTimeline(projectID string) (*model.AudioTimeline, error)
	SaveTimeline(t *model.AudioTimeline, resetVideos bool) error
	FetchOverlay(projectID string) (model.MediaOverlay, error)
}

type gormTimelineRepository struct {
	db *gorm.DB
}

// NewTimelineRepository creates a repository over the shared GORM handle.
func NewTimelineRepository() TimelineRepository {
	return &gormTimelineRepository{db: db.DB}
}

// FetchTimeline assembles the full aggregate for one project.
func (r *gormTimelineRepository) FetchTimeline(projectID string) (*model.AudioTimeline, error) {
	var root TimelineRecord
	if err := r.db.Where("project_id = ?", projectID).First(&root).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimelineNotFound
		}
		return nil, fmt.Errorf("fetch timeline for %s: %w", projectID, err)
	}

	var segRecords []SegmentRecord
	if err := r.db.Where("timeline_id = ?", root.ID).Order("position asc").Find(&segRecords).Error; err != nil {
		return nil, fmt.Errorf("fetch segments: %w", err)
	}
	var shotRecords []ShotRecord
	if err := r.db.Where("timeline_id = ?", root.ID).Order("position asc").Find(&shotRecords).Error; err != nil {
		return nil, fmt.Errorf("fetch shots: %w", err)
	}

	shotsBySegment := make(map[string][]model.Shot)
	for _, sr := range shotRecords {
		shotsBySegment[sr.SegmentID] = append(shotsBySegment[sr.SegmentID], model.Shot{
			ShotID:              sr.ShotID,
			Name:                sr.Name,
			Duration:            sr.Duration,
			TimecodeStart:       sr.TimecodeStart,
			TimecodeEnd:         sr.TimecodeEnd,
			NarrationAudioURL:   sr.NarrationAudioURL,
			NarrationDurationMs: sr.NarrationDurationMs,
			DialogueAudioURL:    sr.DialogueAudioURL,
			DialogueDurationMs:  sr.DialogueDurationMs,
			VoiceAudioURL:       sr.VoiceAudioURL,
			VoiceDurationMs:     sr.VoiceDurationMs,
			ThumbnailURL:        sr.ThumbnailURL,
		})
	}

	t := &model.AudioTimeline{
		ID:                root.ID,
		ProjectID:         root.ProjectID,
		TotalDuration:     root.TotalDuration,
		MasterAudioURL:    root.MasterAudioURL,
		MasterMixAudioURL: root.MasterMixAudioURL,
		Confirmed:         root.Confirmed,
		UpdatedAt:         root.UpdatedAt,
	}
	for _, sr := range segRecords {
		t.Segments = append(t.Segments, model.Segment{
			SegmentID: sr.SegmentID,
			Name:      sr.Name,
			Shots:     shotsBySegment[sr.SegmentID],
		})
	}
	return t, nil
}

// SaveTimeline writes the aggregate back in full, replacing the stored
// segments and shots in one transaction. resetVideos additionally drops the
// project's downstream media rows, invalidating rendered shot videos whose
// durations the save may have changed.
func (r *gormTimelineRepository) SaveTimeline(t *model.AudioTimeline, resetVideos bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		root := TimelineRecord{
			ProjectID:         t.ProjectID,
			TotalDuration:     t.TotalDuration,
			MasterAudioURL:    t.MasterAudioURL,
			MasterMixAudioURL: t.MasterMixAudioURL,
			Confirmed:         t.Confirmed,
			UpdatedAt:         time.Now(),
		}

		var existing TimelineRecord
		err := tx.Where("project_id = ?", t.ProjectID).First(&existing).Error
		switch {
		case err == nil:
			root.ID = existing.ID
			root.CreatedAt = existing.CreatedAt
			if err := tx.Save(&root).Error; err != nil {
				return fmt.Errorf("update timeline root: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&root).Error; err != nil {
				return fmt.Errorf("create timeline root: %w", err)
			}
		default:
			return fmt.Errorf("lookup timeline root: %w", err)
		}

		if err := tx.Where("timeline_id = ?", root.ID).Delete(&SegmentRecord{}).Error; err != nil {
			return fmt.Errorf("clear segments: %w", err)
		}
		if err := tx.Where("timeline_id = ?", root.ID).Delete(&ShotRecord{}).Error; err != nil {
			return fmt.Errorf("clear shots: %w", err)
		}

		shotPos := 0
		for si, seg := range t.Segments {
			if err := tx.Create(&SegmentRecord{
				TimelineID: root.ID,
				SegmentID:  seg.SegmentID,
				Name:       seg.Name,
				Position:   si,
			}).Error; err != nil {
				return fmt.Errorf("store segment %s: %w", seg.SegmentID, err)
			}
			for _, shot := range seg.Shots {
				if err := tx.Create(&ShotRecord{
					TimelineID:          root.ID,
					SegmentID:           seg.SegmentID,
					ShotID:              shot.ShotID,
					Name:                shot.Name,
					Position:            shotPos,
					Duration:            shot.Duration,
					TimecodeStart:       shot.TimecodeStart,
					TimecodeEnd:         shot.TimecodeEnd,
					NarrationAudioURL:   shot.NarrationAudioURL,
					NarrationDurationMs: shot.NarrationDurationMs,
					DialogueAudioURL:    shot.DialogueAudioURL,
					DialogueDurationMs:  shot.DialogueDurationMs,
					VoiceAudioURL:       shot.VoiceAudioURL,
					VoiceDurationMs:     shot.VoiceDurationMs,
					ThumbnailURL:        shot.ThumbnailURL,
				}).Error; err != nil {
					return fmt.Errorf("store shot %s: %w", shot.ShotID, err)
				}
				shotPos++
			}
		}

		if resetVideos {
			if err := tx.Where("project_id = ?", t.ProjectID).Delete(&ShotMediaRecord{}).Error; err != nil {
				return fmt.Errorf("reset downstream media: %w", err)
			}
		}

		t.ID = root.ID
		logger.Info("timeline saved",
			logger.String("projectId", t.ProjectID),
			logger.Int("shots", shotPos),
			logger.Float64("totalDuration", t.TotalDuration),
			logger.Bool("resetVideos", resetVideos))
		return nil
	})
}

// FetchOverlay reads the downstream-media side table for a project.
func (r *gormTimelineRepository) FetchOverlay(projectID string) (model.MediaOverlay, error) {
	var records []ShotMediaRecord
	if err := r.db.Where("project_id = ?", projectID).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("fetch overlay for %s: %w", projectID, err)
	}
	overlay := make(model.MediaOverlay, len(records))
	for _, rec := range records {
		status := model.MediaStatus(rec.Status)
		if status == "" {
			status = model.MediaNone
		}
		overlay[rec.ShotID] = model.ShotMedia{
			ShotID:       rec.ShotID,
			ThumbnailURL: rec.ThumbnailURL,
			VideoURL:     rec.VideoURL,
			Status:       status,
		}
	}
	return overlay, nil
}
