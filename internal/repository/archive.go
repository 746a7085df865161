package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pulsepath-go/internal/metrics"
	"pulsepath-go/internal/models"
)

// DBStore archives sessions in a relational database.
type DBStore struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewDBStore(db *gorm.DB, log *zap.Logger) *DBStore {
	return &DBStore{db: db, log: log}
}

// Save implements SessionSaver.
func (s *DBStore) Save(ctx context.Context, rec *models.SessionRecord) error {
	return s.SaveSessionTx(ctx, rec)
}

// SaveSessionTx saves the summary, the ratings and every response sample of a
// session in a single transaction.
func (s *DBStore) SaveSessionTx(ctx context.Context, rec *models.SessionRecord) error {
	raw, err := json.Marshal(metrics.BuildSessionFile(rec))
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	summary := metrics.Summarize(rec)
	p := rec.Profile

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Insert summary and get its ID
		result := models.SessionResult{
			SessionID:           rec.SessionID,
			ParticipantID:       p.ID,
			Age:                 p.Age,
			Gender:              string(p.Gender),
			Condition:           string(p.Condition),
			HeartRateBefore:     p.HeartRateBefore,
			HeartRateAfter:      p.HeartRateAfter,
			AverageResponseTime: summary.AverageResponseTime,
			ResponseTimeSD:      summary.ResponseTimeSD,
			HitRate:             summary.HitRate,
			MissedBonus:         rec.MissedBonus,
			CommandErrors:       rec.CommandErrors,
			TotalBips:           summary.TotalBips,
			MissedBips:          rec.MissedBips,
			RawData:             raw,
			StartedAt:           rec.StartedAt,
		}
		if err := tx.Create(&result).Error; err != nil {
			return fmt.Errorf("failed to insert session result: %w", err)
		}

		// 2. Insert ratings and samples referencing the summary ID
		if len(rec.Evaluations) > 0 {
			ratings := make([]models.LevelRating, 0, len(rec.Evaluations))
			for _, ev := range rec.Evaluations {
				ratings = append(ratings, models.LevelRating{
					ResultID:        result.ID,
					Level:           ev.Level,
					Performance:     ev.Performance,
					Stress:          ev.Stress,
					Certitude:       ev.Certitude,
					AvgResponseTime: ev.AvgResponseTime,
				})
			}
			if err := tx.Create(&ratings).Error; err != nil {
				return fmt.Errorf("failed to insert level ratings: %w", err)
			}
		}

		if len(rec.Responses) > 0 {
			events := make([]models.ResponseEvent, 0, len(rec.Responses))
			for _, r := range rec.Responses {
				events = append(events, models.ResponseEvent{
					ResultID: result.ID,
					Level:    r.Level,
					Source:   string(r.Source),
					Seconds:  r.Seconds,
				})
			}
			if err := tx.CreateInBatches(&events, 200).Error; err != nil {
				return fmt.Errorf("failed to insert response events: %w", err)
			}
		}

		s.log.Info("Session archived", zap.String("session_id", rec.SessionID), zap.Int("result_id", result.ID))
		return nil
	})
}

// Exists reports whether a session id is already archived.
func (s *DBStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.SessionResult{}).Where("session_id = ?", sessionID).Count(&n).Error
	return n > 0, err
}

// Count returns the number of archived sessions.
func (s *DBStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.SessionResult{}).Count(&n).Error
	return n, err
}

// Ratings returns the stored evaluations of one session in level order.
func (s *DBStore) Ratings(ctx context.Context, sessionID string) ([]models.LevelRating, error) {
	var out []models.LevelRating
	err := s.db.WithContext(ctx).
		Joins("JOIN session_results ON session_results.id = level_ratings.result_id").
		Where("session_results.session_id = ?", sessionID).
		Order("level_ratings.level").
		Find(&out).Error
	return out, err
}
