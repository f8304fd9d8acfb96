package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leasing-backend/internal/models"
	"leasing-backend/internal/pricing"
	"leasing-backend/internal/repository"

	"gorm.io/gorm"
)

const (
	EntityStandardSchedule = "standard_schedule"
	EntityConvention       = "convention"
	EntityCampaign         = "campaign"
)

var (
	ErrAlreadyUndone = errors.New("this change has already been undone")
	ErrNotUndoable   = errors.New("this change cannot be undone")
)

type LogOptions struct {
	Actor       string
	EntityType  string
	EntityID    string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

type Filter struct {
	EntityType string
	EntityID   string
	Actor      string
}

// Service records barème administration changes and reverts them on demand.
type Service struct {
	db    *gorm.DB
	rates repository.RateAdmin
}

func NewService(db *gorm.DB, rates repository.RateAdmin) *Service {
	return &Service{db: db, rates: rates}
}

func toJSON(v any) string {
	// "null" keeps the column valid JSON when there is no state
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func (s *Service) Write(ctx context.Context, opts LogOptions) error {
	entry := models.AuditLog{
		Actor:       opts.Actor,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  toJSON(opts.Before),
		AfterData:   toJSON(opts.After),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	q := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.Actor != "" {
		q = q.Where("actor = ?", f.Actor)
	}
	var logs []models.AuditLog
	if err := q.Order("created_at DESC").Order("id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// Undo reverts the change recorded by logID and records the undo itself.
func (s *Service) Undo(ctx context.Context, logID uint, actor string) error {
	var entry models.AuditLog
	if err := s.db.WithContext(ctx).First(&entry, "id = ?", logID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrNotFound
		}
		return err
	}
	if entry.IsUndone {
		return ErrAlreadyUndone
	}

	var err error
	switch entry.Action {
	case models.AuditActionCreate:
		err = s.deleteEntity(ctx, entry.EntityType, entry.EntityID)
		if errors.Is(err, repository.ErrNotFound) {
			err = nil
		}
	case models.AuditActionUpdate, models.AuditActionDelete:
		err = s.restoreEntity(ctx, entry.EntityType, entry.BeforeData)
	default:
		return ErrNotUndoable
	}
	if err != nil {
		return fmt.Errorf("undo %s %s: %w", entry.EntityType, entry.EntityID, err)
	}

	now := time.Now()
	entry.IsUndone = true
	entry.UndoneBy = actor
	entry.UndoneAt = &now

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&entry).Error; err != nil {
			return fmt.Errorf("mark audit log undone: %w", err)
		}
		undo := models.AuditLog{
			Actor:       actor,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			Action:      models.AuditActionUndo,
			Description: fmt.Sprintf("Undone: %s", entry.Description),
			BeforeData:  entry.AfterData,
			AfterData:   entry.BeforeData,
			Undone:      true,
		}
		if err := tx.Create(&undo).Error; err != nil {
			return fmt.Errorf("write undo log: %w", err)
		}
		return nil
	})
}

func (s *Service) deleteEntity(ctx context.Context, entityType, id string) error {
	switch entityType {
	case EntityConvention:
		return s.rates.DeleteConvention(ctx, id)
	case EntityCampaign:
		return s.rates.DeleteCampaign(ctx, id)
	default:
		return fmt.Errorf("%w: %s", ErrNotUndoable, entityType)
	}
}

func (s *Service) restoreEntity(ctx context.Context, entityType, data string) error {
	if data == "" || data == "null" {
		return ErrNotUndoable
	}
	switch entityType {
	case EntityStandardSchedule:
		var sch pricing.RateSchedule
		if err := json.Unmarshal([]byte(data), &sch); err != nil {
			return err
		}
		return s.rates.SetStandardSchedule(ctx, sch)
	case EntityConvention:
		var c pricing.Convention
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return err
		}
		return s.rates.SaveConvention(ctx, c)
	case EntityCampaign:
		var c pricing.Campaign
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return err
		}
		return s.rates.SaveCampaign(ctx, c)
	default:
		return fmt.Errorf("%w: %s", ErrNotUndoable, entityType)
	}
}
