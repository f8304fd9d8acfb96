package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leasing-backend/internal/catalog"
	"leasing-backend/internal/models"
	"leasing-backend/internal/pricing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists everything in the relational database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ----------------------------------------
// Barème
// ----------------------------------------

func (s *GormStore) StandardSchedule(ctx context.Context) (pricing.RateSchedule, error) {
	var row models.StandardSchedule
	err := s.db.WithContext(ctx).First(&row, models.StandardScheduleRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pricing.DefaultStandardSchedule, nil
	}
	if err != nil {
		return pricing.RateSchedule{}, fmt.Errorf("read standard schedule: %w", err)
	}
	return row.ToDomain(), nil
}

func (s *GormStore) SetStandardSchedule(ctx context.Context, sch pricing.RateSchedule) error {
	row := models.StandardSchedule{
		ID:              models.StandardScheduleRowID,
		ScheduleColumns: models.ScheduleColumnsFrom(sch),
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

// ----------------------------------------
// Conventions
// ----------------------------------------

func (s *GormStore) GetConvention(ctx context.Context, id string) (pricing.Convention, error) {
	var m models.Convention
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return pricing.Convention{}, notFound(err)
	}
	return m.ToDomain(), nil
}

func (s *GormStore) ListConventions(ctx context.Context, activeOnly bool) ([]pricing.Convention, error) {
	q := s.db.WithContext(ctx).Model(&models.Convention{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var rows []models.Convention
	if err := q.Order("start_date DESC").Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]pricing.Convention, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToDomain())
	}
	return out, nil
}

// SaveConvention inserts the convention or overwrites it by id.
func (s *GormStore) SaveConvention(ctx context.Context, c pricing.Convention) error {
	m := models.ConventionFrom(c)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error
}

func (s *GormStore) DeleteConvention(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Convention{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ----------------------------------------
// Campaigns
// ----------------------------------------

func (s *GormStore) GetCampaign(ctx context.Context, id string) (pricing.Campaign, error) {
	var m models.Campaign
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return pricing.Campaign{}, notFound(err)
	}
	return m.ToDomain(), nil
}

func (s *GormStore) ListCampaigns(ctx context.Context, activeOnly bool) ([]pricing.Campaign, error) {
	q := s.db.WithContext(ctx).Model(&models.Campaign{})
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var rows []models.Campaign
	if err := q.Order("start_date DESC").Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]pricing.Campaign, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToDomain())
	}
	return out, nil
}

func (s *GormStore) SaveCampaign(ctx context.Context, c pricing.Campaign) error {
	m := models.CampaignFrom(c)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error
}

func (s *GormStore) DeleteCampaign(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Campaign{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ExpireBefore(ctx context.Context, now time.Time) (Expired, error) {
	var out Expired
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Convention{}).
			Where("active = ? AND end_date IS NOT NULL AND end_date < ?", true, now).
			Update("active", false)
		if res.Error != nil {
			return res.Error
		}
		out.Conventions = res.RowsAffected

		res = tx.Model(&models.Campaign{}).
			Where("active = ? AND end_date < ?", true, now).
			Update("active", false)
		if res.Error != nil {
			return res.Error
		}
		out.Campaigns = res.RowsAffected
		return nil
	})
	return out, err
}

// ----------------------------------------
// Catalog
// ----------------------------------------

func (s *GormStore) Suppliers(ctx context.Context) ([]string, error) {
	var out []string
	err := s.db.WithContext(ctx).Model(&models.CatalogItem{}).
		Distinct("supplier").Order("supplier ASC").Pluck("supplier", &out).Error
	if out == nil {
		out = []string{}
	}
	return out, err
}

func (s *GormStore) Items(ctx context.Context, supplier string) ([]catalog.Item, error) {
	var rows []models.CatalogItem
	err := s.db.WithContext(ctx).Where("supplier = ?", supplier).
		Order("category ASC").Order("reference ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCatalogItems(rows), nil
}

func (s *GormStore) AllItems(ctx context.Context) ([]catalog.Item, error) {
	var rows []models.CatalogItem
	err := s.db.WithContext(ctx).
		Order("supplier ASC").Order("category ASC").Order("reference ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCatalogItems(rows), nil
}

func toCatalogItems(rows []models.CatalogItem) []catalog.Item {
	out := make([]catalog.Item, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToDomain())
	}
	return out
}

func (s *GormStore) UpsertItems(ctx context.Context, items []catalog.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	rows := make([]models.CatalogItem, 0, len(items))
	for _, it := range items {
		rows = append(rows, models.CatalogItem{
			Supplier:         it.Supplier,
			Reference:        it.Reference,
			Description:      it.Description,
			Category:         it.Category,
			UnitPriceExclTax: it.UnitPriceExclTax,
		})
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "supplier"}, {Name: "reference"}},
		DoUpdates: clause.AssignmentColumns([]string{"description", "category", "unit_price_excl_tax", "updated_at"}),
	}).CreateInBatches(&rows, 100).Error
	if err != nil {
		return 0, fmt.Errorf("upsert catalog items: %w", err)
	}
	return len(rows), nil
}

// ----------------------------------------
// Proposals
// ----------------------------------------

func (s *GormStore) SaveProposal(ctx context.Context, rec *models.ProposalRecord) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(rec).Error
}

func (s *GormStore) GetProposal(ctx context.Context, id string) (models.ProposalRecord, error) {
	var rec models.ProposalRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return models.ProposalRecord{}, notFound(err)
	}
	return rec, nil
}

func (s *GormStore) ListProposals(ctx context.Context, f ProposalFilter) ([]models.ProposalRecord, error) {
	q := s.db.WithContext(ctx).Model(&models.ProposalRecord{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Client != "" {
		q = q.Where("LOWER(client_name) LIKE ?", "%"+strings.ToLower(f.Client)+"%")
	}
	var rows []models.ProposalRecord
	if err := q.Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) CountByStatus(ctx context.Context) (map[models.ProposalStatus]int64, error) {
	var rows []struct {
		Status models.ProposalStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&models.ProposalRecord{}).
		Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.ProposalStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}
