package models

import (
	"time"

	"leasing-backend/internal/pricing"
)

type Campaign struct {
	ID          string   `gorm:"primaryKey;size:64"`
	Name        string   `gorm:"size:150;not null"`
	Description string   `gorm:"size:500"`
	Kind        string   `gorm:"size:20;not null"` // supplier / bank
	Suppliers   []string `gorm:"serializer:json;type:text"`
	ScheduleColumns
	StartDate time.Time `gorm:"index;not null"`
	EndDate   time.Time `gorm:"index;not null"`
	Active    bool      `gorm:"index"`
	Priority  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Campaign) ToDomain() pricing.Campaign {
	out := pricing.Campaign{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Kind:        pricing.CampaignKind(c.Kind),
		Schedule:    c.ScheduleColumns.ToDomain(),
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Active:      c.Active,
		Priority:    c.Priority,
	}
	if out.Kind == pricing.CampaignKindSupplier {
		out.Suppliers = c.Suppliers
		if out.Suppliers == nil {
			out.Suppliers = []string{}
		}
	}
	return out
}

func CampaignFrom(c pricing.Campaign) Campaign {
	m := Campaign{
		ID:              c.ID,
		Name:            c.Name,
		Description:     c.Description,
		Kind:            string(c.Kind),
		ScheduleColumns: ScheduleColumnsFrom(c.Schedule),
		StartDate:       c.StartDate,
		EndDate:         c.EndDate,
		Active:          c.Active,
		Priority:        c.Priority,
	}
	if c.Kind == pricing.CampaignKindSupplier {
		m.Suppliers = c.Suppliers
	}
	return m
}
