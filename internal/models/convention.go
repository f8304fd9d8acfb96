package models

import (
	"time"

	"leasing-backend/internal/pricing"
)

type Convention struct {
	ID          string   `gorm:"primaryKey;size:64"`
	Name        string   `gorm:"size:150;not null"`
	Description string   `gorm:"size:500"`
	Suppliers   []string `gorm:"serializer:json;type:text"`
	ScheduleColumns
	StartDate time.Time  `gorm:"index;not null"`
	EndDate   *time.Time `gorm:"index"` // nil = open-ended
	Active    bool       `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Convention) ToDomain() pricing.Convention {
	suppliers := c.Suppliers
	if suppliers == nil {
		suppliers = []string{}
	}
	return pricing.Convention{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Suppliers:   suppliers,
		Schedule:    c.ScheduleColumns.ToDomain(),
		StartDate:   c.StartDate,
		EndDate:     c.EndDate,
		Active:      c.Active,
	}
}

func ConventionFrom(c pricing.Convention) Convention {
	return Convention{
		ID:              c.ID,
		Name:            c.Name,
		Description:     c.Description,
		Suppliers:       c.Suppliers,
		ScheduleColumns: ScheduleColumnsFrom(c.Schedule),
		StartDate:       c.StartDate,
		EndDate:         c.EndDate,
		Active:          c.Active,
	}
}
