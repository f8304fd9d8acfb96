package models

import (
	"time"

	"leasing-backend/internal/pricing"
)

// Barème columns shared by the standard schedule, conventions and campaigns.
type ScheduleColumns struct {
	Rate          float64 `gorm:"not null"`
	Margin        float64 `gorm:"not null"`
	ResidualValue float64 `gorm:"not null"`
}

func (s ScheduleColumns) ToDomain() pricing.RateSchedule {
	return pricing.RateSchedule{Rate: s.Rate, Margin: s.Margin, ResidualValue: s.ResidualValue}
}

func ScheduleColumnsFrom(s pricing.RateSchedule) ScheduleColumns {
	return ScheduleColumns{Rate: s.Rate, Margin: s.Margin, ResidualValue: s.ResidualValue}
}

// StandardSchedule: single row (ID 1) holding the standard barème
type StandardSchedule struct {
	ID uint `gorm:"primaryKey"`
	ScheduleColumns
	UpdatedAt time.Time
}

const StandardScheduleRowID = 1
