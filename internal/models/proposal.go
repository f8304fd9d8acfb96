package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProposalStatus string

const (
	ProposalStatusDraft     ProposalStatus = "draft"
	ProposalStatusSubmitted ProposalStatus = "submitted"
)

// ProposalRecord stores a proposal payload as JSON next to the columns used
// for listing and filtering.
type ProposalRecord struct {
	ID             string          `gorm:"primaryKey;size:64"`
	Status         ProposalStatus  `gorm:"size:20;index;not null"`
	ClientName     string          `gorm:"size:200;index"`
	ProposalType   string          `gorm:"size:20;index"`
	SourceID       string          `gorm:"size:64"`
	FinancedAmount decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	Payload        string          `gorm:"type:text;not null"`
	SubmittedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
