package repository

import (
	"context"
	"errors"
	"time"

	"leasing-backend/internal/catalog"
	"leasing-backend/internal/models"
	"leasing-backend/internal/pricing"
)

var ErrNotFound = errors.New("record not found")

// RateStore is the read side used when pricing a proposal.
type RateStore interface {
	StandardSchedule(ctx context.Context) (pricing.RateSchedule, error)
	GetConvention(ctx context.Context, id string) (pricing.Convention, error)
	GetCampaign(ctx context.Context, id string) (pricing.Campaign, error)
	ListConventions(ctx context.Context, activeOnly bool) ([]pricing.Convention, error)
	ListCampaigns(ctx context.Context, activeOnly bool) ([]pricing.Campaign, error)
}

// RateAdmin adds the barème administration writes.
type RateAdmin interface {
	RateStore
	SetStandardSchedule(ctx context.Context, s pricing.RateSchedule) error
	SaveConvention(ctx context.Context, c pricing.Convention) error
	DeleteConvention(ctx context.Context, id string) error
	SaveCampaign(ctx context.Context, c pricing.Campaign) error
	DeleteCampaign(ctx context.Context, id string) error
	// ExpireBefore deactivates records whose end date is before now.
	ExpireBefore(ctx context.Context, now time.Time) (Expired, error)
}

type Expired struct {
	Conventions int64 `json:"conventions"`
	Campaigns   int64 `json:"campaigns"`
}

type CatalogStore interface {
	catalog.Provider
	AllItems(ctx context.Context) ([]catalog.Item, error)
	// UpsertItems inserts or replaces items keyed by supplier and reference.
	UpsertItems(ctx context.Context, items []catalog.Item) (int, error)
}

type ProposalFilter struct {
	Status models.ProposalStatus
	Client string
}

type ProposalStore interface {
	SaveProposal(ctx context.Context, rec *models.ProposalRecord) error
	GetProposal(ctx context.Context, id string) (models.ProposalRecord, error)
	ListProposals(ctx context.Context, f ProposalFilter) ([]models.ProposalRecord, error)
	CountByStatus(ctx context.Context) (map[models.ProposalStatus]int64, error)
}

// Store bundles every persistence concern of the service.
type Store interface {
	RateAdmin
	CatalogStore
	ProposalStore
}
