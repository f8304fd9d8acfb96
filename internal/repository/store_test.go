package repository

import (
	"context"
	"testing"
	"time"

	"leasing-backend/internal/catalog"
	"leasing-backend/internal/database/dbtest"
	"leasing-backend/internal/models"
	"leasing-backend/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"gorm":   NewGormStore(dbtest.Open(t)),
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStandardSchedule(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := s.StandardSchedule(ctx)
			require.NoError(t, err)
			assert.Equal(t, pricing.DefaultStandardSchedule, got)

			want := pricing.RateSchedule{Rate: 8, Margin: 2.5, ResidualValue: 1}
			require.NoError(t, s.SetStandardSchedule(ctx, want))
			require.NoError(t, s.SetStandardSchedule(ctx, want))

			got, err = s.StandardSchedule(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestConventions(t *testing.T) {
	ctx := context.Background()
	end := day(2026, time.December, 31)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			open := pricing.Convention{
				ID: "conv-a", Name: "A", Suppliers: []string{"sonacos"},
				Schedule:  pricing.RateSchedule{Rate: 6, Margin: 2.5, ResidualValue: 2},
				StartDate: day(2026, time.January, 1), Active: true,
			}
			closed := pricing.Convention{
				ID: "conv-b", Name: "B", Suppliers: []string{"babacar-fils", "senegal-auto"},
				StartDate: day(2025, time.January, 1), EndDate: &end, Active: false,
			}
			require.NoError(t, s.SaveConvention(ctx, open))
			require.NoError(t, s.SaveConvention(ctx, closed))

			got, err := s.GetConvention(ctx, "conv-b")
			require.NoError(t, err)
			assert.Equal(t, []string{"babacar-fils", "senegal-auto"}, got.Suppliers)
			require.NotNil(t, got.EndDate)
			assert.True(t, got.EndDate.Equal(end))

			all, err := s.ListConventions(ctx, false)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "conv-a", all[0].ID, "latest start first")

			active, err := s.ListConventions(ctx, true)
			require.NoError(t, err)
			require.Len(t, active, 1)
			assert.Equal(t, "conv-a", active[0].ID)
			assert.Nil(t, active[0].EndDate)

			open.Name = "A renamed"
			open.Active = false
			require.NoError(t, s.SaveConvention(ctx, open))
			got, err = s.GetConvention(ctx, "conv-a")
			require.NoError(t, err)
			assert.Equal(t, "A renamed", got.Name)
			assert.False(t, got.Active)

			require.NoError(t, s.DeleteConvention(ctx, "conv-a"))
			_, err = s.GetConvention(ctx, "conv-a")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.DeleteConvention(ctx, "conv-a"), ErrNotFound)
		})
	}
}

func TestCampaigns(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			bank := pricing.Campaign{
				ID: "camp-bank", Name: "Bank", Kind: pricing.CampaignKindBank,
				Suppliers: []string{"ignored"},
				StartDate: day(2026, time.January, 1), EndDate: day(2026, time.December, 31),
				Active: true, Priority: true,
			}
			require.NoError(t, s.SaveCampaign(ctx, bank))

			got, err := s.GetCampaign(ctx, "camp-bank")
			require.NoError(t, err)
			assert.Empty(t, got.Suppliers)
			assert.True(t, got.Priority)
			assert.True(t, got.ValidAt(day(2026, time.June, 1)))

			_, err = s.GetCampaign(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			list, err := s.ListCampaigns(ctx, true)
			require.NoError(t, err)
			assert.Len(t, list, 1)

			require.NoError(t, s.DeleteCampaign(ctx, "camp-bank"))
			list, err = s.ListCampaigns(ctx, false)
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestExpireBefore(t *testing.T) {
	ctx := context.Background()
	now := day(2026, time.October, 1)
	past := day(2026, time.August, 31)
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, SeedDemo(ctx, s, now))
			require.NoError(t, s.SaveConvention(ctx, pricing.Convention{
				ID: "conv-old", Name: "Old", StartDate: day(2025, time.January, 1), EndDate: &past, Active: true,
			}))

			res, err := s.ExpireBefore(ctx, now)
			require.NoError(t, err)
			assert.Equal(t, int64(1), res.Conventions)
			assert.Equal(t, int64(1), res.Campaigns, "summer campaign is over")

			summer, err := s.GetCampaign(ctx, "camp-ete")
			require.NoError(t, err)
			assert.False(t, summer.Active)

			openEnded, err := s.GetConvention(ctx, "conv-equipement-industriel")
			require.NoError(t, err)
			assert.True(t, openEnded.Active)

			res, err = s.ExpireBefore(ctx, now)
			require.NoError(t, err)
			assert.Equal(t, Expired{}, res)
		})
	}
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			n, err := s.UpsertItems(ctx, DemoCatalog())
			require.NoError(t, err)
			assert.Equal(t, 11, n)

			suppliers, err := s.Suppliers(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"afrique-materiel", "babacar-fils", "dakar-equipement", "senegal-auto", "sonacos"}, suppliers)

			items, err := s.Items(ctx, "babacar-fils")
			require.NoError(t, err)
			require.Len(t, items, 3)
			assert.Equal(t, []string{"Véhicule", "Équipement"}, catalog.Categories(items))

			_, err = s.UpsertItems(ctx, []catalog.Item{{
				Supplier: "babacar-fils", Reference: "VEH001", Description: "Renault Master L3H2",
				Category: "Véhicule", UnitPriceExclTax: decimal.NewFromInt(16000000),
			}})
			require.NoError(t, err)

			items, err = s.Items(ctx, "babacar-fils")
			require.NoError(t, err)
			require.Len(t, items, 3)
			m, ok := catalog.NewIndex(items).Find("babacar-fils", "Véhicule", "Renault Master L3H2")
			require.True(t, ok)
			assert.True(t, m.UnitPriceExclTax.Equal(decimal.NewFromInt(16000000)))

			all, err := s.AllItems(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 11)

			none, err := s.Items(ctx, "unknown")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestProposals(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			draft := &models.ProposalRecord{
				ID: "p-1", Status: models.ProposalStatusDraft, ClientName: "Société Dakar Transport",
				ProposalType: "standard", FinancedAmount: decimal.NewFromInt(1000), Payload: "{}",
			}
			require.NoError(t, s.SaveProposal(ctx, draft))
			sent := &models.ProposalRecord{
				ID: "p-2", Status: models.ProposalStatusSubmitted, ClientName: "Sonacos SA",
				ProposalType: "campaign", FinancedAmount: decimal.NewFromInt(2000), Payload: "{}",
			}
			require.NoError(t, s.SaveProposal(ctx, sent))

			got, err := s.GetProposal(ctx, "p-1")
			require.NoError(t, err)
			assert.Equal(t, "Société Dakar Transport", got.ClientName)
			assert.True(t, got.FinancedAmount.Equal(decimal.NewFromInt(1000)))

			draft.Status = models.ProposalStatusSubmitted
			draft.FinancedAmount = decimal.NewFromInt(1500)
			require.NoError(t, s.SaveProposal(ctx, draft))
			got, err = s.GetProposal(ctx, "p-1")
			require.NoError(t, err)
			assert.Equal(t, models.ProposalStatusSubmitted, got.Status)
			assert.True(t, got.FinancedAmount.Equal(decimal.NewFromInt(1500)))

			list, err := s.ListProposals(ctx, ProposalFilter{Client: "dakar"})
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "p-1", list[0].ID)

			counts, err := s.CountByStatus(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(2), counts[models.ProposalStatusSubmitted])
			assert.Zero(t, counts[models.ProposalStatusDraft])

			_, err = s.GetProposal(ctx, "nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}
