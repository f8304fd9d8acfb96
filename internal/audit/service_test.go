package audit

import (
	"context"
	"testing"
	"time"

	"leasing-backend/internal/database/dbtest"
	"leasing-backend/internal/models"
	"leasing-backend/internal/pricing"
	"leasing-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *repository.MemoryStore) {
	rates := repository.NewMemoryStore()
	return NewService(dbtest.Open(t), rates), rates
}

func convention(name string) pricing.Convention {
	return pricing.Convention{
		ID: "conv-1", Name: name, Suppliers: []string{"sonacos"},
		Schedule:  pricing.RateSchedule{Rate: 6, Margin: 2.5, ResidualValue: 2},
		StartDate: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), Active: true,
	}
}

func TestWriteAndList(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	require.NoError(t, svc.Write(ctx, LogOptions{
		Actor: "awa", EntityType: EntityConvention, EntityID: "conv-1",
		Action: models.AuditActionCreate, Description: "convention created", After: convention("A"),
	}))
	require.NoError(t, svc.Write(ctx, LogOptions{
		Actor: "moussa", EntityType: EntityCampaign, EntityID: "camp-1",
		Action: models.AuditActionDelete, Description: "campaign deleted",
	}))

	all, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "camp-1", all[0].EntityID, "newest first")
	assert.Equal(t, "null", all[0].BeforeData)

	mine, err := svc.List(ctx, Filter{Actor: "awa"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Contains(t, mine[0].AfterData, `"name":"A"`)
}

func TestUndo_Update(t *testing.T) {
	ctx := context.Background()
	svc, rates := newService(t)

	before := convention("Before")
	after := convention("After")
	require.NoError(t, rates.SaveConvention(ctx, after))
	require.NoError(t, svc.Write(ctx, LogOptions{
		Actor: "awa", EntityType: EntityConvention, EntityID: "conv-1",
		Action: models.AuditActionUpdate, Before: before, After: after,
	}))
	logs, err := svc.List(ctx, Filter{})
	require.NoError(t, err)

	require.NoError(t, svc.Undo(ctx, logs[0].ID, "moussa"))

	got, err := rates.GetConvention(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "Before", got.Name)

	logs, err = svc.List(ctx, Filter{EntityID: "conv-1"})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	var original, undo models.AuditLog
	for _, l := range logs {
		if l.Action == models.AuditActionUndo {
			undo = l
		} else {
			original = l
		}
	}
	assert.True(t, original.IsUndone)
	assert.Equal(t, "moussa", original.UndoneBy)
	require.NotNil(t, original.UndoneAt)
	assert.True(t, undo.Undone)
	assert.Equal(t, "moussa", undo.Actor)

	assert.ErrorIs(t, svc.Undo(ctx, original.ID, "moussa"), ErrAlreadyUndone)
	assert.ErrorIs(t, svc.Undo(ctx, undo.ID, "moussa"), ErrNotUndoable)
}

func TestUndo_CreateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, rates := newService(t)

	camp := pricing.Campaign{
		ID: "camp-1", Name: "Bank", Kind: pricing.CampaignKindBank,
		StartDate: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC),
		Active:    true,
	}
	require.NoError(t, rates.SaveCampaign(ctx, camp))
	require.NoError(t, svc.Write(ctx, LogOptions{
		EntityType: EntityCampaign, EntityID: "camp-1", Action: models.AuditActionCreate, After: camp,
	}))
	logs, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	require.NoError(t, svc.Undo(ctx, logs[0].ID, "admin"))

	_, err = rates.GetCampaign(ctx, "camp-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, svc.Write(ctx, LogOptions{
		EntityType: EntityCampaign, EntityID: "camp-1", Action: models.AuditActionDelete, Before: camp,
	}))
	logs, err = svc.List(ctx, Filter{Actor: ""})
	require.NoError(t, err)
	var deleteLog models.AuditLog
	for _, l := range logs {
		if l.Action == models.AuditActionDelete {
			deleteLog = l
		}
	}
	require.NotZero(t, deleteLog.ID)
	require.NoError(t, svc.Undo(ctx, deleteLog.ID, "admin"))

	got, err := rates.GetCampaign(ctx, "camp-1")
	require.NoError(t, err)
	assert.Equal(t, "Bank", got.Name)
	assert.True(t, got.EndDate.Equal(camp.EndDate))
}

func TestUndo_StandardSchedule(t *testing.T) {
	ctx := context.Background()
	svc, rates := newService(t)

	require.NoError(t, rates.SetStandardSchedule(ctx, pricing.RateSchedule{Rate: 9, Margin: 3, ResidualValue: 2}))
	require.NoError(t, svc.Write(ctx, LogOptions{
		EntityType: EntityStandardSchedule, EntityID: "standard", Action: models.AuditActionUpdate,
		Before: pricing.DefaultStandardSchedule,
		After:  pricing.RateSchedule{Rate: 9, Margin: 3, ResidualValue: 2},
	}))
	logs, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	require.NoError(t, svc.Undo(ctx, logs[0].ID, "admin"))

	got, err := rates.StandardSchedule(ctx)
	require.NoError(t, err)
	assert.Equal(t, pricing.DefaultStandardSchedule, got)
}

func TestUndo_UnknownLog(t *testing.T) {
	svc, _ := newService(t)
	assert.ErrorIs(t, svc.Undo(context.Background(), 404, "admin"), repository.ErrNotFound)
}
