package proposal

import (
	"context"
	"errors"
	"testing"
	"time"

	"leasing-backend/internal/models"
	"leasing-backend/internal/pricing"
	"leasing-backend/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var summer = time.Date(2026, time.July, 15, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, now time.Time) (*Service, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	require.NoError(t, repository.SeedDemo(context.Background(), store, now))
	svc := NewService(Config{
		Rates:          store,
		Catalog:        store,
		Proposals:      store,
		DefaultPeriods: 36,
		Now:            func() time.Time { return now },
	})
	return svc, store
}

func vehicleItem(supplier string) LineItem {
	return LineItem{
		ID:               1,
		Kind:             KindEquipment,
		Supplier:         supplier,
		Category:         "Véhicule",
		Description:      "Véhicule utilitaire Renault Master",
		Reference:        "VEH001",
		UnitPriceExclTax: dec("1000000"),
		TaxRatePercent:   dec("18"),
		Quantity:         dec("1"),
	}
}

func completePayload() Payload {
	req := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	return Payload{
		Client: ClientInfo{
			Type:           ClientTypeClient,
			TenantType:     "entreprise",
			LastName:       "Diop",
			FirstNames:     "Awa",
			Phone:          "+221 77 000 00 00",
			ActivitySector: "Transport",
			Address:        "Dakar Plateau",
		},
		General: GeneralInfo{
			Product:     "credit-bail",
			RequestDate: &req,
			Agency:      "Dakar",
		},
		Suppliers: []string{"babacar-fils"},
		Items:     []LineItem{vehicleItem("babacar-fils")},
		Terms: Terms{
			ProposalType: pricing.TypeStandard,
			Periodicity:  "M",
		},
	}
}

func validationErr(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	return verr
}

func TestPreview_StandardBareme(t *testing.T) {
	svc, _ := newTestService(t, summer)

	q, err := svc.Preview(context.Background(), completePayload())
	require.NoError(t, err)

	assert.Equal(t, pricing.TypeStandard, q.Resolution.Source)
	assert.Equal(t, 7.5, q.Bareme.Rate)
	assert.Equal(t, "1180000", q.FinancedAmount.String())
	assert.Equal(t, 36, q.Periods)
	assert.Equal(t, "monthly", q.Periodicity)
	require.Len(t, q.Rows, 36)
	assert.Equal(t, 0.0, q.Rows[35].ClosingBalance)
	assert.InDelta(t, 1180000, q.Summary.TotalPrincipal, 0.01)
	assert.Equal(t, "23600", q.ResidualAmount.String())
}

func TestPreview_CampaignThenConventionFallback(t *testing.T) {
	p := completePayload()
	p.Terms.ProposalType = pricing.TypeCampaign
	p.Terms.CampaignID = "camp-ete"
	p.Terms.ConventionID = "conv-vehicules-pro"

	svc, _ := newTestService(t, summer)
	q, err := svc.Preview(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, pricing.TypeCampaign, q.Resolution.Source)
	assert.Equal(t, 4.5, q.Bareme.Rate)

	autumn := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	svc, _ = newTestService(t, autumn)
	q, err = svc.Preview(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, q.Resolution.CampaignRejected)
	assert.Equal(t, pricing.TypeConvention, q.Resolution.Source)
	assert.Equal(t, "conv-vehicules-pro", q.Resolution.SourceID)
	assert.Equal(t, 6.5, q.Bareme.Rate)
}

func TestPreview_UnknownConvention(t *testing.T) {
	svc, _ := newTestService(t, summer)
	p := completePayload()
	p.Terms.ProposalType = pricing.TypeConvention
	p.Terms.ConventionID = "nope"

	_, err := svc.Preview(context.Background(), p)
	verr := validationErr(t, err)
	assert.Contains(t, verr.Invalid, "terms.convention_id")
}

func TestPreview_DerogatoireOverride(t *testing.T) {
	svc, _ := newTestService(t, summer)
	p := completePayload()
	p.Terms.Mode = ModeDerogatoire

	_, err := svc.Preview(context.Background(), p)
	verr := validationErr(t, err)
	assert.Contains(t, verr.Missing, "terms.override")

	p.Terms.Override = &pricing.RateSchedule{Rate: 3, Margin: 1, ResidualValue: 0}
	q, err := svc.Preview(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, ModeDerogatoire, q.Mode)
	assert.Equal(t, 3.0, q.Bareme.Rate)
	assert.Equal(t, pricing.TypeStandard, q.Resolution.Source)
}

func TestPreview_PeriodsAndPeriodicity(t *testing.T) {
	svc, _ := newTestService(t, summer)
	p := completePayload()
	p.Terms.Periodicity = "trimestrielle"
	p.Terms.Periods = 8

	q, err := svc.Preview(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "quarterly", q.Periodicity)
	assert.Len(t, q.Rows, 8)

	p.Terms.Periodicity = "weekly"
	_, err = svc.Preview(context.Background(), p)
	verr := validationErr(t, err)
	assert.Contains(t, verr.Invalid, "terms.periodicity")
}

func TestSaveDraft(t *testing.T) {
	svc, store := newTestService(t, summer)
	ctx := context.Background()

	_, err := svc.SaveDraft(ctx, Payload{})
	verr := validationErr(t, err)
	assert.Equal(t, []string{"client.client_type"}, verr.Missing)

	r, err := svc.SaveDraft(ctx, Payload{Client: ClientInfo{Type: "Prospect", LastName: "Ndiaye"}})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, models.ProposalStatusDraft, r.Status)

	rec, err := store.GetProposal(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusDraft, rec.Status)
	assert.Equal(t, "Ndiaye", rec.ClientName)
	assert.Nil(t, rec.SubmittedAt)

	got, err := svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, ClientTypeProspect, got.Payload.Client.Type)
}

func TestSaveDraft_IncompleteQuoteStillSaved(t *testing.T) {
	svc, _ := newTestService(t, summer)
	p := Payload{Client: ClientInfo{Type: ClientTypeClient}}
	p.Terms.Mode = ModeDerogatoire

	r, err := svc.SaveDraft(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, r.Quote.FinancedAmount.IsZero())
}

func TestSendForValidation_MissingFields(t *testing.T) {
	svc, _ := newTestService(t, summer)
	p := Payload{Client: ClientInfo{Type: ClientTypeClient}}
	p.Terms.ProposalType = pricing.TypeConvention

	_, err := svc.SendForValidation(context.Background(), p)
	verr := validationErr(t, err)
	for _, f := range []string{
		"client.tenant_type", "client.last_name", "client.phone", "client.activity_sector",
		"client.address", "general.product", "general.agency", "general.request_date",
		"terms.periodicity", "suppliers", "items", "terms.convention_id",
	} {
		assert.Contains(t, verr.Missing, f)
	}
}

func TestSendForValidation_SupplierOutsideConvention(t *testing.T) {
	svc, _ := newTestService(t, summer)
	p := completePayload()
	p.Terms.ProposalType = pricing.TypeConvention
	p.Terms.ConventionID = "conv-vehicules-pro"
	p.Suppliers = []string{"sonacos"}
	p.Items = []LineItem{vehicleItem("sonacos")}

	_, err := svc.SendForValidation(context.Background(), p)
	verr := validationErr(t, err)
	assert.Contains(t, verr.Invalid["suppliers"], "sonacos")
}

func TestSendForValidation_StoresAndLocks(t *testing.T) {
	svc, _ := newTestService(t, summer)
	ctx := context.Background()
	p := completePayload()
	p.Terms.ProposalType = pricing.TypeConvention
	p.Terms.ConventionID = "conv-vehicules-pro"

	r, err := svc.SendForValidation(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusSubmitted, r.Status)
	assert.Equal(t, 6.5, r.Quote.Bareme.Rate)

	got, err := svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusSubmitted, got.Status)
	assert.NotNil(t, got.SubmittedAt)
	assert.Equal(t, "CB001", got.Payload.General.ProductCode)
	assert.Len(t, got.Quote.Rows, 36)

	p.ID = r.ID
	_, err = svc.SendForValidation(ctx, p)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	_, err = svc.SaveDraft(ctx, p)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	_, err = svc.SaveDraft(ctx, Payload{Client: ClientInfo{Type: ClientTypeProspect, LastName: "Fall"}})
	require.NoError(t, err)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sum.Drafts)
	assert.Equal(t, int64(1), sum.Submitted)
	assert.Equal(t, "1180000", sum.FinancedAmount.String())

	list, err := svc.List(ctx, repository.ProposalFilter{Client: "diop"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, r.ID, list[0].ID)
	assert.Equal(t, "convention", list[0].ProposalType)
}

func TestEligibleSuppliers(t *testing.T) {
	svc, _ := newTestService(t, summer)
	ctx := context.Background()

	all, res, err := svc.EligibleSuppliers(ctx, Terms{})
	require.NoError(t, err)
	assert.Equal(t, pricing.TypeStandard, res.Source)
	assert.Len(t, all, 5)

	list, _, err := svc.EligibleSuppliers(ctx, Terms{ProposalType: pricing.TypeConvention, ConventionID: "conv-vehicules-pro"})
	require.NoError(t, err)
	assert.Equal(t, []string{"babacar-fils", "senegal-auto"}, list)

	list, res, err = svc.EligibleSuppliers(ctx, Terms{ProposalType: pricing.TypeCampaign, CampaignID: "camp-equipement-industriel"})
	require.NoError(t, err)
	assert.Equal(t, "camp-equipement-industriel", res.SourceID)
	assert.Len(t, list, 5)
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestService(t, summer)
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPreview_TooManyPeriods(t *testing.T) {
	svc, _ := newTestService(t, summer)
	p := completePayload()
	p.Terms.Periods = 9_000_000_000_000

	_, err := svc.Preview(context.Background(), p)
	verr := validationErr(t, err)
	assert.Contains(t, verr.Invalid, "terms.periods")

	p.Terms.Periods = pricing.MaxPeriods
	q, err := svc.Preview(context.Background(), p)
	require.NoError(t, err)
	assert.Len(t, q.Rows, pricing.MaxPeriods)
}

func TestSaveDraft_RejectsUnboundedAmounts(t *testing.T) {
	svc, store := newTestService(t, summer)
	ctx := context.Background()

	p := completePayload()
	p.Fees.Insurance = decimal.New(1, -400000000)
	_, err := svc.SaveDraft(ctx, p)
	verr := validationErr(t, err)
	assert.Contains(t, verr.Invalid, "fees.insurance")

	p = completePayload()
	p.Items[0].Quantity = decimal.New(1, -400000000)
	_, err = svc.SendForValidation(ctx, p)
	verr = validationErr(t, err)
	assert.Contains(t, verr.Invalid, "items")

	list, err := store.ListProposals(ctx, repository.ProposalFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}
