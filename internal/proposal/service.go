package proposal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leasing-backend/internal/catalog"
	"leasing-backend/internal/models"
	"leasing-backend/internal/pricing"
	"leasing-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var ErrAlreadySubmitted = errors.New("proposal was already sent for validation")

type Config struct {
	Rates          repository.RateStore
	Catalog        catalog.Provider
	Proposals      repository.ProposalStore
	Sink           Sink // defaults to a StoreSink over Proposals
	DefaultPeriods int
	Now            func() time.Time
}

type Service struct {
	rates          repository.RateStore
	catalog        catalog.Provider
	proposals      repository.ProposalStore
	sink           Sink
	defaultPeriods int
	now            func() time.Time
}

func NewService(cfg Config) *Service {
	s := &Service{
		rates:          cfg.Rates,
		catalog:        cfg.Catalog,
		proposals:      cfg.Proposals,
		sink:           cfg.Sink,
		defaultPeriods: cfg.DefaultPeriods,
		now:            cfg.Now,
	}
	if s.sink == nil {
		s.sink = NewStoreSink(cfg.Proposals)
	}
	if s.defaultPeriods <= 0 {
		s.defaultPeriods = 36
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Resolve loads the records referenced by terms and picks the effective barème.
func (s *Service) Resolve(ctx context.Context, terms Terms) (pricing.Resolution, error) {
	verr := &ValidationError{}
	pt, err := pricing.ParseProposalType(string(terms.ProposalType))
	if err != nil {
		verr.invalid("terms.proposal_type", err.Error())
		return pricing.Resolution{}, verr
	}
	sel := pricing.Selection{Type: pt}

	if terms.ConventionID != "" && pt != pricing.TypeStandard {
		conv, err := s.rates.GetConvention(ctx, terms.ConventionID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			verr.invalid("terms.convention_id", "unknown convention")
		case err != nil:
			return pricing.Resolution{}, err
		default:
			sel.Convention = &conv
		}
	}
	if terms.CampaignID != "" && pt == pricing.TypeCampaign {
		camp, err := s.rates.GetCampaign(ctx, terms.CampaignID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			verr.invalid("terms.campaign_id", "unknown campaign")
		case err != nil:
			return pricing.Resolution{}, err
		default:
			sel.Campaign = &camp
		}
	}
	if !verr.empty() {
		return pricing.Resolution{}, verr
	}

	standard, err := s.rates.StandardSchedule(ctx)
	if err != nil {
		return pricing.Resolution{}, err
	}
	res := pricing.Resolve(sel, standard, s.now())
	if res.CampaignRejected {
		log.Info().Str("campaign_id", terms.CampaignID).Str("fallback", string(res.Source)).Msg("campaign no longer valid, barème fell back")
	}
	return res, nil
}

// EligibleSuppliers lists the catalog suppliers a proposal with these terms may use.
func (s *Service) EligibleSuppliers(ctx context.Context, terms Terms) ([]string, pricing.Resolution, error) {
	res, err := s.Resolve(ctx, terms)
	if err != nil {
		return nil, res, err
	}
	all, err := s.catalog.Suppliers(ctx)
	if err != nil {
		return nil, res, err
	}
	return res.EligibleSuppliers(all), res, nil
}

// Preview prices a proposal without storing anything.
func (s *Service) Preview(ctx context.Context, p Payload) (Quote, error) {
	if err := p.normalize(); err != nil {
		return Quote{}, &ValidationError{Invalid: map[string]string{"terms": err.Error()}}
	}
	if err := p.checkAmounts(); err != nil {
		return Quote{}, err
	}
	res, err := s.Resolve(ctx, p.Terms)
	if err != nil {
		return Quote{}, err
	}
	return BuildQuote(p, res, s.defaultPeriods)
}

type Receipt struct {
	ID     string                `json:"id"`
	Status models.ProposalStatus `json:"status"`
	Quote  Quote                 `json:"quote"`
}

// SaveDraft stores an incomplete proposal. Only the client type is required.
func (s *Service) SaveDraft(ctx context.Context, p Payload) (Receipt, error) {
	if err := p.normalize(); err != nil {
		return Receipt{}, &ValidationError{Invalid: map[string]string{"terms": err.Error()}}
	}
	if err := p.checkAmounts(); err != nil {
		return Receipt{}, err
	}
	if !p.Client.Type.Valid() {
		return Receipt{}, &ValidationError{Missing: []string{"client.client_type"}}
	}
	// drafts may be priced later; an incomplete quote does not block saving
	quote, err := s.Preview(ctx, p)
	var verr *ValidationError
	if errors.As(err, &verr) {
		log.Debug().Err(err).Msg("draft saved without quote")
		quote = Quote{}
	} else if err != nil {
		return Receipt{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	id, err := s.sink.SaveDraft(ctx, Submission{Payload: p, Quote: quote})
	if err != nil {
		return Receipt{}, err
	}
	log.Info().Str("proposal_id", id).Msg("proposal draft saved")
	return Receipt{ID: id, Status: models.ProposalStatusDraft, Quote: quote}, nil
}

// SendForValidation checks the proposal is complete and hands it over.
func (s *Service) SendForValidation(ctx context.Context, p Payload) (Receipt, error) {
	if err := p.normalize(); err != nil {
		return Receipt{}, &ValidationError{Invalid: map[string]string{"terms": err.Error()}}
	}
	if err := p.checkAmounts(); err != nil {
		return Receipt{}, err
	}
	verr := checkComplete(p)

	res, err := s.Resolve(ctx, p.Terms)
	var rerr *ValidationError
	if errors.As(err, &rerr) {
		verr.Missing = append(verr.Missing, rerr.Missing...)
		for k, v := range rerr.Invalid {
			verr.invalid(k, v)
		}
	} else if err != nil {
		return Receipt{}, err
	}
	if !verr.empty() {
		return Receipt{}, verr
	}

	if bad := disallowedSuppliers(p, res); len(bad) > 0 {
		verr.invalid("suppliers", fmt.Sprintf("not covered by the %s barème: %s", res.Source, strings.Join(bad, ", ")))
		return Receipt{}, verr
	}

	quote, err := BuildQuote(p, res, s.defaultPeriods)
	if err != nil {
		return Receipt{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	id, err := s.sink.SendForValidation(ctx, Submission{Payload: p, Quote: quote})
	if err != nil {
		return Receipt{}, err
	}
	log.Info().Str("proposal_id", id).Str("source", string(res.Source)).Str("financed", quote.FinancedAmount.StringFixed(2)).Msg("proposal sent for validation")
	return Receipt{ID: id, Status: models.ProposalStatusSubmitted, Quote: quote}, nil
}

// checkComplete lists the required fields left empty.
func checkComplete(p Payload) *ValidationError {
	verr := &ValidationError{}
	required := []struct {
		field string
		value string
	}{
		{"client.tenant_type", p.Client.TenantType},
		{"client.last_name", p.Client.LastName},
		{"client.phone", p.Client.Phone},
		{"client.activity_sector", p.Client.ActivitySector},
		{"client.address", p.Client.Address},
		{"general.product", p.General.Product},
		{"general.agency", p.General.Agency},
		{"terms.periodicity", p.Terms.Periodicity},
	}
	if !p.Client.Type.Valid() {
		verr.missing("client.client_type")
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			verr.missing(r.field)
		}
	}
	if p.General.RequestDate == nil {
		verr.missing("general.request_date")
	}
	if p.General.Product != "" && p.General.ProductCode == "" {
		verr.invalid("general.product", "unknown product")
	}
	if len(p.Suppliers) == 0 {
		verr.missing("suppliers")
	}
	if len(p.Items) == 0 {
		verr.missing("items")
	}
	switch p.Terms.ProposalType {
	case pricing.TypeConvention:
		if p.Terms.ConventionID == "" {
			verr.missing("terms.convention_id")
		}
	case pricing.TypeCampaign:
		if p.Terms.CampaignID == "" {
			verr.missing("terms.campaign_id")
		}
	}
	return verr
}

// disallowedSuppliers returns the suppliers of p the resolution does not allow.
func disallowedSuppliers(p Payload, res pricing.Resolution) []string {
	seen := make(map[string]bool)
	bad := []string{}
	check := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		if !res.SupplierAllowed(s) {
			bad = append(bad, s)
		}
	}
	for _, s := range p.Suppliers {
		check(s)
	}
	for _, it := range p.Items {
		check(it.Supplier)
	}
	return bad
}

type Stored struct {
	ID          string                `json:"id"`
	Status      models.ProposalStatus `json:"status"`
	ClientName  string                `json:"client_name"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	SubmittedAt *time.Time            `json:"submitted_at,omitempty"`
	Submission
}

func (s *Service) Get(ctx context.Context, id string) (Stored, error) {
	rec, err := s.proposals.GetProposal(ctx, id)
	if err != nil {
		return Stored{}, err
	}
	sub, err := Decode(rec)
	if err != nil {
		return Stored{}, err
	}
	// the stored quote drops its rows; rebuild them from the stored barème
	if per, perr := pricing.ParsePeriodicity(sub.Quote.Periodicity); perr == nil {
		principal, _ := sub.Quote.FinancedAmount.Float64()
		sub.Quote.Rows, _ = pricing.AmortizeWithPeriodicity(principal, sub.Quote.Periods, sub.Quote.Bareme.Rate, per)
	}
	return Stored{
		ID:          rec.ID,
		Status:      rec.Status,
		ClientName:  rec.ClientName,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		SubmittedAt: rec.SubmittedAt,
		Submission:  sub,
	}, nil
}

type ListItem struct {
	ID             string                `json:"id"`
	Status         models.ProposalStatus `json:"status"`
	ClientName     string                `json:"client_name"`
	ProposalType   string                `json:"proposal_type"`
	SourceID       string                `json:"source_id,omitempty"`
	FinancedAmount decimal.Decimal       `json:"financed_amount"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

func (s *Service) List(ctx context.Context, f repository.ProposalFilter) ([]ListItem, error) {
	recs, err := s.proposals.ListProposals(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]ListItem, 0, len(recs))
	for _, r := range recs {
		out = append(out, ListItem{
			ID:             r.ID,
			Status:         r.Status,
			ClientName:     r.ClientName,
			ProposalType:   r.ProposalType,
			SourceID:       r.SourceID,
			FinancedAmount: r.FinancedAmount,
			UpdatedAt:      r.UpdatedAt,
		})
	}
	return out, nil
}

type PipelineSummary struct {
	Drafts         int64           `json:"drafts"`
	Submitted      int64           `json:"submitted"`
	FinancedAmount decimal.Decimal `json:"submitted_financed_amount"`
}

// Summary counts proposals per status and sums the submitted financed amounts.
func (s *Service) Summary(ctx context.Context) (PipelineSummary, error) {
	counts, err := s.proposals.CountByStatus(ctx)
	if err != nil {
		return PipelineSummary{}, err
	}
	sent, err := s.proposals.ListProposals(ctx, repository.ProposalFilter{Status: models.ProposalStatusSubmitted})
	if err != nil {
		return PipelineSummary{}, err
	}
	total := decimal.Zero
	for _, r := range sent {
		total = total.Add(r.FinancedAmount)
	}
	return PipelineSummary{
		Drafts:         counts[models.ProposalStatusDraft],
		Submitted:      counts[models.ProposalStatusSubmitted],
		FinancedAmount: total,
	}, nil
}
