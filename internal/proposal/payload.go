package proposal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"leasing-backend/internal/money"
	"leasing-backend/internal/pricing"

	"github.com/shopspring/decimal"
)

type ClientType string

const (
	ClientTypeClient   ClientType = "client"
	ClientTypeProspect ClientType = "prospect"
)

func (t ClientType) Valid() bool {
	return t == ClientTypeClient || t == ClientTypeProspect
}

type ClientInfo struct {
	Type           ClientType `json:"client_type"`
	TenantType     string     `json:"tenant_type"`
	ClientNumber   string     `json:"client_number"`
	LastName       string     `json:"last_name"`
	FirstNames     string     `json:"first_names"`
	Phone          string     `json:"phone"`
	BirthDate      *time.Time `json:"birth_date,omitempty"`
	IDNumber       string     `json:"id_number"`
	LegalCategory  string     `json:"legal_category"`
	ActivitySector string     `json:"activity_sector"`
	NationalID     string     `json:"national_id"`
	Address        string     `json:"address"`
}

// DisplayName is the name used in listings.
func (c ClientInfo) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstNames) + " " + strings.TrimSpace(c.LastName))
}

var productCodes = map[string]string{
	"credit-bail":  "CB001",
	"cession-bail": "CS001",
	"lease-back":   "LB001",
	"loa":          "LOA001",
	"lld":          "LLD001",
}

// ProductCode returns the code filled in for a leasing product, "" if unknown.
func ProductCode(product string) string {
	return productCodes[strings.ToLower(strings.TrimSpace(product))]
}

// Products lists the known leasing products.
func Products() []string {
	out := make([]string, 0, len(productCodes))
	for p := range productCodes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type GeneralInfo struct {
	Product         string     `json:"product"`
	ProductCode     string     `json:"product_code"`
	RequestDate     *time.Time `json:"request_date,omitempty"`
	InServiceDate   *time.Time `json:"in_service_date,omitempty"`
	Agency          string     `json:"agency"`
	DeliveryAddress string     `json:"delivery_address"`
}

type PricingMode string

const (
	ModeStandard    PricingMode = "standard"
	ModeDerogatoire PricingMode = "derogatoire"
)

// Terms are the barème choices of a proposal.
type Terms struct {
	ProposalType pricing.ProposalType `json:"proposal_type"`
	ConventionID string               `json:"convention_id,omitempty"`
	CampaignID   string               `json:"campaign_id,omitempty"`

	Mode PricingMode `json:"bareme_mode"`
	// Negotiated schedule, used only in derogatoire mode.
	Override *pricing.RateSchedule `json:"override,omitempty"`

	Periodicity       string          `json:"periodicity"`
	Term              string          `json:"term"`               // echoir / echu
	CalculationMethod string          `json:"calculation_method"` // lineaire / degressive
	Periods           int             `json:"periods"`
	FirstRentExclTax  decimal.Decimal `json:"first_rent_excl_tax"`
}

type Fees struct {
	Insurance decimal.Decimal `json:"insurance"`
	Dossier   decimal.Decimal `json:"dossier"`
	Stamp     decimal.Decimal `json:"stamp"`
}

func (f Fees) Total() decimal.Decimal {
	return f.Insurance.Add(f.Dossier).Add(f.Stamp)
}

// checkAmounts bounds every decimal of the payload before anything is
// priced or stored.
func (p Payload) checkAmounts() error {
	verr := &ValidationError{}
	fields := map[string]decimal.Decimal{
		"terms.first_rent_excl_tax": p.Terms.FirstRentExclTax,
		"fees.insurance":            p.Fees.Insurance,
		"fees.dossier":              p.Fees.Dossier,
		"fees.stamp":                p.Fees.Stamp,
	}
	for name, d := range fields {
		if err := money.CheckScale(d); err != nil {
			verr.invalid(name, err.Error())
		}
	}
	for _, it := range p.Items {
		for _, d := range []decimal.Decimal{it.UnitPriceExclTax, it.TaxRatePercent, it.Quantity} {
			if err := money.CheckScale(d); err != nil {
				verr.invalid("items", fmt.Sprintf("line item %d: %s", it.ID, err))
			}
		}
	}
	if verr.empty() {
		return nil
	}
	return verr
}

// Payload is everything the intake form submits.
type Payload struct {
	ID        string      `json:"id,omitempty"`
	Client    ClientInfo  `json:"client"`
	General   GeneralInfo `json:"general"`
	Suppliers []string    `json:"suppliers"`
	Items     []LineItem  `json:"items"`
	Terms     Terms       `json:"terms"`
	Fees      Fees        `json:"fees"`
}

// normalize fills derived fields and defaults in place.
func (p *Payload) normalize() error {
	if p.General.Product != "" {
		p.General.ProductCode = ProductCode(p.General.Product)
	}
	pt, err := pricing.ParseProposalType(string(p.Terms.ProposalType))
	if err != nil {
		return err
	}
	p.Terms.ProposalType = pt
	if p.Terms.Mode == "" {
		p.Terms.Mode = ModeStandard
	}
	if p.Terms.Mode != ModeStandard && p.Terms.Mode != ModeDerogatoire {
		return fmt.Errorf("unknown barème mode %q", p.Terms.Mode)
	}
	p.Client.Type = ClientType(strings.ToLower(string(p.Client.Type)))
	return nil
}
