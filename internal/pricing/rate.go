package pricing

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// RateSchedule is a barème: annual rate, nominal margin and residual value, all in percent.
type RateSchedule struct {
	Rate          float64 `json:"rate"`
	Margin        float64 `json:"margin"`
	ResidualValue float64 `json:"residual_value"`
}

// DefaultStandardSchedule applies when no standard barème has been configured.
var DefaultStandardSchedule = RateSchedule{Rate: 7.5, Margin: 3.0, ResidualValue: 2.0}

var (
	ErrNegativeScheduleValue = errors.New("barème values must be non-negative")
	ErrScheduleOutOfRange    = errors.New("rate and margin must be below 100")
)

// Validate is used on admin writes; the resolver trusts stored schedules.
func (s RateSchedule) Validate() error {
	if s.Rate < 0 || s.Margin < 0 || s.ResidualValue < 0 {
		return ErrNegativeScheduleValue
	}
	if s.Rate >= 100 || s.Margin >= 100 {
		return ErrScheduleOutOfRange
	}
	return nil
}

// ClientRate is the rate charged to the lessee: base rate plus margin.
func (s RateSchedule) ClientRate() float64 {
	return s.Rate + s.Margin
}

type Convention struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Suppliers   []string     `json:"suppliers"`
	Schedule    RateSchedule `json:"schedule"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     *time.Time   `json:"end_date,omitempty"` // nil = open-ended
	Active      bool         `json:"active"`
}

// UsableAt reports whether the convention may price a proposal at t.
func (c Convention) UsableAt(t time.Time) bool {
	if !c.Active || t.Before(c.StartDate) {
		return false
	}
	return c.EndDate == nil || !t.After(*c.EndDate)
}

type CampaignKind string

const (
	CampaignKindSupplier CampaignKind = "supplier"
	CampaignKindBank     CampaignKind = "bank"
)

func (k CampaignKind) Valid() bool {
	return k == CampaignKindSupplier || k == CampaignKindBank
}

type Campaign struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Kind        CampaignKind `json:"kind"`
	Suppliers   []string     `json:"suppliers,omitempty"` // ignored for bank campaigns
	Schedule    RateSchedule `json:"schedule"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `json:"end_date"`
	Active      bool         `json:"active"`
	Priority    bool         `json:"priority"`
}

// ValidAt: active && StartDate <= t <= EndDate.
func (c Campaign) ValidAt(t time.Time) bool {
	return c.Active && !t.Before(c.StartDate) && !t.After(c.EndDate)
}

// OpenTo reports whether supplier may sell under this campaign.
func (c Campaign) OpenTo(supplier string) bool {
	if c.Kind == CampaignKindBank {
		return true
	}
	return contains(c.Suppliers, supplier)
}

// ----------------------------------------
// Classification
// ----------------------------------------

type ProposalType string

const (
	TypeStandard   ProposalType = "standard"
	TypeConvention ProposalType = "convention"
	TypeCampaign   ProposalType = "campaign"
)

func ParseProposalType(s string) (ProposalType, error) {
	switch ProposalType(s) {
	case "", TypeStandard:
		return TypeStandard, nil
	case TypeConvention, TypeCampaign:
		return ProposalType(s), nil
	}
	return "", fmt.Errorf("unknown proposal type %q", s)
}

// Selection is the proposal classification together with the records the UI
// picked. Convention may be set alongside a campaign; it is the fallback when
// the campaign is no longer valid.
type Selection struct {
	Type       ProposalType
	Convention *Convention
	Campaign   *Campaign
}

// Resolution is the effective barème and where it came from.
type Resolution struct {
	Schedule RateSchedule `json:"schedule"`
	Source   ProposalType `json:"source"`
	SourceID string       `json:"source_id,omitempty"`

	// set when a campaign was requested but could not be used
	CampaignRejected bool `json:"campaign_rejected,omitempty"`

	suppliers []string
	scoped    bool
}

// Resolve picks the effective barème: campaign > convention > standard.
// Campaign and convention validity is re-checked against now on every call.
// A campaign that is no longer valid falls through to the selection's
// convention when that one is still usable, and to the standard barème
// otherwise.
func Resolve(sel Selection, standard RateSchedule, now time.Time) Resolution {
	var res Resolution

	if sel.Type == TypeCampaign && sel.Campaign != nil {
		if sel.Campaign.ValidAt(now) {
			res = Resolution{
				Schedule: sel.Campaign.Schedule,
				Source:   TypeCampaign,
				SourceID: sel.Campaign.ID,
			}
			if sel.Campaign.Kind == CampaignKindSupplier {
				res.suppliers = sel.Campaign.Suppliers
				res.scoped = true
			}
			return res
		}
		res.CampaignRejected = true
	}

	if (sel.Type == TypeCampaign || sel.Type == TypeConvention) && sel.Convention != nil && sel.Convention.UsableAt(now) {
		res.Schedule = sel.Convention.Schedule
		res.Source = TypeConvention
		res.SourceID = sel.Convention.ID
		res.suppliers = sel.Convention.Suppliers
		res.scoped = true
		return res
	}

	res.Schedule = standard
	res.Source = TypeStandard
	return res
}

// EligibleSuppliers narrows all to the suppliers allowed by the resolved source.
// Standard and bank-campaign resolutions return all unchanged.
func (r Resolution) EligibleSuppliers(all []string) []string {
	if !r.scoped {
		return all
	}
	out := make([]string, 0, len(r.suppliers))
	for _, s := range all {
		if contains(r.suppliers, s) {
			out = append(out, s)
		}
	}
	return out
}

// SupplierAllowed reports whether supplier may appear on a line item.
func (r Resolution) SupplierAllowed(supplier string) bool {
	return !r.scoped || contains(r.suppliers, supplier)
}

// ApplicableCampaigns lists campaigns valid at now and open to supplier
// (any supplier when supplier is empty). Priority campaigns come first,
// then the most recently started.
func ApplicableCampaigns(campaigns []Campaign, supplier string, now time.Time) []Campaign {
	out := make([]Campaign, 0, len(campaigns))
	for _, c := range campaigns {
		if !c.ValidAt(now) {
			continue
		}
		if supplier != "" && !c.OpenTo(supplier) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority
		}
		return out[i].StartDate.After(out[j].StartDate)
	})
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
