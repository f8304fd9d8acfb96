package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"leasing-backend/internal/catalog"
	"leasing-backend/internal/models"
	"leasing-backend/internal/pricing"
)

// MemoryStore keeps everything in process memory. It is used by the CLI,
// by tests and when no database is configured.
type MemoryStore struct {
	mu          sync.RWMutex
	standard    *pricing.RateSchedule
	conventions map[string]pricing.Convention
	campaigns   map[string]pricing.Campaign
	items       map[string]catalog.Item // supplier + "\x00" + reference
	proposals   map[string]models.ProposalRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conventions: make(map[string]pricing.Convention),
		campaigns:   make(map[string]pricing.Campaign),
		items:       make(map[string]catalog.Item),
		proposals:   make(map[string]models.ProposalRecord),
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneConvention(c pricing.Convention) pricing.Convention {
	c.Suppliers = cloneStrings(c.Suppliers)
	if c.Suppliers == nil {
		c.Suppliers = []string{}
	}
	if c.EndDate != nil {
		end := *c.EndDate
		c.EndDate = &end
	}
	return c
}

func cloneCampaign(c pricing.Campaign) pricing.Campaign {
	if c.Kind == pricing.CampaignKindBank {
		c.Suppliers = nil
	} else {
		c.Suppliers = cloneStrings(c.Suppliers)
		if c.Suppliers == nil {
			c.Suppliers = []string{}
		}
	}
	return c
}

func (s *MemoryStore) StandardSchedule(ctx context.Context) (pricing.RateSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.standard == nil {
		return pricing.DefaultStandardSchedule, nil
	}
	return *s.standard, nil
}

func (s *MemoryStore) SetStandardSchedule(ctx context.Context, sch pricing.RateSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.standard = &sch
	return nil
}

func (s *MemoryStore) GetConvention(ctx context.Context, id string) (pricing.Convention, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conventions[id]
	if !ok {
		return pricing.Convention{}, ErrNotFound
	}
	return cloneConvention(c), nil
}

func (s *MemoryStore) ListConventions(ctx context.Context, activeOnly bool) ([]pricing.Convention, error) {
	s.mu.RLock()
	out := make([]pricing.Convention, 0, len(s.conventions))
	for _, c := range s.conventions {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, cloneConvention(c))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *MemoryStore) SaveConvention(ctx context.Context, c pricing.Convention) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conventions[c.ID] = cloneConvention(c)
	return nil
}

func (s *MemoryStore) DeleteConvention(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conventions[id]; !ok {
		return ErrNotFound
	}
	delete(s.conventions, id)
	return nil
}

func (s *MemoryStore) GetCampaign(ctx context.Context, id string) (pricing.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return pricing.Campaign{}, ErrNotFound
	}
	return cloneCampaign(c), nil
}

func (s *MemoryStore) ListCampaigns(ctx context.Context, activeOnly bool) ([]pricing.Campaign, error) {
	s.mu.RLock()
	out := make([]pricing.Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, cloneCampaign(c))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *MemoryStore) SaveCampaign(ctx context.Context, c pricing.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = cloneCampaign(c)
	return nil
}

func (s *MemoryStore) DeleteCampaign(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.campaigns[id]; !ok {
		return ErrNotFound
	}
	delete(s.campaigns, id)
	return nil
}

func (s *MemoryStore) ExpireBefore(ctx context.Context, now time.Time) (Expired, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out Expired
	for id, c := range s.conventions {
		if c.Active && c.EndDate != nil && c.EndDate.Before(now) {
			c.Active = false
			s.conventions[id] = c
			out.Conventions++
		}
	}
	for id, c := range s.campaigns {
		if c.Active && c.EndDate.Before(now) {
			c.Active = false
			s.campaigns[id] = c
			out.Campaigns++
		}
	}
	return out, nil
}

func itemKey(supplier, reference string) string {
	return supplier + "\x00" + reference
}

func (s *MemoryStore) Suppliers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	seen := make(map[string]bool)
	out := []string{}
	for _, it := range s.items {
		if !seen[it.Supplier] {
			seen[it.Supplier] = true
			out = append(out, it.Supplier)
		}
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) Items(ctx context.Context, supplier string) ([]catalog.Item, error) {
	s.mu.RLock()
	out := []catalog.Item{}
	for _, it := range s.items {
		if it.Supplier == supplier {
			out = append(out, it)
		}
	}
	s.mu.RUnlock()
	catalog.SortItems(out)
	return out, nil
}

func (s *MemoryStore) AllItems(ctx context.Context) ([]catalog.Item, error) {
	s.mu.RLock()
	out := make([]catalog.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	s.mu.RUnlock()
	catalog.SortItems(out)
	return out, nil
}

func (s *MemoryStore) UpsertItems(ctx context.Context, items []catalog.Item) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		s.items[itemKey(it.Supplier, it.Reference)] = it
	}
	return len(items), nil
}

func (s *MemoryStore) SaveProposal(ctx context.Context, rec *models.ProposalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if prev, ok := s.proposals[rec.ID]; ok {
		rec.CreatedAt = prev.CreatedAt
	} else if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	s.proposals[rec.ID] = *rec
	return nil
}

func (s *MemoryStore) GetProposal(ctx context.Context, id string) (models.ProposalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.proposals[id]
	if !ok {
		return models.ProposalRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *MemoryStore) ListProposals(ctx context.Context, f ProposalFilter) ([]models.ProposalRecord, error) {
	client := strings.ToLower(f.Client)
	s.mu.RLock()
	out := []models.ProposalRecord{}
	for _, rec := range s.proposals {
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		if client != "" && !strings.Contains(strings.ToLower(rec.ClientName), client) {
			continue
		}
		out = append(out, rec)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) CountByStatus(ctx context.Context) (map[models.ProposalStatus]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[models.ProposalStatus]int64)
	for _, rec := range s.proposals {
		out[rec.Status]++
	}
	return out, nil
}
