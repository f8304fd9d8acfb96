package proposal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leasing-backend/internal/models"
	"leasing-backend/internal/repository"
)

// Submission is what a Sink receives: the form payload and its quote.
type Submission struct {
	Payload Payload `json:"payload"`
	Quote   Quote   `json:"quote"`
}

// Sink receives saved drafts and proposals sent for validation. It returns
// the stored proposal id.
type Sink interface {
	SaveDraft(ctx context.Context, s Submission) (string, error)
	SendForValidation(ctx context.Context, s Submission) (string, error)
}

// StoreSink keeps submissions in a repository.ProposalStore.
type StoreSink struct {
	store repository.ProposalStore
	now   func() time.Time
}

func NewStoreSink(store repository.ProposalStore) *StoreSink {
	return &StoreSink{store: store, now: time.Now}
}

func (s *StoreSink) SaveDraft(ctx context.Context, sub Submission) (string, error) {
	return s.save(ctx, sub, models.ProposalStatusDraft)
}

func (s *StoreSink) SendForValidation(ctx context.Context, sub Submission) (string, error) {
	return s.save(ctx, sub, models.ProposalStatusSubmitted)
}

func (s *StoreSink) save(ctx context.Context, sub Submission, status models.ProposalStatus) (string, error) {
	if sub.Payload.ID != "" {
		prev, err := s.store.GetProposal(ctx, sub.Payload.ID)
		if err == nil && prev.Status == models.ProposalStatusSubmitted {
			return "", ErrAlreadySubmitted
		}
	}

	// rows are recomputed on read
	sub.Quote.Rows = nil
	data, err := json.Marshal(sub)
	if err != nil {
		return "", fmt.Errorf("encode proposal: %w", err)
	}

	rec := &models.ProposalRecord{
		ID:             sub.Payload.ID,
		Status:         status,
		ClientName:     sub.Payload.Client.DisplayName(),
		ProposalType:   string(sub.Quote.Resolution.Source),
		SourceID:       sub.Quote.Resolution.SourceID,
		FinancedAmount: sub.Quote.FinancedAmount,
		Payload:        string(data),
	}
	if status == models.ProposalStatusSubmitted {
		now := s.now()
		rec.SubmittedAt = &now
	}
	if err := s.store.SaveProposal(ctx, rec); err != nil {
		return "", fmt.Errorf("save proposal %s: %w", rec.ID, err)
	}
	return rec.ID, nil
}

// Decode reads a stored record back into its submission.
func Decode(rec models.ProposalRecord) (Submission, error) {
	var sub Submission
	if err := json.Unmarshal([]byte(rec.Payload), &sub); err != nil {
		return Submission{}, fmt.Errorf("decode proposal %s: %w", rec.ID, err)
	}
	sub.Payload.ID = rec.ID
	return sub, nil
}
