package usecase

import (
	"context"
	"fmt"
	"time"

	"TrendRadar/internal/domain/models"
	domrepo "TrendRadar/internal/domain/repository"
)

// QuotesUseCase provides business logic for reading back stored quotes.
type QuotesUseCase struct {
	store domrepo.Storage
}

func NewQuotesUseCase(store domrepo.Storage) *QuotesUseCase {
	return &QuotesUseCase{store: store}
}

type GetQuotesParams struct {
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}

type GetQuotesResult struct {
	Symbol string          `json:"symbol"`
	From   time.Time       `json:"from"`
	To     time.Time       `json:"to"`
	Count  int             `json:"count"`
	Quotes []*models.Quote `json:"quotes"`
}

func (uc *QuotesUseCase) GetQuotes(ctx context.Context, p GetQuotesParams) (*GetQuotesResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	quotes, err := uc.store.Query(ctx, p.Symbol, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("get quotes: %w", err)
	}

	return &GetQuotesResult{
		Symbol: p.Symbol,
		From:   p.From,
		To:     p.To,
		Count:  len(quotes),
		Quotes: quotes,
	}, nil
}
