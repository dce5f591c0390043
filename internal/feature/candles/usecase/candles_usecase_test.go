package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"candle_catalog/internal/feature/candles/domain"
	"candle_catalog/internal/feature/candles/domain/entity"
	"candle_catalog/internal/feature/candles/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ErrDB is a sentinel shared between mocks and expectations.
var ErrDB = errors.New("database error")

// mockCandleRepository is a mock implementation of the CandleRepository interface.
type mockCandleRepository struct {
	FindFunc     func(ctx context.Context, q entity.CandleQuery) ([]entity.Candle, error)
	SummaryFunc  func(ctx context.Context) (entity.Summary, error)
	FindCalls    int
	LastQuery    entity.CandleQuery
	SummaryCalls int
}

func (m *mockCandleRepository) Find(ctx context.Context, q entity.CandleQuery) ([]entity.Candle, error) {
	m.FindCalls++
	m.LastQuery = q
	if m.FindFunc != nil {
		return m.FindFunc(ctx, q)
	}
	return nil, errors.New("FindFunc is not implemented")
}

func (m *mockCandleRepository) Summary(ctx context.Context) (entity.Summary, error) {
	m.SummaryCalls++
	if m.SummaryFunc != nil {
		return m.SummaryFunc(ctx)
	}
	return entity.Summary{}, errors.New("SummaryFunc is not implemented")
}

func intPtr(v int) *int { return &v }

func TestCandlesUsecase_GetCandles(t *testing.T) {
	ctx := context.Background()
	expected := []entity.Candle{
		{Pair: "SOLUSDT", Timeframe: "1m", Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	testCases := []struct {
		name          string
		query         entity.CandleQuery
		findErr       error
		expectedErr   error
		expectedQuery entity.CandleQuery
		expectFind    bool
	}{
		{
			name:          "success: date range",
			query:         entity.CandleQuery{Pair: "SOLUSDT", Timeframe: "1m", FromDate: "2024-01-01", ToDate: "2024-01-03", Limit: 100},
			expectedQuery: entity.CandleQuery{Pair: "SOLUSDT", Timeframe: "1m", FromDate: "2024-01-01", ToDate: "2024-01-03", Limit: 100},
			expectFind:    true,
		},
		{
			name:          "success: pair normalised and default limit applied",
			query:         entity.CandleQuery{Pair: " solusdt ", Timeframe: "5m", FromDate: "2024-01-01", ToDate: "2024-01-01"},
			expectedQuery: entity.CandleQuery{Pair: "SOLUSDT", Timeframe: "5m", FromDate: "2024-01-01", ToDate: "2024-01-01", Limit: usecase.DefaultQueryLimit},
			expectFind:    true,
		},
		{
			name:          "success: single hour",
			query:         entity.CandleQuery{Pair: "BTCUSDT", Timeframe: "1m", FromDate: "2024-01-01", ToDate: "2024-01-01", Hour: intPtr(13), Limit: usecase.MaxQueryLimit + 1},
			expectedQuery: entity.CandleQuery{Pair: "BTCUSDT", Timeframe: "1m", FromDate: "2024-01-01", ToDate: "2024-01-01", Hour: intPtr(13), Limit: usecase.DefaultQueryLimit},
			expectFind:    true,
		},
		{
			name:        "error: missing pair",
			query:       entity.CandleQuery{Timeframe: "1m", FromDate: "2024-01-01", ToDate: "2024-01-01"},
			expectedErr: domain.ErrInvalidRequest,
		},
		{
			name:        "error: unknown timeframe",
			query:       entity.CandleQuery{Pair: "SOLUSDT", Timeframe: "1w", FromDate: "2024-01-01", ToDate: "2024-01-01"},
			expectedErr: domain.ErrUnknownTimeframe,
		},
		{
			name:        "error: no dates",
			query:       entity.CandleQuery{Pair: "SOLUSDT", Timeframe: "1m"},
			expectedErr: domain.ErrInvalidRequest,
		},
		{
			name:        "error: inverted range",
			query:       entity.CandleQuery{Pair: "SOLUSDT", Timeframe: "1m", FromDate: "2024-01-05", ToDate: "2024-01-01"},
			expectedErr: domain.ErrInvalidRequest,
		},
		{
			name:        "error: hour out of range",
			query:       entity.CandleQuery{Pair: "SOLUSDT", Timeframe: "1m", FromDate: "2024-01-01", ToDate: "2024-01-01", Hour: intPtr(24)},
			expectedErr: domain.ErrInvalidRequest,
		},
		{
			name:        "error: repository failure",
			query:       entity.CandleQuery{Pair: "SOLUSDT", Timeframe: "1m", FromDate: "2024-01-01", ToDate: "2024-01-01"},
			findErr:     ErrDB,
			expectedErr: ErrDB,
			expectFind:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockCandleRepository{
				FindFunc: func(ctx context.Context, q entity.CandleQuery) ([]entity.Candle, error) {
					if tc.findErr != nil {
						return nil, tc.findErr
					}
					return expected, nil
				},
			}
			uc := usecase.NewCandlesUsecase(repo)

			got, err := uc.GetCandles(ctx, tc.query)

			if tc.expectedErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.expectedErr), "expected %v, got %v", tc.expectedErr, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, expected, got)
				assert.Equal(t, tc.expectedQuery, repo.LastQuery)
			}
			if tc.expectFind {
				assert.Equal(t, 1, repo.FindCalls)
			} else {
				assert.Equal(t, 0, repo.FindCalls)
			}
		})
	}
}

func TestCandlesUsecase_GetSummary(t *testing.T) {
	want := entity.Summary{TotalCandles: 3, Pairs: []string{"SOLUSDT"}, Timeframes: []string{"1m"}}
	repo := &mockCandleRepository{
		SummaryFunc: func(ctx context.Context) (entity.Summary, error) { return want, nil },
	}

	got, err := usecase.NewCandlesUsecase(repo).GetSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, repo.SummaryCalls)
}
