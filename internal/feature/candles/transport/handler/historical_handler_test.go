package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candle_catalog/internal/feature/candles/domain"
	"candle_catalog/internal/feature/candles/domain/entity"
	"candle_catalog/internal/feature/candles/transport/handler"
)

type mockBackfillUsecase struct {
	RunFunc func(ctx context.Context, req entity.BackfillRequest) (entity.BackfillResult, error)
	calls   int
}

func (m *mockBackfillUsecase) Run(ctx context.Context, req entity.BackfillRequest) (entity.BackfillResult, error) {
	m.calls++
	return m.RunFunc(ctx, req)
}

func setupHistoricalRouter(bf *mockBackfillUsecase, cu *mockCandlesUsecase) *gin.Engine {
	h := handler.NewHistoricalHandler(bf, cu)
	r := gin.New()
	r.POST("/historical", h.Post)
	r.GET("/historical", h.Summary)
	return r
}

func postJSON(r *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/historical", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHistoricalHandler_CollectByDays(t *testing.T) {
	bf := &mockBackfillUsecase{
		RunFunc: func(_ context.Context, req entity.BackfillRequest) (entity.BackfillResult, error) {
			assert.Equal(t, entity.BackfillRequest{Pairs: []string{"SOLUSDT"}, Timeframes: []string{"1m"}, Days: 3}, req)
			return entity.BackfillResult{RunID: "run-1", Success: true, Message: "done", TotalFound: 4320, Saved: 4320}, nil
		},
	}
	r := setupHistoricalRouter(bf, &mockCandlesUsecase{})

	w := postJSON(r, `{"action":"collect_by_days","pairs":["SOLUSDT"],"timeframes":["1m"],"days":3,"startDate":"2024-01-01"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var res entity.BackfillResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, 4320, res.Saved)
	assert.Equal(t, "run-1", res.RunID)
}

func TestHistoricalHandler_CollectByRange(t *testing.T) {
	bf := &mockBackfillUsecase{
		RunFunc: func(_ context.Context, req entity.BackfillRequest) (entity.BackfillResult, error) {
			assert.Equal(t, "2024-01-01", req.StartDate)
			assert.Equal(t, "2024-01-03", req.EndDate)
			assert.Zero(t, req.Days)
			return entity.BackfillResult{Success: true}, nil
		},
	}
	r := setupHistoricalRouter(bf, &mockCandlesUsecase{})

	w := postJSON(r, `{"action":"collect_by_range","pairs":["BTCUSDT"],"timeframes":["1h"],"days":9,"startDate":"2024-01-01","endDate":"2024-01-03"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, bf.calls)
}

func TestHistoricalHandler_DetachesFromClientCancellation(t *testing.T) {
	bf := &mockBackfillUsecase{
		RunFunc: func(ctx context.Context, _ entity.BackfillRequest) (entity.BackfillResult, error) {
			assert.NoError(t, ctx.Err())
			return entity.BackfillResult{Success: true}, nil
		},
	}
	r := setupHistoricalRouter(bf, &mockCandlesUsecase{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/historical",
		bytes.NewBufferString(`{"action":"collect_by_days","pairs":["BTCUSDT"],"timeframes":["1h"],"days":1}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, bf.calls)
}

func TestHistoricalHandler_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		runErr   error
		wantRuns int
	}{
		{"malformed json", `{"action":`, nil, 0},
		{"missing action", `{"pairs":["BTCUSDT"]}`, nil, 0},
		{"unknown action", `{"action":"delete_everything"}`, nil, 0},
		{"range without dates", `{"action":"collect_by_range","pairs":["BTCUSDT"],"timeframes":["1h"]}`, nil, 0},
		{"days above maximum", `{"action":"collect_by_days","pairs":["BTCUSDT"],"timeframes":["1d"],"days":213510}`, nil, 0},
		{"negative days", `{"action":"collect_by_days","pairs":["BTCUSDT"],"timeframes":["1d"],"days":-1}`, nil, 0},
		{
			"validation failure from engine",
			`{"action":"collect_by_days","pairs":[],"timeframes":["1h"],"days":1}`,
			fmt.Errorf("%w: at least one pair is required", domain.ErrInvalidRequest),
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bf := &mockBackfillUsecase{
				RunFunc: func(context.Context, entity.BackfillRequest) (entity.BackfillResult, error) {
					return entity.BackfillResult{Success: false, Message: tt.runErr.Error()}, tt.runErr
				},
			}
			r := setupHistoricalRouter(bf, &mockCandlesUsecase{})

			w := postJSON(r, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantRuns, bf.calls)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestHistoricalHandler_Summary(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sum := entity.Summary{
		TotalCandles: 4320,
		Pairs:        []string{"SOLUSDT"},
		Timeframes:   []string{"1m"},
		DateRange:    &entity.DateRange{Start: start, End: start.Add(72 * time.Hour)},
	}
	cu := &mockCandlesUsecase{
		GetSummaryFunc: func(context.Context) (entity.Summary, error) { return sum, nil },
	}
	r := setupHistoricalRouter(&mockBackfillUsecase{}, cu)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/historical", nil),
		func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/historical", bytes.NewBufferString(`{"action":"get_summary"}`))
			req.Header.Set("Content-Type", "application/json")
			return req
		}(),
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var got entity.Summary
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, int64(4320), got.TotalCandles)
		assert.Equal(t, []string{"SOLUSDT"}, got.Pairs)
		require.NotNil(t, got.DateRange)
		assert.True(t, got.DateRange.Start.Equal(start))
	}
	assert.Equal(t, 2, cu.calls)
}

func TestHistoricalHandler_SummaryFailure(t *testing.T) {
	cu := &mockCandlesUsecase{
		GetSummaryFunc: func(context.Context) (entity.Summary, error) {
			return entity.Summary{}, errors.New("connection reset")
		},
	}
	r := setupHistoricalRouter(&mockBackfillUsecase{}, cu)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/historical", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
