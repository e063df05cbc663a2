package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"chesswager/models"
	"chesswager/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) Healthy(ctx context.Context) error { return f(ctx) }

type apiMocks struct {
	resolution *service.MockResolutionService
	settlement *service.MockSettlementService
	audit      *service.MockAuditService
}

func newTestServer(health HealthChecker) (*Server, *apiMocks) {
	m := &apiMocks{
		resolution: new(service.MockResolutionService),
		settlement: new(service.MockSettlementService),
		audit:      new(service.MockAuditService),
	}
	s := NewServer(Dependencies{
		Resolution: m.resolution,
		Settlement: m.settlement,
		Audit:      m.audit,
		Health:     health,
	})
	return s, m
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestResolve(t *testing.T) {
	t.Run("settled", func(t *testing.T) {
		s, m := newTestServer(nil)
		m.resolution.On("ResolveWager", mock.Anything, int64(12)).Return(&models.ResolutionResult{
			WagerID: 12,
			Status:  models.ResolutionSettled,
		}, nil)

		rec := do(t, s, http.MethodPost, "/wagers/12/resolve", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "settled", body["status"])
		m.resolution.AssertExpectations(t)
	})

	t.Run("archive unavailable", func(t *testing.T) {
		s, m := newTestServer(nil)
		m.resolution.On("ResolveWager", mock.Anything, int64(12)).
			Return(nil, fmt.Errorf("%w: fetch alice 2024/05: %w", service.ErrTransientFetch, context.DeadlineExceeded))

		rec := do(t, s, http.MethodPost, "/wagers/12/resolve", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		s, m := newTestServer(nil)
		rec := do(t, s, http.MethodPost, "/wagers/abc/resolve", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		m.resolution.AssertNotCalled(t, "ResolveWager", mock.Anything, mock.Anything)
	})
}

func TestSettle(t *testing.T) {
	t.Run("manual settlement", func(t *testing.T) {
		s, m := newTestServer(nil)
		m.settlement.On("SettleWager", mock.Anything, int64(4), models.OutcomeContender).Return(&models.SettlementReceipt{
			WagerID:     4,
			Outcome:     models.OutcomeContender,
			FinalStatus: models.WagerStatusLoss,
		}, nil)

		rec := do(t, s, http.MethodPost, "/wagers/4/settle", `{"outcome":"contender"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "loss", decode(t, rec)["final_status"])
	})

	t.Run("missing body", func(t *testing.T) {
		s, _ := newTestServer(nil)
		rec := do(t, s, http.MethodPost, "/wagers/4/settle", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid role", func(t *testing.T) {
		s, m := newTestServer(nil)
		m.settlement.On("SettleWager", mock.Anything, int64(4), models.OutcomeAnomaly).
			Return(nil, fmt.Errorf("%w: anomaly", service.ErrInvalidRole))

		rec := do(t, s, http.MethodPost, "/wagers/4/settle", `{"outcome":"anomaly"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("already settled", func(t *testing.T) {
		s, m := newTestServer(nil)
		m.settlement.On("SettleWager", mock.Anything, int64(4), models.OutcomeDraw).
			Return(nil, fmt.Errorf("%w: wager 4 is draw", service.ErrPreconditionFailed))

		rec := do(t, s, http.MethodPost, "/wagers/4/settle", `{"outcome":"draw"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("loser cannot cover stake", func(t *testing.T) {
		s, m := newTestServer(nil)
		m.settlement.On("SettleWager", mock.Anything, int64(4), models.OutcomeChallenger).
			Return(nil, fmt.Errorf("failed to deduct from loser: user 2: %w", service.ErrInsufficientBalance))

		rec := do(t, s, http.MethodPost, "/wagers/4/settle", `{"outcome":"challenger"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, decode(t, rec)["error"], "insufficient balance")
	})
}

func TestLedger(t *testing.T) {
	t.Run("lists entries", func(t *testing.T) {
		s, m := newTestServer(nil)
		m.audit.On("GetLedgerByWager", mock.Anything, int64(8)).Return([]*models.LedgerEntry{
			{ID: 1, WagerID: 8, Amount: 500},
			{ID: 2, WagerID: 8, Amount: -500},
		}, nil)

		rec := do(t, s, http.MethodGet, "/wagers/8/ledger", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode(t, rec)["entries"], 2)
	})

	t.Run("unknown wager", func(t *testing.T) {
		s, m := newTestServer(nil)
		m.audit.On("GetLedgerByWager", mock.Anything, int64(8)).Return(nil, fmt.Errorf("wager 8: %w", service.ErrWagerNotFound))

		rec := do(t, s, http.MethodGet, "/wagers/8/ledger", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("internal errors are masked", func(t *testing.T) {
		s, m := newTestServer(nil)
		m.audit.On("GetLedgerByWager", mock.Anything, int64(8)).Return(nil, errors.New("pq: password authentication failed"))

		rec := do(t, s, http.MethodGet, "/wagers/8/ledger", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal error", decode(t, rec)["error"])
	})
}

func TestGetSettlementByLink(t *testing.T) {
	link := "https://www.chess.com/game/live/1"

	t.Run("found", func(t *testing.T) {
		s, m := newTestServer(nil)
		wagerID := int64(3)
		m.audit.On("GetSettlementByLink", mock.Anything, link).Return(&models.SettlementRecord{ID: 1, Link: link, WagerID: &wagerID}, nil)

		rec := do(t, s, http.MethodGet, "/settlements?link="+url.QueryEscape(link), "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, link, decode(t, rec)["link"])
	})

	t.Run("not found", func(t *testing.T) {
		s, m := newTestServer(nil)
		m.audit.On("GetSettlementByLink", mock.Anything, link).Return(nil, nil)

		rec := do(t, s, http.MethodGet, "/settlements?link="+url.QueryEscape(link), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("link required", func(t *testing.T) {
		s, _ := newTestServer(nil)
		rec := do(t, s, http.MethodGet, "/settlements", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(healthFunc(func(context.Context) error { return nil }))
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", "").Code)

	down, _ := newTestServer(healthFunc(func(context.Context) error { return errors.New("connection refused") }))
	assert.Equal(t, http.StatusServiceUnavailable, do(t, down, http.MethodGet, "/healthz", "").Code)
}
