// Package desk serves pools over HTTP: summaries, pro-forma quotes and payoff
// curves, and settlement runs that are journaled and broadcast to WebSocket
// subscribers.
//
// All monetary values use shopspring/decimal. Stakes are seeded from
// configuration; the desk never accepts new stakes over the network.
package desk

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trustpooler/pool-engine/internal/descriptor"
	"github.com/trustpooler/pool-engine/internal/limits"
	"github.com/trustpooler/pool-engine/internal/metrics"
	"github.com/trustpooler/pool-engine/internal/model"
	"github.com/trustpooler/pool-engine/internal/pool"
	"github.com/trustpooler/pool-engine/internal/store"
)

// Service handles pool operations. Each Book guards its own ledger; the
// service holds no lock of its own.
type Service struct {
	registry *Registry
	store    store.Store
	limiter  *limits.ExposureLimiter
	validate *validator.Validate
	wsHub    *WSHub // optional WebSocket hub for settlement broadcasts
}

// NewService creates a new desk service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(reg *Registry, st store.Store, limiter *limits.ExposureLimiter, hub *WSHub) *Service {
	return &Service{
		registry: reg,
		store:    st,
		limiter:  limiter,
		validate: validator.New(),
		wsHub:    hub,
	}
}

// --- Request types ---

// QuoteRequest is the JSON body for POST /pools/{poolID}/quote.
type QuoteRequest struct {
	Event  string          `json:"event" validate:"required"` // "no_default" or "LONG@55"
	Amount decimal.Decimal `json:"amount"`
	Level  string          `json:"level" validate:"required"` // closing outcome or price
}

// CurveRequest is the JSON body for POST /pools/{poolID}/curve.
type CurveRequest struct {
	Event  string          `json:"event" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// SettleRequest is the JSON body for POST /pools/{poolID}/settle.
type SettleRequest struct {
	Level string `json:"level" validate:"required"`
}

// --- HTTP Handlers ---

// ListPools handles GET /api/v1/pools
func (s *Service) ListPools(w http.ResponseWriter, r *http.Request) {
	books := s.registry.List()
	summaries := make([]model.PoolSummary, 0, len(books))
	for _, b := range books {
		summaries = append(summaries, b.Summary())
	}
	writeJSON(w, http.StatusOK, summaries)
}

// GetPool handles GET /api/v1/pools/{poolID}
func (s *Service) GetPool(w http.ResponseWriter, r *http.Request) {
	b, ok := s.book(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, b.Summary())
}

// GetWinning handles GET /api/v1/pools/{poolID}/winning?level=
func (s *Service) GetWinning(w http.ResponseWriter, r *http.Request) {
	b, ok := s.book(w, r)
	if !ok {
		return
	}
	level := r.URL.Query().Get("level")
	if level == "" {
		writeError(w, "level is required", http.StatusBadRequest)
		return
	}

	summary, err := b.Winning(level)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Quote handles POST /api/v1/pools/{poolID}/quote
// Prices a hypothetical stake without touching the pool.
func (s *Service) Quote(w http.ResponseWriter, r *http.Request) {
	b, ok := s.book(w, r)
	if !ok {
		return
	}
	var req QuoteRequest
	if !s.decode(w, r, &req) {
		return
	}

	if !s.withinLimits(w, b, req.Event, req.Amount) {
		return
	}

	q, err := b.Quote(req.Event, req.Amount, req.Level)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	metrics.QuotesTotal.WithLabelValues(b.Kind, "quote").Inc()
	writeJSON(w, http.StatusOK, q)
}

// Curve handles POST /api/v1/pools/{poolID}/curve
// The curve prices the same hypothetical stake as a quote, so the same
// exposure limits apply.
func (s *Service) Curve(w http.ResponseWriter, r *http.Request) {
	b, ok := s.book(w, r)
	if !ok {
		return
	}
	var req CurveRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.withinLimits(w, b, req.Event, req.Amount) {
		return
	}

	c, err := b.Curve(req.Event, req.Amount)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	metrics.QuotesTotal.WithLabelValues(b.Kind, "curve").Inc()
	writeJSON(w, http.StatusOK, c)
}

// Settle handles POST /api/v1/pools/{poolID}/settle
// Settles the pool at the requested level, journals the result and
// broadcasts it. The pool itself is left unchanged.
func (s *Service) Settle(w http.ResponseWriter, r *http.Request) {
	b, ok := s.book(w, r)
	if !ok {
		return
	}
	var req SettleRequest
	if !s.decode(w, r, &req) {
		return
	}

	start := time.Now()
	st, err := b.Settle(req.Level)
	metrics.SettlementLatency.WithLabelValues(b.Kind).Observe(time.Since(start).Seconds())
	metrics.SettlementsTotal.WithLabelValues(b.Kind, outcomeLabel(err)).Inc()
	if err != nil {
		if pool.IsInternal(err) {
			metrics.ConservationViolations.WithLabelValues(b.Kind).Inc()
		}
		writeError(w, err.Error(), statusFor(err))
		return
	}

	st.ID = uuid.New().String()
	st.CreatedAt = time.Now().UTC()
	if err := s.store.InsertSettlement(r.Context(), st); err != nil {
		slog.Error("settlement journal failed", "pool", b.ID, "err", err)
		writeError(w, "failed to record settlement", http.StatusInternalServerError)
		return
	}

	slog.Info("pool settled",
		"settlement_id", st.ID,
		"pool", b.ID,
		"kind", b.Kind,
		"level", st.Level,
		"winners", len(st.Payouts),
		"total_pool", st.TotalPool.String(),
		"total_payout", st.TotalPayout.String(),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:         "pool_settled",
			SettlementID: st.ID,
			PoolID:       b.ID,
			Kind:         b.Kind,
			Level:        st.Level,
			TotalPool:    st.TotalPool.String(),
			TotalPayout:  st.TotalPayout.String(),
		})
	}

	writeJSON(w, http.StatusCreated, st)
}

// ListSettlements handles GET /api/v1/pools/{poolID}/settlements
func (s *Service) ListSettlements(w http.ResponseWriter, r *http.Request) {
	b, ok := s.book(w, r)
	if !ok {
		return
	}
	settlements, err := s.store.ListSettlementsByPool(r.Context(), b.ID)
	if err != nil {
		writeError(w, "failed to list settlements", http.StatusInternalServerError)
		return
	}
	if settlements == nil {
		settlements = []model.Settlement{}
	}
	writeJSON(w, http.StatusOK, settlements)
}

// GetSettlement handles GET /api/v1/settlements/{settlementID}
func (s *Service) GetSettlement(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.GetSettlement(r.Context(), chi.URLParam(r, "settlementID"))
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// --- helpers ---

// withinLimits checks a hypothetical stake against the exposure limiter and
// writes the error response when it is rejected.
func (s *Service) withinLimits(w http.ResponseWriter, b *Book, event string, amount decimal.Decimal) bool {
	category, totals, err := b.CategoryOf(event)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return false
	}
	if s.limiter == nil {
		return true
	}
	if err := s.limiter.Check(category, amount, totals); err != nil {
		metrics.QuoteLimitRejections.Inc()
		writeError(w, err.Error(), statusFor(err))
		return false
	}
	return true
}

func (s *Service) book(w http.ResponseWriter, r *http.Request) (*Book, bool) {
	b, err := s.registry.Get(chi.URLParam(r, "poolID"))
	if err != nil {
		writeError(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return b, true
}

func (s *Service) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, validationMessage(err), http.StatusBadRequest)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, strings.ToLower(fe.Field())+" is "+fe.Tag())
	}
	return strings.Join(msgs, "; ")
}

// statusFor maps engine and journal errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBookNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pool.ErrNoWinningStake), errors.Is(err, pool.ErrEmptyLedger):
		return http.StatusUnprocessableEntity
	case errors.Is(err, descriptor.ErrInvalidDescriptor), pool.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, limits.ErrQuoteTooLarge), errors.Is(err, limits.ErrCategoryExposureExceeded):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, pool.ErrNoWinningStake):
		return "no_winner"
	case errors.Is(err, pool.ErrEmptyLedger):
		return "empty"
	case pool.IsInternal(err):
		return "violation"
	}
	return "error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
