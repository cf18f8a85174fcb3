package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"libretto/internal/core"
	"libretto/internal/icons"
	"libretto/internal/log"
	"libretto/internal/stats"
)

type transactionJSON struct {
	ID           int64   `json:"id"`
	AmountCents  int64   `json:"amount_cents"`
	Amount       float64 `json:"amount"`
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	CategoryIcon string  `json:"category_icon"`
	Type         string  `json:"type"`
	Note         string  `json:"note,omitempty"`
	DateMs       int64   `json:"date_ms"`
	BookID       int64   `json:"book_id"`
}

type categoryJSON struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IconName string `json:"icon_name"`
	Color    string `json:"color"`
	Type     string `json:"type"`
	IsCustom bool   `json:"is_custom"`
}

type rankingJSON struct {
	Name        string  `json:"name"`
	AmountCents int64   `json:"amount_cents"`
	Amount      float64 `json:"amount"`
	Percentage  float64 `json:"percentage"`
	IconName    string  `json:"icon_name"`
	Color       string  `json:"color"`
}

type pieShareJSON struct {
	Name        string  `json:"name"`
	AmountCents int64   `json:"amount_cents"`
	Amount      float64 `json:"amount"`
	Percentage  float64 `json:"percentage"`
	Color       string  `json:"color"`
}

type statsResponse struct {
	Type         string         `json:"type"`
	Range        string         `json:"range"`
	StartMs      int64          `json:"start_ms"`
	EndMs        int64          `json:"end_ms"`
	TotalCents   int64          `json:"total_cents"`
	Total        float64        `json:"total"`
	AverageCents float64        `json:"average_cents_per_day"`
	Ranking      []rankingJSON  `json:"ranking"`
	Series       []float64      `json:"series"`
	PieShares    []pieShareJSON `json:"pie_shares"`
}

type overviewResponse struct {
	Filter       string            `json:"filter"`
	StartMs      int64             `json:"start_ms"`
	EndMs        int64             `json:"end_ms"`
	IncomeCents  int64             `json:"income_cents"`
	Income       float64           `json:"income"`
	ExpenseCents int64             `json:"expense_cents"`
	Expense      float64           `json:"expense"`
	BalanceCents int64             `json:"balance_cents"`
	Balance      float64           `json:"balance"`
	Transactions []transactionJSON `json:"transactions"`
}

func toTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:           tx.ID,
		AmountCents:  tx.Amount.Cents,
		Amount:       tx.Amount.Euros(),
		CategoryID:   tx.CategoryID,
		CategoryName: tx.CategoryName,
		CategoryIcon: tx.CategoryIcon,
		Type:         string(tx.Type),
		Note:         tx.Note,
		DateMs:       tx.Date.UnixMilli(),
		BookID:       tx.BookID,
	}
}

func toStatsResponse(res core.Result) statsResponse {
	out := statsResponse{
		Type:         string(res.Type),
		Range:        string(res.Kind),
		StartMs:      res.Start.UnixMilli(),
		EndMs:        res.End.UnixMilli(),
		TotalCents:   res.Total.Cents,
		Total:        res.Total.Euros(),
		AverageCents: res.Average,
		Ranking:      make([]rankingJSON, 0, len(res.Ranking)),
		Series:       make([]float64, 0, len(res.Series)),
		PieShares:    make([]pieShareJSON, 0, len(res.PieShares)),
	}
	for _, r := range res.Ranking {
		out.Ranking = append(out.Ranking, rankingJSON{
			Name:        r.Name,
			AmountCents: r.Amount.Cents,
			Amount:      r.Amount.Euros(),
			Percentage:  r.Percentage,
			IconName:    r.IconName,
			Color:       icons.Color(r.IconName),
		})
	}
	for _, m := range res.Series {
		out.Series = append(out.Series, m.Euros())
	}
	for i, p := range res.PieShares {
		// Pie colors follow the ranking's icon when the names line up,
		// falling back to the neutral default.
		color := icons.DefaultColor
		if i < len(res.Ranking) && res.Ranking[i].Name == p.Name {
			color = icons.Color(res.Ranking[i].IconName)
		}
		out.PieShares = append(out.PieShares, pieShareJSON{
			Name:        p.Name,
			AmountCents: p.Amount.Cents,
			Amount:      p.Amount.Euros(),
			Percentage:  p.Percentage,
			Color:       color,
		})
	}
	return out
}

func toOverviewResponse(res stats.OverviewResult) overviewResponse {
	out := overviewResponse{
		Filter:       string(res.Filter),
		StartMs:      res.Start.UnixMilli(),
		EndMs:        res.End.UnixMilli(),
		IncomeCents:  res.Income.Cents,
		Income:       res.Income.Euros(),
		ExpenseCents: res.Expense.Cents,
		Expense:      res.Expense.Euros(),
		BalanceCents: res.Income.Cents - res.Expense.Cents,
		Transactions: make([]transactionJSON, 0, len(res.Transactions)),
	}
	out.Balance = core.Money{Cents: out.BalanceCents}.Euros()
	for _, tx := range res.Transactions {
		out.Transactions = append(out.Transactions, toTransactionJSON(tx))
	}
	return out
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// respondStoreError maps domain errors onto HTTP statuses.
func (s *Server) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, "transaction not found")
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrMissingCategory),
		errors.Is(err, core.ErrUnknownType),
		errors.Is(err, core.ErrZeroDate):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		structured := log.NewStructuredLogger(log.FromContext(r.Context()))
		structured.LogError(r.Context(), "Request failed", err, log.ComponentHTTP, r.Method,
			log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", ""))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// --- overview ---

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	sel := s.overview.Selector()
	if v := r.URL.Query().Get("filter"); v != "" {
		kind := core.RangeKind(v)
		if kind != core.RangeWeek && kind != core.RangeMonth {
			respondError(w, http.StatusBadRequest, "filter must be week or month")
			return
		}
		sel.Filter = kind
	}
	if v := r.URL.Query().Get("anchor"); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "anchor must be unix milliseconds")
			return
		}
		sel.Anchor = time.UnixMilli(ms)
	}

	start, _ := core.ResolveRange(sel.Filter, sel.Anchor, time.Time{}, time.Time{})
	key := overviewCacheKey(sel.Filter, start)
	if cached, ok := s.overviewCache.Get(key); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	res, err := s.overview.Query(r.Context(), sel)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	resp := toOverviewResponse(res)
	s.overviewCache.Set(key, resp)
	respondJSON(w, http.StatusOK, resp)
}

func overviewCacheKey(filter core.RangeKind, start time.Time) string {
	return string(filter) + ":" + strconv.FormatInt(start.UnixMilli(), 10)
}

// invalidateOverview drops the cached periods a mutated record falls into,
// one key per filter.
func (s *Server) invalidateOverview(date time.Time) {
	for _, kind := range []core.RangeKind{core.RangeWeek, core.RangeMonth} {
		start, _ := core.ResolveRange(kind, date, time.Time{}, time.Time{})
		s.overviewCache.Delete(overviewCacheKey(kind, start))
	}
}

// --- statistics ---

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	res, err := s.statistics.Snapshot(r.Context())
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toStatsResponse(res))
}

type selectorRequest struct {
	Type          *string `json:"type"`
	Range         *string `json:"range"`
	Offset        *int    `json:"offset"`
	CustomStartMs *int64  `json:"custom_start_ms"`
	CustomEndMs   *int64  `json:"custom_end_ms"`
}

// handleStatsSelector applies selector changes to the statistics pipeline.
// The recompute is asynchronous; subscribers see the result on the stream.
func (s *Server) handleStatsSelector(w http.ResponseWriter, r *http.Request) {
	var req selectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Type != nil {
		t := core.Type(*req.Type)
		if err := t.Validate(); err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.statistics.SetType(t)
	}

	if req.Range != nil {
		kind := core.RangeKind(*req.Range)
		if err := kind.Validate(); err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		switch {
		case kind == core.RangeCustom:
			if req.CustomStartMs == nil || req.CustomEndMs == nil {
				respondError(w, http.StatusUnprocessableEntity, "custom range requires custom_start_ms and custom_end_ms")
				return
			}
			s.statistics.SetCustomRange(time.UnixMilli(*req.CustomStartMs), time.UnixMilli(*req.CustomEndMs))
		case req.Offset != nil:
			switch kind {
			case core.RangeWeek:
				s.statistics.NavigateWeek(*req.Offset)
			case core.RangeMonth:
				s.statistics.NavigateMonth(*req.Offset)
			case core.RangeYear:
				s.statistics.NavigateYear(*req.Offset)
			}
		default:
			s.statistics.SetRangeKind(kind)
		}
	}

	w.WriteHeader(http.StatusAccepted)
}

// --- transactions ---

type transactionRequest struct {
	Amount       string `json:"amount"`
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	CategoryIcon string `json:"category_icon"`
	Type         string `json:"type"`
	Note         string `json:"note"`
	DateMs       int64  `json:"date_ms"`
	BookID       int64  `json:"book_id"`
}

func (req transactionRequest) toCore() (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		Amount:       core.Money{Cents: cents},
		CategoryID:   req.CategoryID,
		CategoryName: req.CategoryName,
		CategoryIcon: req.CategoryIcon,
		Type:         core.Type(req.Type),
		Note:         req.Note,
		BookID:       req.BookID,
	}
	if req.DateMs != 0 {
		tx.Date = time.UnixMilli(req.DateMs)
	}
	return tx, tx.Validate()
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tx, err := req.toCore()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.svc.Create(r.Context(), tx)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	tx.ID = id
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogTransactionSaved(r.Context(), id, string(tx.Type), tx.Amount.Cents, tx.CategoryName)
	s.invalidateOverview(tx.Date)
	respondJSON(w, http.StatusCreated, toTransactionJSON(tx))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	tx, err := s.svc.Get(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toTransactionJSON(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tx, err := req.toCore()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	tx.ID = id

	// The record may move between periods, so evict both the old and the
	// new one.
	if prev, err := s.svc.Get(r.Context(), id); err == nil {
		s.invalidateOverview(prev.Date)
	}

	if err := s.svc.Update(r.Context(), tx); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	s.invalidateOverview(tx.Date)
	respondJSON(w, http.StatusOK, toTransactionJSON(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}
	if tx, err := s.svc.Get(r.Context(), id); err == nil {
		s.invalidateOverview(tx.Date)
	}
	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- categories ---

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	t := core.Type(r.URL.Query().Get("type"))
	if t == "" {
		t = core.Expense
	}
	cats, err := s.svc.Categories(r.Context(), t)
	if err != nil {
		if errors.Is(err, core.ErrUnknownType) {
			respondError(w, http.StatusBadRequest, "type must be income or expense")
			return
		}
		s.respondStoreError(w, r, err)
		return
	}
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryJSON{
			ID:       c.ID,
			Name:     c.Name,
			IconName: c.IconName,
			Color:    icons.Color(c.IconName),
			Type:     string(c.Type),
			IsCustom: c.IsCustom,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

type categoryRequest struct {
	Name     string `json:"name"`
	IconName string `json:"icon_name"`
	Type     string `json:"type"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	c := core.Category{
		Name:     req.Name,
		IconName: req.IconName,
		Type:     core.Type(req.Type),
	}
	if err := c.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	id, err := s.svc.CreateCategory(r.Context(), c)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	c.ID = id
	c.IsCustom = true
	respondJSON(w, http.StatusCreated, categoryJSON{
		ID:       c.ID,
		Name:     c.Name,
		IconName: c.IconName,
		Color:    icons.Color(c.IconName),
		Type:     string(c.Type),
		IsCustom: true,
	})
}
