package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/rustyeddy/tradelog/journal"
	"github.com/rustyeddy/tradelog/risk"
	"github.com/rustyeddy/tradelog/tradebook"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "tradelog",
	})
}

func (s *Server) handleInstruments(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Instruments())
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Accounts())
}

// handleCalculate previews the derived fields of a trade without saving it.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.svc.Preview(req.AccountID, req.input())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	user, acct := userID(r.Context()), chi.URLParam(r, "accountID")

	var (
		recs []journal.TradeRecord
		err  error
	)
	if q := r.URL.Query().Get("limit"); q != "" {
		n, perr := strconv.Atoi(q)
		if perr != nil || n <= 0 {
			s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a positive integer"})
			return
		}
		recs, err = s.svc.Recent(r.Context(), user, acct, n)
	} else {
		recs, err = s.svc.List(r.Context(), user, acct)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toResponses(recs))
}

func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	d, cleanup, err := s.readDraft(w, r)
	defer cleanup()
	if err != nil {
		s.writeError(w, err)
		return
	}
	saved, err := s.svc.Submit(r.Context(), userID(r.Context()), chi.URLParam(r, "accountID"), d)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, savedResponse{Trade: toResponse(*saved.Record), Warnings: saved.Warnings})
}

func (s *Server) handleGetTrade(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Get(r.Context(), userID(r.Context()), chi.URLParam(r, "accountID"), chi.URLParam(r, "tradeID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toResponse(*rec))
}

func (s *Server) handleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	d, cleanup, err := s.readDraft(w, r)
	defer cleanup()
	if err != nil {
		s.writeError(w, err)
		return
	}
	saved, err := s.svc.Edit(r.Context(), userID(r.Context()), chi.URLParam(r, "accountID"), chi.URLParam(r, "tradeID"), d)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, savedResponse{Trade: toResponse(*saved.Record), Warnings: saved.Warnings})
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), userID(r.Context()), chi.URLParam(r, "accountID"), chi.URLParam(r, "tradeID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	acct := chi.URLParam(r, "accountID")
	recs, err := s.svc.List(r.Context(), userID(r.Context()), acct)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", acct+"-trades.csv"))
	if err := journal.WriteCSV(w, recs); err != nil {
		s.log.Error().Err(err).Str("account", acct).Msg("CSV export failed")
	}
}

func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	days, err := s.svc.Days(r.Context(), userID(r.Context()), chi.URLParam(r, "accountID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	year, ok := s.yearParam(w, r)
	if !ok {
		return
	}
	m, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || m < 1 || m > 12 {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "month must be between 1 and 12"})
		return
	}
	agg, err := s.svc.Month(r.Context(), userID(r.Context()), chi.URLParam(r, "accountID"), year, time.Month(m))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, agg)
}

func (s *Server) handleYear(w http.ResponseWriter, r *http.Request) {
	year, ok := s.yearParam(w, r)
	if !ok {
		return
	}
	agg, err := s.svc.Year(r.Context(), userID(r.Context()), chi.URLParam(r, "accountID"), year)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, agg)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Summary(r.Context(), userID(r.Context()), chi.URLParam(r, "accountID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleEquity(w http.ResponseWriter, r *http.Request) {
	pts, err := s.svc.Equity(r.Context(), userID(r.Context()), chi.URLParam(r, "accountID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pts)
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	ms, err := s.svc.Months(r.Context(), userID(r.Context()), chi.URLParam(r, "accountID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ms)
}

func (s *Server) yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 || year > 9999 {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "year must be between 1 and 9999"})
		return 0, false
	}
	return year, true
}

// badRequest is a malformed body, as opposed to a rule violation.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

// decode reads a JSON body into v and validates it.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		return badRequest{msg: "invalid JSON body: " + err.Error()}
	}
	return s.validate.Struct(v)
}

// readDraft accepts either a JSON trade body or a multipart form with the
// trade JSON in the "trade" field and optional "before" and "after" files.
// cleanup must be called once the draft's images have been consumed.
func (s *Server) readDraft(w http.ResponseWriter, r *http.Request) (tradebook.Draft, func(), error) {
	noop := func() {}
	var req tradeRequest

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := s.decode(w, r, &req); err != nil {
			return tradebook.Draft{}, noop, err
		}
		return req.draft(), noop, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return tradebook.Draft{}, noop, err
		}
		return tradebook.Draft{}, noop, badRequest{msg: "invalid multipart form: " + err.Error()}
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	raw := r.FormValue("trade")
	if raw == "" {
		return tradebook.Draft{}, cleanup, badRequest{msg: "multipart form needs a trade field"}
	}
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return tradebook.Draft{}, cleanup, badRequest{msg: "invalid trade JSON: " + err.Error()}
	}
	if err := s.validate.Struct(&req); err != nil {
		return tradebook.Draft{}, cleanup, err
	}

	d := req.draft()
	var files []multipart.File
	for _, name := range []string{"before", "after"} {
		f, hdr, err := r.FormFile(name)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return tradebook.Draft{}, cleanup, badRequest{msg: name + " file: " + err.Error()}
		}
		files = append(files, f)
		img := &tradebook.Image{Filename: hdr.Filename, ContentType: hdr.Header.Get("Content-Type"), Body: f}
		if name == "before" {
			d.Before = img
		} else {
			d.After = img
		}
	}
	return d, func() {
		for _, f := range files {
			_ = f.Close()
		}
		cleanup()
	}, nil
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError maps service errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		ve  *risk.ValidationError
		fe  validator.ValidationErrors
		br  badRequest
		se  *journal.StorageError
		mbe *http.MaxBytesError
	)
	switch {
	case errors.As(err, &fe):
		fields := make(map[string]string, len(fe))
		for _, f := range fe {
			fields[f.Field()] = fieldMessage(f)
		}
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid trade input", Fields: fields})
	case errors.As(err, &ve):
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Error(), Fields: ve.Fields()})
	case errors.As(err, &mbe):
		s.writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large"})
	case errors.As(err, &br):
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: br.msg})
	case errors.Is(err, tradebook.ErrUnknownAccount), errors.Is(err, tradebook.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, tradebook.ErrNotComputable):
		s.writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errors.As(err, &se):
		s.log.Error().Err(err).Msg("storage failure")
		s.writeJSON(w, http.StatusBadGateway, errorBody{Error: "trade storage is unavailable"})
	default:
		s.log.Error().Err(err).Msg("request failed")
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func fieldMessage(f validator.FieldError) string {
	switch f.Tag() {
	case "required":
		return f.Field() + " is required"
	case "oneof":
		return f.Field() + " must be one of: " + f.Param()
	case "gt":
		return f.Field() + " must be greater than " + f.Param()
	case "gte":
		return f.Field() + " must be at least " + f.Param()
	case "datetime":
		return f.Field() + " must be a date like " + f.Param()
	case "max":
		return f.Field() + " must be at most " + f.Param() + " characters"
	}
	return f.Field() + " is invalid"
}
