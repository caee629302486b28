package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/pipeline"
)

// handleScanBill accepts a multipart upload in the "file" field and runs
// the extraction pipeline on it.
func (s *Server) handleScanBill(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.deps.MaxUploadBytes)

	if err := r.ParseMultipartForm(s.deps.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeErrorStatus(w, http.StatusRequestEntityTooLarge, string(core.KindValidation), "uploaded file is too large")
			return
		}
		writeError(w, r, core.Fail(core.KindInputMissing, "a multipart form with a \"file\" field is required", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, core.Fail(core.KindInputMissing, "no image supplied", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, core.Fail(core.KindValidation, "could not read uploaded file", err))
		return
	}

	res, err := s.deps.Scanner.ScanBill(r.Context(), pipeline.ScanInput{
		Image:    data,
		MIMEType: detectMIMEType(header.Header.Get("Content-Type"), data),
		UserID:   user.ID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// detectMIMEType prefers the declared part type and sniffs the content when
// it is missing or generic.
func detectMIMEType(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return mt
	}
	if len(data) == 0 {
		return ""
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.deps.Store.ListExpenses(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	e := &core.Expense{UserID: userFrom(r.Context()).ID, Source: core.SourceManual}
	if err := s.applyExpense(e, req, true); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Expenses.CreateExpense(r.Context(), e); err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		log.NewFields().WithExpense(e.ID, e.Amount, e.CategoryID, len(e.BillDetails)).ToSlice()...)
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.Expenses.GetExpense(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	e, err := s.deps.Expenses.GetExpense(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.applyExpense(e, req, false); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Expenses.UpdateExpense(r.Context(), e); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Expenses.DeleteExpense(r.Context(), userFrom(r.Context()).ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// applyExpense copies the present request fields onto e and validates the
// result. On create, a missing date means today.
func (s *Server) applyExpense(e *core.Expense, req recordRequest, create bool) error {
	if req.Amount != nil {
		e.Amount = *req.Amount
	}
	if req.Description != nil {
		e.Description = sanitizeInput(*req.Description)
	}
	if req.Category != nil {
		e.CategoryID = strings.TrimSpace(*req.Category)
	}
	if req.Date != nil || create {
		var raw string
		if req.Date != nil {
			raw = *req.Date
		}
		d, err := parseDate(raw, s.now().UTC())
		if err != nil {
			return err
		}
		e.Date = d
	}
	// Scans that dropped every item are stored with a zero amount; they may
	// still be edited without touching the amount.
	if !create && req.Amount == nil && e.Amount == 0 {
		return validateRecord(core.Expense{
			UserID: e.UserID, Amount: 1, Description: e.Description,
			Date: e.Date, CategoryID: e.CategoryID,
		}.Validate())
	}
	return validateRecord(e.Validate())
}

func validateRecord(err error) error {
	if err != nil {
		return core.Fail(core.KindValidation, err.Error(), err)
	}
	return nil
}
