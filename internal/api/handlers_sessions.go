package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/codeOCE/MBSync/internal/inventory"
	"github.com/codeOCE/MBSync/internal/sheet"
	"github.com/codeOCE/MBSync/internal/summary"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.sessions.List(r.Context())
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": list})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.sessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateRequest struct {
	Status      inventory.Status `json:"status"`
	ActualStock *decimal.Decimal `json:"actual_stock"`
	Reason      *string          `json:"reason"`
	Clear       bool             `json:"clear"`
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	u := inventory.Update{
		ID:          inventory.ItemID(chi.URLParam(r, "itemID")),
		Status:      req.Status,
		ActualStock: req.ActualStock,
		Reason:      req.Reason,
		Clear:       req.Clear,
	}

	item, err := s.sessions.Apply(r.Context(), chi.URLParam(r, "sessionID"), u)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, item)
	case errors.Is(err, inventory.ErrItemNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, inventory.ErrInvalidUpdate):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		s.sessionError(w, err)
	}
}

func (s *Server) loadBatch(w http.ResponseWriter, r *http.Request) (*inventory.Batch, bool) {
	batch, err := s.sessions.Batch(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.sessionError(w, err)
		return nil, false
	}
	return batch, true
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	if batch, ok := s.loadBatch(w, r); ok {
		writeJSON(w, http.StatusOK, batch.Counts())
	}
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	if batch, ok := s.loadBatch(w, r); ok {
		writeJSON(w, http.StatusOK, map[string]any{"items": nonNil(batch.Changed())})
	}
}

func (s *Server) handleExportView(w http.ResponseWriter, r *http.Request) {
	if batch, ok := s.loadBatch(w, r); ok {
		writeJSON(w, http.StatusOK, map[string]any{"items": nonNil(batch.ExportView())})
	}
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	mode, err := sheet.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	batch := inventory.NewBatch(sess.Items)

	if err := batch.Validate(); err != nil {
		var verr *inventory.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":          verr.Error(),
				"ids":            verr.IDs(),
				"missing_actual": nonNil(verr.MissingActual),
				"missing_reason": nonNil(verr.MissingReason),
			})
			return
		}
		s.sessionError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := s.forms.Fill(sheet.Rows(batch, mode), &buf); err != nil {
		s.log.Error("fill form failed", "session_id", sessionID, "error", err)
		jsonError(w, "failed to build form", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-change-request.xlsx"`, baseName(sess.Filename)))
	w.Write(buf.Bytes())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := s.sessions.Get(r.Context(), sessionID)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	batch := inventory.NewBatch(sess.Items)

	pdf, err := summary.Render(summary.Report{
		SessionID: sess.ID,
		Title:     baseName(sess.Filename),
		Items:     batch.ExportView(),
		Counts:    batch.Counts(),
		PrintedAt: time.Now(),
	})
	if err != nil {
		s.log.Error("render summary failed", "session_id", sessionID, "error", err)
		jsonError(w, "failed to render summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s-summary.pdf"`, baseName(sess.Filename)))
	w.Write(pdf)
}

func baseName(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	name = strings.Map(func(r rune) rune {
		if r == '"' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
	if name == "" {
		return "report"
	}
	return name
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
