package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/0xdurkle/rover/internal/app/loot"
	"github.com/0xdurkle/rover/internal/domain"
)

// ─── Expeditions ────────────────────────────────────────────────────────────

type startExpeditionRequest struct {
	OwnerID       string  `json:"owner_id"`
	Category      string  `json:"category"`
	DurationUnits float64 `json:"duration_units"`
}

func (s *Server) handleStartExpedition(w http.ResponseWriter, r *http.Request) {
	var req startExpeditionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.OwnerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}

	e, err := s.expeditions.Start(req.OwnerID, req.Category, req.DurationUnits)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleActiveExpedition(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}
	e, err := s.expeditions.Active(ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if e == nil {
		writeError(w, http.StatusNotFound, "no active expedition")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleGetExpedition(w http.ResponseWriter, r *http.Request) {
	e, err := s.db.GetExpedition(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if e == nil {
		writeError(w, http.StatusNotFound, "expedition not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleForceComplete(w http.ResponseWriter, r *http.Request) {
	result, err := s.expeditions.ForceComplete(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcome":  result.Outcome,
		"replayed": result.Replayed,
	})
}

// ─── Explorers ──────────────────────────────────────────────────────────────

func (s *Server) handleExplorerProfile(w http.ResponseWriter, r *http.Request) {
	ownerID := chi.URLParam(r, "id")
	profile, err := s.db.Profile(ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	limit := 25
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	history, err := s.db.LootHistory(ownerID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profile": profile,
		"history": history,
	})
}

// ─── Parties ────────────────────────────────────────────────────────────────

type createPartyRequest struct {
	CreatorID     string  `json:"creator_id"`
	Category      string  `json:"category"`
	DurationUnits float64 `json:"duration_units"`
}

func (s *Server) handleCreateParty(w http.ResponseWriter, r *http.Request) {
	var req createPartyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.CreatorID == "" {
		writeError(w, http.StatusBadRequest, "creator_id is required")
		return
	}
	p, err := s.parties.Create(req.CreatorID, req.Category, req.DurationUnits)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type joinPartyRequest struct {
	OwnerID string `json:"owner_id"`
}

func (s *Server) handleJoinParty(w http.ResponseWriter, r *http.Request) {
	var req joinPartyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.OwnerID == "" {
		writeError(w, http.StatusBadRequest, "owner_id is required")
		return
	}
	p, err := s.parties.Join(chi.URLParam(r, "id"), req.OwnerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetParty(w http.ResponseWriter, r *http.Request) {
	p, err := s.parties.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ─── Catalog ────────────────────────────────────────────────────────────────

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	snap := s.catalog.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories":          snap.CategoryNames(),
		"short_test_duration": snap.ShortTestDuration,
		"max_bonus_members":   snap.MaxBonusMembers,
		"loaded_at":           snap.LoadedAt,
	})
}

func (s *Server) handleOdds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := q.Get("category")
	duration, err := strconv.ParseFloat(q.Get("duration_units"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "duration_units is required")
		return
	}
	groupSize := 1
	if v := q.Get("group_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			groupSize = n
		}
	}

	odds, err := loot.AdjustedOdds(s.catalog.Snapshot(), category, duration, groupSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, oddsView{
		Category:      category,
		DurationUnits: duration,
		GroupSize:     groupSize,
		Odds:          odds,
	})
}

func (s *Server) handleCatalogReload(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Reload(); err != nil {
		log.Printf("[api] catalog reload failed: %v", err)
		writeError(w, http.StatusInternalServerError, "catalog reload failed, previous catalog still active")
		return
	}
	snap := s.catalog.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": snap.CategoryNames(),
		"loaded_at":  snap.LoadedAt,
	})
}

// ─── Errors ─────────────────────────────────────────────────────────────────

// writeDomainError maps domain errors onto HTTP statuses. User-caused
// rejections get a specific message; anything else is a generic "try again"
// with the detail kept in the log.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrExpeditionActive),
		errors.Is(err, domain.ErrAlreadyMember):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnknownCategory),
		errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrPartyStarted),
		errors.Is(err, domain.ErrPartyWindowClosed),
		errors.Is(err, domain.ErrPartyFull):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrExpeditionNotFound),
		errors.Is(err, domain.ErrPartyNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("[api] internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "something went wrong, try again")
	}
}
