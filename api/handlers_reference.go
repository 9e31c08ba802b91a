package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saptarishi/jyotishai/internal/store"
	"github.com/saptarishi/jyotishai/internal/transit"
)

// ── Credits ──

func (s *Server) handleCreditBalance(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	bal, err := s.ledger.Balance(r.Context(), uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]interface{}{
		"user_id": uid,
		"balance": bal,
	}})
}

// CreditGrantRequest is the body of POST /api/v1/credits/grant.
type CreditGrantRequest struct {
	Amount int64  `json:"amount"`
	Note   string `json:"note"`
}

func (s *Server) handleCreditGrant(w http.ResponseWriter, r *http.Request) {
	var req CreditGrantRequest
	if err := jsonDecode(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	uid := userID(r)
	id, err := s.ledger.Grant(r.Context(), uid, req.Amount, req.Note)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	bal, err := s.ledger.Balance(r.Context(), uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]interface{}{
		"entry_id": id,
		"balance":  bal,
	}})
}

func (s *Server) handleCreditHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	entries, err := s.ledger.History(r.Context(), userID(r), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: entries})
}

// ── House Specifications ──

func (s *Server) handleHouseSpecs(w http.ResponseWriter, r *http.Request) {
	specs, err := s.store.HouseSpecs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(specs) == 0 {
		specs = defaultHouseSpecs()
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: specs})
}

// defaultHouseSpecs is the built-in signification sheet served until a
// curated set is loaded into the store.
func defaultHouseSpecs() []store.HouseSpec {
	return []store.HouseSpec{
		{House: 1, Name: "Tanu Bhava", Significations: "self, body, temperament, vitality", Karaka: "Sun", BodyParts: "head"},
		{House: 2, Name: "Dhana Bhava", Significations: "wealth, speech, family, food", Karaka: "Jupiter", BodyParts: "face, right eye"},
		{House: 3, Name: "Sahaja Bhava", Significations: "courage, siblings, short journeys, communication", Karaka: "Mars", BodyParts: "arms, shoulders"},
		{House: 4, Name: "Sukha Bhava", Significations: "mother, home, vehicles, inner peace", Karaka: "Moon", BodyParts: "chest, lungs"},
		{House: 5, Name: "Putra Bhava", Significations: "children, intellect, creativity, purva punya", Karaka: "Jupiter", BodyParts: "stomach, heart"},
		{House: 6, Name: "Ripu Bhava", Significations: "disease, debts, enemies, service", Karaka: "Mars", BodyParts: "intestines"},
		{House: 7, Name: "Kalatra Bhava", Significations: "marriage, partnerships, trade", Karaka: "Venus", BodyParts: "lower abdomen"},
		{House: 8, Name: "Ayur Bhava", Significations: "longevity, transformation, inheritance, occult", Karaka: "Saturn", BodyParts: "reproductive organs"},
		{House: 9, Name: "Dharma Bhava", Significations: "fortune, father, guru, long journeys", Karaka: "Jupiter", BodyParts: "thighs"},
		{House: 10, Name: "Karma Bhava", Significations: "career, status, authority, public life", Karaka: "Mercury", BodyParts: "knees"},
		{House: 11, Name: "Labha Bhava", Significations: "gains, income, elder siblings, aspirations", Karaka: "Jupiter", BodyParts: "calves"},
		{House: 12, Name: "Vyaya Bhava", Significations: "loss, expenditure, foreign lands, moksha", Karaka: "Saturn", BodyParts: "feet"},
	}
}

// ── House Combinations ──

func (s *Server) handleListCombinations(w http.ResponseWriter, r *http.Request) {
	combos, err := s.store.HouseCombinations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: combos})
}

func (s *Server) handleCreateCombination(w http.ResponseWriter, r *http.Request) {
	var c store.HouseCombination
	if err := jsonDecode(r, &c); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	id, err := s.store.CreateHouseCombination(r.Context(), c)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	c.ID = id
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: c})
}

func (s *Server) handleGetCombination(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.HouseCombination(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "combination not found")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: c})
}

func (s *Server) handleUpdateCombination(w http.ResponseWriter, r *http.Request) {
	var c store.HouseCombination
	if err := jsonDecode(r, &c); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	c.ID = chi.URLParam(r, "id")
	found, err := s.store.UpdateHouseCombination(r.Context(), c)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "combination not found")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: c})
}

func (s *Server) handleDeleteCombination(w http.ResponseWriter, r *http.Request) {
	found, err := s.store.DeleteHouseCombination(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "combination not found")
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]interface{}{"deleted": true}})
}

// handleGenerateCombinations seeds the classical two-house yoga rules.
// Seeding is idempotent: rules whose names already exist are skipped.
func (s *Server) handleGenerateCombinations(w http.ResponseWriter, r *http.Request) {
	existing, err := s.store.HouseCombinations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c.Name] = true
	}

	created := 0
	for _, c := range classicalCombinations() {
		if have[c.Name] {
			continue
		}
		if _, err := s.store.CreateHouseCombination(r.Context(), c); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		created++
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]interface{}{
		"created": created,
		"total":   len(existing) + created,
	}})
}

func classicalCombinations() []store.HouseCombination {
	return []store.HouseCombination{
		{Houses: []int{1, 5}, Name: "Lagna-Putra sambandha", Effect: "intelligence and creative merit shape the personality", Source: "Phaladeepika 15.2"},
		{Houses: []int{1, 9}, Name: "Lagna-Bhagya sambandha", Effect: "fortune favors self-effort; dharmic disposition", Source: "Phaladeepika 15.4"},
		{Houses: []int{1, 10}, Name: "Lagna-Karma sambandha", Effect: "self-made rise in career and public standing", Source: "BPHS 42.11"},
		{Houses: []int{2, 11}, Name: "Dhana-Labha sambandha", Effect: "accumulated wealth reinforced by steady gains", Source: "BPHS 42.14"},
		{Houses: []int{4, 9}, Name: "Sukha-Bhagya sambandha", Effect: "property and comforts through paternal fortune", Source: "Phaladeepika 15.9"},
		{Houses: []int{5, 9}, Name: "Putra-Bhagya sambandha", Effect: "raja-yoga bridge; merit ripens into fortune", Source: "BPHS 41.3"},
		{Houses: []int{6, 8}, Name: "Ripu-Randhra sambandha", Effect: "chronic health struggle; hidden adversaries", Source: "Phaladeepika 15.14"},
		{Houses: []int{6, 12}, Name: "Ripu-Vyaya sambandha", Effect: "hospital expenses, litigation losses", Source: "Phaladeepika 15.16"},
		{Houses: []int{7, 9}, Name: "Kalatra-Bhagya sambandha", Effect: "fortunate alliance; rise after marriage", Source: "BPHS 42.19"},
		{Houses: []int{8, 12}, Name: "Randhra-Vyaya sambandha", Effect: "renunciation, foreign seclusion, occult depth", Source: "Phaladeepika 15.18"},
		{Houses: []int{9, 10}, Name: "Dharma-Karma adhipati", Effect: "the foremost raja-yoga; power wielded righteously", Source: "BPHS 41.1"},
		{Houses: []int{10, 11}, Name: "Karma-Labha sambandha", Effect: "career effort converts directly into income", Source: "BPHS 42.22"},
	}
}

// ── Market Forecast ──

// handleMarketForecast serves mundane sector windows. Query: sector
// (required), from/to dates (default: one year from today). Results are
// cached per query for the cache TTL.
func (s *Server) handleMarketForecast(w http.ResponseWriter, r *http.Request) {
	sector := r.URL.Query().Get("sector")
	if sector == "" {
		writeError(w, http.StatusUnprocessableEntity, "sector is required; one of "+fmt.Sprint(transit.Sectors()))
		return
	}

	from := time.Now().UTC().Truncate(24 * time.Hour)
	to := from.AddDate(1, 0, 0)
	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = time.Parse("2006-01-02", v); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid from date; use YYYY-MM-DD")
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = time.Parse("2006-01-02", v); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid to date; use YYYY-MM-DD")
			return
		}
	}
	if !to.After(from) {
		writeError(w, http.StatusUnprocessableEntity, "to must be after from")
		return
	}

	key := fmt.Sprintf("market:%s:%s:%s", sector, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if v, ok := s.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: v})
		return
	}

	periods, err := s.scanner.MarketForecast(r.Context(), sector, from, to)
	if err != nil {
		if errors.Is(err, transit.ErrUnknownSector) {
			writeError(w, http.StatusUnprocessableEntity, "unknown sector; one of "+fmt.Sprint(transit.Sectors()))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	data := map[string]interface{}{
		"sector":  sector,
		"from":    from.Format("2006-01-02"),
		"to":      to.Format("2006-01-02"),
		"periods": periods,
	}
	s.cache.Set(key, data)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}
