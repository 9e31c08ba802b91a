package api

import (
	"net/http"
	"time"

	"github.com/saptarishi/jyotishai/internal/analysis/dignity"
	"github.com/saptarishi/jyotishai/internal/analysis/nakshatra"
	"github.com/saptarishi/jyotishai/internal/analysis/shadbala"
	"github.com/saptarishi/jyotishai/internal/analysis/yoga"
	"github.com/saptarishi/jyotishai/internal/chart"
	"github.com/saptarishi/jyotishai/internal/dasha"
	"github.com/saptarishi/jyotishai/internal/varga"
	"github.com/saptarishi/jyotishai/pkg/models"
)

// BirthRequest is the shared body for chart computation endpoints.
type BirthRequest struct {
	Birth models.BirthData `json:"birth_data"`
}

func (r *BirthRequest) birth() models.BirthData { return r.Birth }

// DivisionalRequest is the body for POST /api/v1/calculate-divisional-chart.
type DivisionalRequest struct {
	Birth    models.BirthData `json:"birth_data"`
	Division int              `json:"division"`
}

func (r *DivisionalRequest) birth() models.BirthData { return r.Birth }

// handleChartOnly computes just the natal chart.
func (s *Server) handleChartOnly(w http.ResponseWriter, r *http.Request) {
	var req BirthRequest
	if !decodeBirth(w, r, &req) {
		return
	}
	natal, err := chart.Compute(s.eng, req.Birth)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: natal})
}

// handleChart computes the natal chart with its standard analysis slices:
// nakshatras, dignities, yogas and the running dashas.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	var req BirthRequest
	if !decodeBirth(w, r, &req) {
		return
	}

	natal, err := chart.Compute(s.eng, req.Birth)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	naks := make(map[string]map[string]interface{}, len(natal.Planets))
	digs := make(map[string]string, len(natal.Planets))
	for b, p := range natal.Planets {
		idx := nakshatra.Index(p.Longitude)
		naks[b.String()] = map[string]interface{}{
			"index": idx,
			"name":  nakshatra.Name(idx),
			"lord":  nakshatra.Lord(idx).String(),
			"pada":  nakshatra.Pada(p.Longitude),
		}
		digs[b.String()] = string(dignity.Of(b, p.Longitude))
	}

	out := map[string]interface{}{
		"chart":      natal,
		"nakshatras": naks,
		"dignities":  digs,
		"yogas":      yoga.Detect(natal),
	}
	if snap, err := dasha.ActiveAt(natal, time.Now().UTC()); err == nil {
		out["dashas"] = snap
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

// handleAllCharts computes the natal chart plus every supported varga.
func (s *Server) handleAllCharts(w http.ResponseWriter, r *http.Request) {
	var req BirthRequest
	if !decodeBirth(w, r, &req) {
		return
	}

	natal, err := chart.Compute(s.eng, req.Birth)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	divisionals := make(map[int]*models.DivisionalChart)
	for _, d := range []int{1, 2, 3, 4, 7, 9, 10, 12, 16, 20, 24, 27, 30, 40, 45, 60} {
		dc, err := varga.Chart(natal, d)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		divisionals[d] = dc
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]interface{}{
		"chart":             natal,
		"divisional_charts": divisionals,
	}})
}

// handleDivisionalChart computes one varga chart.
func (s *Server) handleDivisionalChart(w http.ResponseWriter, r *http.Request) {
	var req DivisionalRequest
	if !decodeBirth(w, r, &req) {
		return
	}
	if !varga.Supported(req.Division) {
		writeError(w, http.StatusUnprocessableEntity, "unknown division number")
		return
	}

	natal, err := chart.Compute(s.eng, req.Birth)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dc, err := varga.Chart(natal, req.Division)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: dc})
}

// handleShadbala computes the six-fold strength report.
func (s *Server) handleShadbala(w http.ResponseWriter, r *http.Request) {
	var req BirthRequest
	if !decodeBirth(w, r, &req) {
		return
	}
	natal, err := chart.Compute(s.eng, req.Birth)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]interface{}{
		"birth_hash": req.Birth.Hash(),
		"shadbala":   shadbala.Compute(natal),
	}})
}

// ── Nadi ──

// NadiPlanet is one planet's star-lord chain entry.
type NadiPlanet struct {
	Body        string   `json:"body"`
	Longitude   float64  `json:"longitude"`
	Nakshatra   string   `json:"nakshatra"`
	Pada        int      `json:"pada"`
	StarLord    string   `json:"star_lord"`
	SubSequence []string `json:"sub_sequence"` // star-lord chain from the planet's star
	Retrograde  bool     `json:"retrograde"`
}

// handleNadiAnalysis returns the nakshatra-level (nadi) breakdown: each
// planet's star lord and the lord sequence its results flow through.
func (s *Server) handleNadiAnalysis(w http.ResponseWriter, r *http.Request) {
	var req BirthRequest
	if !decodeBirth(w, r, &req) {
		return
	}
	natal, err := chart.Compute(s.eng, req.Birth)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	planets := make([]NadiPlanet, 0, len(models.Bodies))
	for _, b := range models.Bodies {
		p, ok := natal.Planets[b]
		if !ok {
			continue
		}
		idx := nakshatra.Index(p.Longitude)
		seq := nakshatra.LordSequenceFrom(idx)
		names := make([]string, len(seq))
		for i, l := range seq {
			names[i] = l.String()
		}
		planets = append(planets, NadiPlanet{
			Body:        b.String(),
			Longitude:   p.Longitude,
			Nakshatra:   nakshatra.Name(idx),
			Pada:        nakshatra.Pada(p.Longitude),
			StarLord:    nakshatra.Lord(idx).String(),
			SubSequence: names,
			Retrograde:  p.Retrograde,
		})
	}

	moonIdx := nakshatra.Index(natal.Planets[models.Moon].Longitude)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]interface{}{
		"birth_hash":      req.Birth.Hash(),
		"janma_nakshatra": nakshatra.Name(moonIdx),
		"planets":         planets,
	}})
}

// NadiTimelineRequest bounds one nakshatra-transit timeline.
type NadiTimelineRequest struct {
	From     string `json:"from"` // YYYY-MM-DD
	To       string `json:"to"`
	TZOffset int    `json:"tz_offset_minutes"`
}

func (s *Server) nadiTimeline(req NadiTimelineRequest) (interface{}, int, string) {
	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, "invalid from date; use YYYY-MM-DD"
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		return nil, http.StatusUnprocessableEntity, "invalid to date; use YYYY-MM-DD"
	}
	if !to.After(from) {
		return nil, http.StatusUnprocessableEntity, "to must be after from"
	}

	loc := time.FixedZone("local", req.TZOffset*60)
	periods, err := s.alm.NakshatraTimeline(from, to, loc)
	if err != nil {
		return nil, http.StatusInternalServerError, err.Error()
	}
	return map[string]interface{}{
		"from":    req.From,
		"to":      req.To,
		"periods": periods,
	}, http.StatusOK, ""
}

func (s *Server) handleNadiTimeline(w http.ResponseWriter, r *http.Request) {
	var req NadiTimelineRequest
	if err := jsonDecode(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	data, status, msg := s.nadiTimeline(req)
	if msg != "" {
		writeError(w, status, msg)
		return
	}
	writeJSON(w, status, APIResponse{Success: true, Data: data})
}

func (s *Server) handleNadiTimelineBulk(w http.ResponseWriter, r *http.Request) {
	var reqs []NadiTimelineRequest
	if err := jsonDecode(r, &reqs); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if len(reqs) == 0 || len(reqs) > 12 {
		writeError(w, http.StatusUnprocessableEntity, "1..12 ranges per bulk request")
		return
	}

	results := make([]interface{}, 0, len(reqs))
	for _, req := range reqs {
		data, status, msg := s.nadiTimeline(req)
		if msg != "" {
			writeError(w, status, msg)
			return
		}
		results = append(results, data)
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: results})
}
