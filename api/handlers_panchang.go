package api

import (
	"net/http"
	"time"
)

// handlePanchang computes the five limbs and daily windows for a date and
// place. Query: date=YYYY-MM-DD (default today), lat, lon, tz (minutes).
func (s *Server) handlePanchang(w http.ResponseWriter, r *http.Request) {
	date, lat, lon, tz, ok := panchangQuery(w, r)
	if !ok {
		return
	}
	p, err := s.alm.Compute(date, lat, lon, tz)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: p})
}

// muhuratHandler builds the handler for one muhurta purpose endpoint.
func (s *Server) muhuratHandler(purpose string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, lat, lon, tz, ok := panchangQuery(w, r)
		if !ok {
			return
		}
		report, err := s.alm.MuhuratFor(date, purpose, lat, lon, tz)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: report})
	}
}

func panchangQuery(w http.ResponseWriter, r *http.Request) (date string, lat, lon float64, tz int, ok bool) {
	tz = queryInt(r, "tz", 0)
	date = r.URL.Query().Get("date")
	if date == "" {
		loc := time.FixedZone("local", tz*60)
		date = time.Now().In(loc).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date; use YYYY-MM-DD")
		return "", 0, 0, 0, false
	}

	var err error
	if lat, err = queryFloat(r, "lat"); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "lat is required")
		return "", 0, 0, 0, false
	}
	if lon, err = queryFloat(r, "lon"); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "lon is required")
		return "", 0, 0, 0, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		writeError(w, http.StatusUnprocessableEntity, "coordinates out of range")
		return "", 0, 0, 0, false
	}
	return date, lat, lon, tz, true
}
