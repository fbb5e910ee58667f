package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/geomag/geofield/internal/field"
	"github.com/geomag/geofield/internal/grid"
	"github.com/geomag/geofield/internal/metrics"
	"github.com/geomag/geofield/internal/model"
	"github.com/geomag/geofield/internal/track"
)

// scratchPool hands out evaluation buffers so concurrent field requests
// never share one, per the evaluator's concurrency contract.
var scratchPool = sync.Pool{
	New: func() any { return &field.Scratch{} },
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps snapshot construction and evaluation errors to HTTP
// status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrDomain), errors.Is(err, model.ErrFormat):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrMissingData):
		return http.StatusNotFound
	case errors.Is(err, model.ErrPath):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// snapshotFor resolves the snapshot a request should evaluate against:
// the server's current one, or a per-date snapshot from the cache when
// a date=YYYY-MM-DD query parameter is present.
func snapshotFor(r *http.Request, deps Deps) (*model.Snapshot, error) {
	if date := r.URL.Query().Get("date"); date != "" {
		var year, month, day int
		if _, err := fmt.Sscanf(date, "%d-%d-%d", &year, &month, &day); err != nil {
			return nil, fmt.Errorf("%w: invalid date %q, want YYYY-MM-DD", model.ErrDomain, date)
		}
		return deps.Cache.Get(day, month, year)
	}

	cur := deps.Store.Get()
	if cur == nil {
		return nil, fmt.Errorf("%w: no snapshot loaded", model.ErrPath)
	}
	return cur.Snapshot, nil
}

func queryFloat(r *http.Request, name string) (float64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, fmt.Errorf("missing required parameter %q", name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %q: %q", name, s)
	}
	return v, nil
}

// fieldHandler serves GET /api/v1/field?lat&lon&alt[&date].
func fieldHandler(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lat, err := queryFloat(r, "lat")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		lon, err := queryFloat(r, "lon")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		alt, err := queryFloat(r, "alt")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		snap, err := snapshotFor(r, deps)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}

		scratch := scratchPool.Get().(*field.Scratch)
		start := time.Now()
		f, err := field.Evaluate(snap, lat, lon, alt, scratch)
		scratchPool.Put(scratch)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		metrics.RecordEvaluation(time.Since(start))

		writeJSON(w, http.StatusOK, map[string]any{
			"lat":   lat,
			"lon":   lon,
			"alt_m": alt,
			"field": f,
			"unit":  "T",
		})
	}
}

// gridHandler serves GET /api/v1/grid. Requests exceeding the point
// budget are rejected with 400 instead of consuming unbounded CPU.
func gridHandler(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req grid.Request
		params := []struct {
			name string
			dst  *float64
		}{
			{"lat_min", &req.LatMin},
			{"lat_max", &req.LatMax},
			{"lat_step", &req.LatStep},
			{"lon_min", &req.LonMin},
			{"lon_max", &req.LonMax},
			{"lon_step", &req.LonStep},
			{"alt", &req.AltM},
		}
		for _, p := range params {
			v, err := queryFloat(r, p.name)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			*p.dst = v
		}

		points, err := req.Points()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if points > deps.MaxPoints {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":      fmt.Sprintf("grid spans %d points, exceeding the budget", points),
				"max_points": deps.MaxPoints,
			})
			return
		}

		snap, err := snapshotFor(r, deps)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}

		start := time.Now()
		samples, successCount, errorCount, err := deps.GridPool.Compute(r.Context(), snap, req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		metrics.AddGridPoints(successCount)

		logger.Debug("grid computed",
			"points", points,
			"success", successCount,
			"errors", errorCount,
			"duration_ms", time.Since(start).Milliseconds(),
		)

		writeJSON(w, http.StatusOK, map[string]any{
			"alt_m":   req.AltM,
			"samples": samples,
			"success": successCount,
			"errors":  errorCount,
			"unit":    "T",
		})
	}
}

// trackRequest is the JSON body of POST /api/v1/track.
type trackRequest struct {
	Line1       string    `json:"line1"`
	Line2       string    `json:"line2"`
	NoradID     int       `json:"norad_id"`
	Start       time.Time `json:"start"`
	StepSeconds int       `json:"step_seconds"`
	Count       int       `json:"count"`
}

// trackHandler serves POST /api/v1/track.
func trackHandler(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body trackRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
		if body.Count > deps.MaxSamples {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":       fmt.Sprintf("track spans %d samples, exceeding the budget", body.Count),
				"max_samples": deps.MaxSamples,
			})
			return
		}
		if body.StepSeconds < 1 {
			body.StepSeconds = 60
		}
		if body.Start.IsZero() {
			body.Start = time.Now().UTC()
		}

		snap, err := snapshotFor(r, deps)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}

		points, err := track.Sample(snap, track.Request{
			Line1:   body.Line1,
			Line2:   body.Line2,
			NoradID: body.NoradID,
			Start:   body.Start,
			Step:    time.Duration(body.StepSeconds) * time.Second,
			Count:   body.Count,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		metrics.AddTrackSamples(len(points))

		writeJSON(w, http.StatusOK, map[string]any{
			"norad_id": body.NoradID,
			"points":   points,
			"unit":     "T",
		})
	}
}

// modelHandler serves GET /api/v1/model: snapshot metadata with
// altitude bounds converted to meters at this presentation boundary.
func modelHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cur := deps.Store.Get()
		if cur == nil {
			writeError(w, http.StatusServiceUnavailable, "no snapshot loaded")
			return
		}

		minKm, maxKm := cur.Snapshot.AltitudeRangeKm()
		writeJSON(w, http.StatusOK, map[string]any{
			"order":          cur.Snapshot.Order(),
			"altitude_min_m": minKm * 1e3,
			"altitude_max_m": maxKm * 1e3,
			"source":         cur.Source,
			"date":           cur.Date,
			"loaded_at":      cur.LoadedAt.UTC().Format(time.RFC3339),
		})
	}
}

// cacheStatsHandler serves GET /api/v1/cache/stats.
func cacheStatsHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := deps.Cache.Stats()
		writeJSON(w, http.StatusOK, map[string]any{
			"entries":   st.Entries,
			"hits":      st.Hits,
			"misses":    st.Misses,
			"evictions": st.Evictions,
		})
	}
}
