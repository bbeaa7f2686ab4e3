package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/astro/skycalc/internal/cache"
	"github.com/astro/skycalc/internal/chartdb"
	"github.com/astro/skycalc/internal/ephem"
	"github.com/astro/skycalc/internal/houses"
	"github.com/astro/skycalc/internal/metrics"
	"github.com/astro/skycalc/internal/position"
	"github.com/astro/skycalc/internal/search"
	"github.com/astro/skycalc/internal/state"
	"github.com/astro/skycalc/internal/timescale"
)

// Handlers bundles the dependencies of the API endpoints. Charts and
// Cache are optional; their endpoints return 503 when absent.
type Handlers struct {
	State  *state.Context
	Engine *search.Engine
	Charts *chartdb.Store
	Cache  *cache.KeyframeCache
	Logger *slog.Logger
}

func (h *Handlers) ready() bool {
	// The analytic backend has no external data dependency; readiness
	// means the cache (when configured) has produced its first keyframe.
	if h.Cache == nil {
		return true
	}
	return h.Cache.Stats().Entries > 0
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, format string, args ...any) {
	writeJSON(w, code, map[string]string{"error": fmt.Sprintf(format, args...)})
}

// jdParam reads the time of a request: either ?jd=<float> (Julian Day UT)
// or ?date=<RFC3339>.
func jdParam(r *http.Request) (float64, error) {
	if v := r.URL.Query().Get("jd"); v != "" {
		jd, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid jd parameter %q", v)
		}
		return jd, nil
	}
	if v := r.URL.Query().Get("date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return 0, fmt.Errorf("invalid date parameter %q, want RFC3339", v)
		}
		return jdFromTime(t), nil
	}
	return 0, errors.New("missing jd or date parameter")
}

func jdFromTime(t time.Time) float64 {
	t = t.UTC()
	hour := float64(t.Hour()) + float64(t.Minute())/60 +
		(float64(t.Second())+float64(t.Nanosecond())/1e9)/3600
	return timescale.JulianDay(t.Year(), int(t.Month()), t.Day(), hour, timescale.Gregorian)
}

// bodyParam resolves ?body= as a numeric id or a body name.
func bodyParam(r *http.Request) (ephem.Body, error) {
	v := r.URL.Query().Get("body")
	if v == "" {
		return 0, errors.New("missing body parameter")
	}
	if n, err := strconv.Atoi(v); err == nil {
		return ephem.Body(n), nil
	}
	for b := ephem.Sun; b <= ephem.Vesta; b++ {
		if strings.EqualFold(b.Name(), v) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown body %q", v)
}

func geoParam(r *http.Request) (state.Observer, error) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		return state.Observer{}, errors.New("missing or invalid lat parameter")
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		return state.Observer{}, errors.New("missing or invalid lon parameter")
	}
	var alt float64
	if v := q.Get("alt"); v != "" {
		if alt, err = strconv.ParseFloat(v, 64); err != nil {
			return state.Observer{}, errors.New("invalid alt parameter")
		}
	}
	return state.Observer{LonDeg: lon, LatDeg: lat, AltM: alt}, nil
}

// handlePosition serves GET /api/v1/position?jd=&body=&flags=.
func (h *Handlers) handlePosition(w http.ResponseWriter, r *http.Request) {
	jd, err := jdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	body, err := bodyParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	fl := ephem.FlagSpeed
	if v := r.URL.Query().Get("flags"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid flags parameter %q", v)
			return
		}
		fl = ephem.Flags(n)
	}

	res, err := position.CalcUT(h.State, jd, body, fl)
	metrics.IncCalc("analytic", res.Status.String())
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, ephem.ErrUnknownBody) {
			code = http.StatusNotFound
		}
		writeError(w, code, "%v", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"body":    body.Name(),
		"jd_ut":   jd,
		"lon":     res.Data[0],
		"lat":     res.Data[1],
		"dist":    res.Data[2],
		"slon":    res.Data[3],
		"slat":    res.Data[4],
		"sdist":   res.Data[5],
		"status":  res.Status.String(),
		"message": res.Message,
	})
}

// handleHouses serves GET /api/v1/houses?jd=&lat=&lon=&sys=P.
func (h *Handlers) handleHouses(w http.ResponseWriter, r *http.Request) {
	jd, err := jdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	geo, err := geoParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	sys := houses.Placidus
	if v := r.URL.Query().Get("sys"); v != "" {
		if len(v) != 1 {
			writeError(w, http.StatusBadRequest, "invalid sys parameter %q, want one letter", v)
			return
		}
		sys = houses.System(v[0])
	}

	res, err := houses.Houses(h.State, jd, geo.LatDeg, geo.LonDeg, sys)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"system":         houses.HouseName(sys),
		"jd_ut":          jd,
		"cusps":          res.Cusps[1:],
		"asc":            res.Asc,
		"mc":             res.MC,
		"armc":           res.ARMC,
		"vertex":         res.Vertex,
		"equatorial_asc": res.EquatorialAsc,
		"status":         res.Status.String(),
		"message":        res.Message,
	})
}

// handleRiseTrans serves GET /api/v1/risetrans?jd=&body=|star=&event=&lat=&lon=.
func (h *Handlers) handleRiseTrans(w http.ResponseWriter, r *http.Request) {
	jd, err := jdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	geo, err := geoParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	star := r.URL.Query().Get("star")
	var body ephem.Body
	if star == "" {
		if body, err = bodyParam(r); err != nil {
			writeError(w, http.StatusBadRequest, "%v", err)
			return
		}
	}

	var ev search.Event
	switch r.URL.Query().Get("event") {
	case "", "rise":
		ev = search.Rise
	case "set":
		ev = search.Set
	case "transit":
		ev = search.Transit
	case "lower-transit":
		ev = search.LowerTransit
	default:
		writeError(w, http.StatusBadRequest, "invalid event parameter, want rise, set, transit or lower-transit")
		return
	}

	opts := search.Options{Backward: r.URL.Query().Get("backward") == "true"}
	res, err := h.Engine.RiseTrans(jd, body, star, geo, ev, opts)
	metrics.IncSearch("risetrans", res.State.String())
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, search.ErrBadGeo) {
			code = http.StatusBadRequest
		}
		writeError(w, code, "%v", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"event":    ev.String(),
		"state":    res.State.String(),
		"jd_ut":    res.JD,
		"steps":    res.Steps,
		"trace_id": res.TraceID,
		"status":   res.Status.String(),
		"message":  res.Message,
	})
}

// handlePheno serves GET /api/v1/pheno?jd=&body=.
func (h *Handlers) handlePheno(w http.ResponseWriter, r *http.Request) {
	jd, err := jdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}
	body, err := bodyParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	ph, err := h.Engine.PhenoUT(jd, body)
	if err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, ephem.ErrUnknownBody) {
			code = http.StatusNotFound
		}
		writeError(w, code, "%v", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"body":            body.Name(),
		"jd_ut":           jd,
		"phase_angle":     ph.PhaseAngle,
		"phase":           ph.Phase,
		"elongation":      ph.Elongation,
		"diameter_arcsec": ph.DiameterSec,
		"magnitude":       ph.Magnitude,
		"status":          ph.Status.String(),
		"message":         ph.Message,
	})
}

// handleEclipse serves GET /api/v1/eclipse?jd=&kind=lunar|solar[&lat=&lon=].
// With a geographic position and kind=solar the search is for a locally
// visible eclipse.
func (h *Handlers) handleEclipse(w http.ResponseWriter, r *http.Request) {
	jd, err := jdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	opts := search.Options{Backward: r.URL.Query().Get("backward") == "true"}
	kind := r.URL.Query().Get("kind")
	local := r.URL.Query().Get("lat") != ""

	switch {
	case kind == "lunar":
		res, err := h.Engine.LunarEclipseWhen(jd, opts)
		metrics.IncSearch("lunar-eclipse", res.State.String())
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"kind":          search.EclipseKindName(res.Kind),
			"state":         res.State.String(),
			"jd_max":        res.Times[0],
			"times":         res.Times,
			"umbral_mag":    res.UmbralMag,
			"penumbral_mag": res.PenumbralMag,
			"trace_id":      res.TraceID,
		})

	case kind == "solar" && local:
		geo, err := geoParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "%v", err)
			return
		}
		res, err := h.Engine.SolarEclipseWhenLoc(jd, geo, opts)
		metrics.IncSearch("solar-eclipse-local", res.State.String())
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"kind":        search.EclipseKindName(res.Kind),
			"state":       res.State.String(),
			"jd_max":      res.Times[0],
			"times":       res.Times,
			"magnitude":   res.Magnitude,
			"obscuration": res.Obscuration,
			"trace_id":    res.TraceID,
		})

	case kind == "solar":
		res, err := h.Engine.SolarEclipseWhenGlob(jd, opts)
		metrics.IncSearch("solar-eclipse", res.State.String())
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "%v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"kind":     search.EclipseKindName(res.Kind),
			"state":    res.State.String(),
			"jd_max":   res.Times[0],
			"times":    res.Times,
			"gamma":    res.Gamma,
			"mag_max":  res.MagMax,
			"trace_id": res.TraceID,
		})

	default:
		writeError(w, http.StatusBadRequest, "invalid kind parameter, want lunar or solar")
	}
}

// chartRequest is the POST /api/v1/natal-chart body.
type chartRequest struct {
	Name     string  `json:"name"`
	BirthUTC string  `json:"birth_utc"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	AltM     float64 `json:"alt_m"`
	HouseSys string  `json:"house_sys"`
}

// handleChartSave computes and stores a natal chart.
func (h *Handlers) handleChartSave(w http.ResponseWriter, r *http.Request) {
	if h.Charts == nil {
		writeError(w, http.StatusServiceUnavailable, "chart store not configured")
		return
	}

	var req chartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing name")
		return
	}
	birth, err := time.Parse(time.RFC3339, req.BirthUTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid birth_utc: %v", err)
		return
	}
	if req.Lat < -90 || req.Lat > 90 {
		writeError(w, http.StatusBadRequest, "lat out of range")
		return
	}
	sys := houses.Placidus
	if req.HouseSys != "" {
		if len(req.HouseSys) != 1 {
			writeError(w, http.StatusBadRequest, "invalid house_sys %q", req.HouseSys)
			return
		}
		sys = houses.System(req.HouseSys[0])
	}

	jdUT := jdFromTime(birth)

	ch := &chartdb.Chart{
		Name:     req.Name,
		BirthUTC: birth,
		JDUT:     jdUT,
		Lat:      req.Lat,
		Lon:      req.Lon,
		AltM:     req.AltM,
		HouseSys: string(sys),
		Zodiac:   "tropical",
	}
	if h.State.Snapshot().SiderealSet {
		ch.Zodiac = "sidereal"
	}

	for _, b := range cache.DefaultBodies {
		res, err := position.CalcUT(h.State, jdUT, b, ephem.FlagSpeed)
		metrics.IncCalc("analytic", res.Status.String())
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "compute %s: %v", b.Name(), err)
			return
		}
		ch.Bodies = append(ch.Bodies, chartdb.BodyEntry{
			Body: int(b),
			Name: b.Name(),
			Lon:  res.Data[0],
			Lat:  res.Data[1],
			Dist: res.Data[2],
			Slon: res.Data[3],
		})
	}

	hres, err := houses.Houses(h.State, jdUT, req.Lat, req.Lon, sys)
	if err != nil {
		writeError(w, http.StatusBadRequest, "houses: %v", err)
		return
	}
	ch.Cusps = hres.Cusps
	ch.Angles = chartdb.Angles{Asc: hres.Asc, MC: hres.MC, ARMC: hres.ARMC, Vtx: hres.Vertex}

	if _, err := h.Charts.Save(r.Context(), ch); err != nil {
		h.Logger.Error("chart save failed", "error", err)
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}
	metrics.IncChartsSaved()

	writeJSON(w, http.StatusCreated, chartResponse(ch))
}

func chartResponse(ch *chartdb.Chart) map[string]any {
	return map[string]any{
		"id":         ch.ID,
		"name":       ch.Name,
		"birth_utc":  ch.BirthUTC.UTC().Format(time.RFC3339),
		"jd_ut":      ch.JDUT,
		"lat":        ch.Lat,
		"lon":        ch.Lon,
		"alt_m":      ch.AltM,
		"house_sys":  ch.HouseSys,
		"zodiac":     ch.Zodiac,
		"bodies":     ch.Bodies,
		"cusps":      ch.Cusps,
		"angles":     ch.Angles,
		"created_at": ch.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// handleChartGet serves GET /api/v1/natal-chart/{id}.
func (h *Handlers) handleChartGet(w http.ResponseWriter, r *http.Request) {
	if h.Charts == nil {
		writeError(w, http.StatusServiceUnavailable, "chart store not configured")
		return
	}
	ch, err := h.Charts.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, chartdb.ErrNotFound) {
		writeError(w, http.StatusNotFound, "chart not found")
		return
	}
	if err != nil {
		h.Logger.Error("chart get failed", "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, chartResponse(ch))
}

// handleChartList serves GET /api/v1/natal-chart?limit=&offset=.
func (h *Handlers) handleChartList(w http.ResponseWriter, r *http.Request) {
	if h.Charts == nil {
		writeError(w, http.StatusServiceUnavailable, "chart store not configured")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	charts, err := h.Charts.List(r.Context(), limit, offset)
	if err != nil {
		h.Logger.Error("chart list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}

	out := make([]map[string]any, 0, len(charts))
	for _, ch := range charts {
		out = append(out, chartResponse(ch))
	}
	writeJSON(w, http.StatusOK, map[string]any{"charts": out, "count": len(out)})
}

// handleChartDelete serves DELETE /api/v1/natal-chart/{id}.
func (h *Handlers) handleChartDelete(w http.ResponseWriter, r *http.Request) {
	if h.Charts == nil {
		writeError(w, http.StatusServiceUnavailable, "chart store not configured")
		return
	}
	err := h.Charts.Delete(r.Context(), r.PathValue("id"))
	if errors.Is(err, chartdb.ErrNotFound) {
		writeError(w, http.StatusNotFound, "chart not found")
		return
	}
	if err != nil {
		h.Logger.Error("chart delete failed", "error", err)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCacheStats serves GET /api/v1/cache/stats.
func (h *Handlers) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if h.Cache == nil {
		writeError(w, http.StatusServiceUnavailable, "keyframe cache not configured")
		return
	}
	st := h.Cache.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":          st.Entries,
		"size_bytes":       st.SizeBytes,
		"oldest_timestamp": st.OldestTimestamp,
		"newest_timestamp": st.NewestTimestamp,
		"hits":             st.Hits,
		"misses":           st.Misses,
		"evictions":        st.Evictions,
		"in_grace_period":  st.InGracePeriod,
	})
}
