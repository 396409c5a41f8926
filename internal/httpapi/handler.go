// Package httpapi serves polar grids, radial interpolation and mappable
// arrays over HTTP.
package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/geal-ai/radialinterp"
	"github.com/geal-ai/radialinterp/internal/ctxlog"
	"github.com/geal-ai/radialinterp/internal/encode"
	"github.com/geal-ai/radialinterp/internal/source"
)

// Handler implements the /api routes.
type Handler struct {
	interp       *radialinterp.Interpolator
	maxBodyBytes int64
}

// NewHandler creates a handler sampling with interp. Request bodies larger
// than maxBodyBytes are rejected.
func NewHandler(interp *radialinterp.Interpolator, maxBodyBytes int64) *Handler {
	return &Handler{interp: interp, maxBodyBytes: maxBodyBytes}
}

// Routes configures the API routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", h.health)
	r.Post("/grid", h.grid)
	r.Post("/interpolate", h.interpolate)
	r.Post("/mappable", h.mappable)
	return r
}

// NewRouter mounts h under /api behind the standard middleware stack and a
// per-request logger carrying the request ID.
func NewRouter(h *Handler, logger *slog.Logger, timeout time.Duration) http.Handler {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(logger),
		middleware.Recoverer,
		middleware.Timeout(timeout),
	)
	router.Mount("/api", h.Routes())
	return router
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger.With("request_id", middleware.GetReqID(r.Context()))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctxlog.WithLogger(r.Context(), l)))
			l.Info("request", "method", r.Method, "path", r.URL.Path,
				"status", ww.Status(), "bytes", ww.BytesWritten(), "duration", time.Since(start))
		})
	}
}

type gridParams struct {
	StartRadius      float64 `json:"start_radius"`
	RadiusStep       float64 `json:"radius_step"`
	EndRadius        float64 `json:"end_radius"`
	DegreeResolution float64 `json:"degree_resolution"`
}

func (p gridParams) build() (radialinterp.Grid, error) {
	return radialinterp.BuildGrid(p.StartRadius, p.RadiusStep, p.EndRadius, p.DegreeResolution)
}

// fieldPayload is either an inline lattice (lons, lats, values lon-major with
// times values per node) or an expression evaluated on a lattice.
type fieldPayload struct {
	Lons   []float64     `json:"lons,omitempty"`
	Lats   []float64     `json:"lats,omitempty"`
	Values encode.Floats `json:"values,omitempty"`
	Times  int           `json:"times,omitempty"`

	Expression string          `json:"expression,omitempty"`
	Lattice    *latticePayload `json:"lattice,omitempty"`
}

type latticePayload struct {
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	Step   float64 `json:"step"`
}

// field materialises the payload. Expression fields are evaluated here;
// inline fields are validated later by Interpolate.
func (p *fieldPayload) field(r *http.Request) (*radialinterp.Field, error) {
	if p.Expression == "" {
		shape := []int{len(p.Lons), len(p.Lats)}
		if p.Times > 0 {
			shape = append(shape, p.Times)
		}
		return &radialinterp.Field{
			Lons: p.Lons,
			Lats: p.Lats,
			Data: &radialinterp.Array{Shape: shape, Data: p.Values},
		}, nil
	}
	if p.Lattice == nil {
		return nil, fmt.Errorf("%w: expression fields need a lattice", radialinterp.ErrInvalidParameter)
	}
	expr, err := source.ParseExpression(p.Expression)
	if err != nil {
		return nil, err
	}
	l := p.Lattice
	a := &source.Analytic{
		Lattice: source.Lattice{LonMin: l.LonMin, LonMax: l.LonMax, LatMin: l.LatMin, LatMax: l.LatMax, Step: l.Step},
		Times:   p.Times,
		Expr:    expr,
	}
	return a.Field(r.Context(), radialinterp.GeoPoint{}, radialinterp.Grid{})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) grid(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	var p gridParams
	if err := decodeJSON(r, &p); err != nil {
		fail(w, r, err)
		return
	}
	g, err := p.build()
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, encode.NewGrid(g))
}

type interpolateRequest struct {
	Grid        gridParams            `json:"grid"`
	Center      radialinterp.GeoPoint `json:"center"`
	Field       fieldPayload          `json:"field"`
	Coordinates bool                  `json:"coordinates,omitempty"`
	Mappable    bool                  `json:"mappable,omitempty"`
	Strategy    string                `json:"strategy,omitempty"`
}

func (h *Handler) interpolate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	var req interpolateRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	grid, err := req.Grid.build()
	if err != nil {
		fail(w, r, err)
		return
	}
	strategy, err := radialinterp.ParseStrategy(req.Strategy)
	if err != nil {
		fail(w, r, err)
		return
	}
	field, err := req.Field.field(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	var opts []radialinterp.InterpOption
	if req.Coordinates {
		opts = append(opts, radialinterp.WithCoordinates())
	}
	in, err := h.interp.Interpolate(r.Context(), field, req.Center, grid, opts...)
	if err != nil {
		fail(w, r, err)
		return
	}

	res := encode.NewResult(req.Center, grid, in)
	if req.Mappable {
		if res.Mappables, err = encode.NewMappables(grid, in.Values, strategy); err != nil {
			fail(w, r, err)
			return
		}
	}
	respond(w, r, http.StatusOK, res)
}

type mappableRequest struct {
	Grid     gridParams    `json:"grid"`
	Values   encode.Floats `json:"values"`
	Strategy string        `json:"strategy,omitempty"`
}

func (h *Handler) mappable(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	var req mappableRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, r, err)
		return
	}
	grid, err := req.Grid.build()
	if err != nil {
		fail(w, r, err)
		return
	}
	strategy, err := radialinterp.ParseStrategy(req.Strategy)
	if err != nil {
		fail(w, r, err)
		return
	}
	m, err := radialinterp.CreateMappable(grid, radialinterp.Vector(req.Values), radialinterp.WithStrategy(strategy))
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, encode.NewMappable(m, strategy))
}
