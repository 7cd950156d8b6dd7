package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/solardome/strategy-cockpit/internal/chart"
	"github.com/solardome/strategy-cockpit/internal/cockpit"
	"github.com/solardome/strategy-cockpit/internal/scoring"
	"github.com/solardome/strategy-cockpit/internal/share"
	"github.com/solardome/strategy-cockpit/internal/store"
)

const (
	SharePasswordHeader = "X-Share-Password"
	maxBodyBytes        = 1 << 20
	svgContentType      = "image/svg+xml"

	// DefaultShareRate and DefaultShareBurst bound password attempts on
	// shared links per client address.
	DefaultShareRate  = rate.Limit(1)
	DefaultShareBurst = 5

	// MaxShareTTL caps ttl_hours on share creation.
	MaxShareTTL = 365 * 24 * time.Hour
)

type Options struct {
	Store       *store.Store
	Shares      *share.Registry
	Policy      cockpit.Policy
	PolicyInput *cockpit.InputDigest
	DefaultView string
	Logger      *zap.Logger
	// ShareRate of zero means DefaultShareRate.
	ShareRate   rate.Limit
	ShareBurst  int
}

// Server exposes the cockpit, the chart engines and share links over HTTP.
type Server struct {
	store       *store.Store
	shares      *share.Registry
	policy      cockpit.Policy
	policyInput *cockpit.InputDigest
	defaultView string
	log         *zap.Logger
	limiter     *clientLimiter
}

func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	limit, burst := opts.ShareRate, opts.ShareBurst
	if limit <= 0 {
		limit = DefaultShareRate
	}
	if burst <= 0 {
		burst = DefaultShareBurst
	}
	return &Server{
		store:       opts.Store,
		shares:      opts.Shares,
		policy:      opts.Policy,
		policyInput: opts.PolicyInput,
		defaultView: cockpit.NormalizeView(opts.DefaultView),
		log:         log,
		limiter:     newClientLimiter(limit, burst),
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))

	r.Get("/healthz", s.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/classify", s.handleClassify)
		r.Post("/charts/donut", s.handleDonut)
		r.Post("/charts/radar", s.handleRadar)
		r.Get("/strategies", s.handleListStrategies)
		r.Get("/strategies/{id}/cockpit", s.handleCockpitJSON)
		r.Get("/strategies/{id}/cockpit.html", s.handleCockpitHTML)
		r.Post("/strategies/{id}/shares", s.handleCreateShare)
		r.Delete("/shares/{token}", s.handleRevokeShare)
	})
	r.With(s.limiter.middleware).Get("/s/{token}", s.handleShared)
	return r
}

// PruneShares drops expired share links and idle rate limiters every
// interval until ctx is done.
func (s *Server) PruneShares(ctx context.Context, every time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := s.shares.Prune(); n > 0 {
				s.log.Info("pruned expired shares", zap.Int("count", n))
			}
			s.limiter.prune()
		}
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	score, err := strconv.ParseFloat(q.Get("score"), 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		writeError(w, http.StatusBadRequest, "score must be a number")
		return
	}
	risk := false
	if v := q.Get("risk"); v != "" {
		if risk, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "risk must be a boolean")
			return
		}
	}
	th := s.policy.Thresholds
	var c scoring.Classification
	if risk {
		c = th.ClassifyRisk(score)
	} else {
		c = th.Classify(score)
	}
	writeJSON(w, http.StatusOK, classifyResponse{Classification: c, Display: c.Display()})
}

type classifyResponse struct {
	scoring.Classification
	Display string `json:"display"`
}

type donutRequest struct {
	Segments []chart.Segment    `json:"segments"`
	Options  chart.DonutOptions `json:"options"`
}

func (s *Server) handleDonut(w http.ResponseWriter, r *http.Request) {
	req := donutRequest{Options: s.policy.DonutOptions()}
	if !decodeBody(w, r, &req) {
		return
	}
	d := chart.BuildDonut(req.Segments, req.Options)
	if wantsSVG(r) {
		writeSVG(w, d.SVG())
		return
	}
	writeJSON(w, http.StatusOK, d)
}

type radarRequest struct {
	Points  []chart.RadarPoint `json:"points"`
	Options chart.RadarOptions `json:"options"`
}

type radarResponse struct {
	Kind   string            `json:"kind"`
	Layout chart.RadarLayout `json:"layout"`
}

func (s *Server) handleRadar(w http.ResponseWriter, r *http.Request) {
	req := radarRequest{Options: s.policy.RadarOptions()}
	if !decodeBody(w, r, &req) {
		return
	}
	layout := chart.BuildRadar(req.Points, req.Options)
	if wantsSVG(r) {
		writeSVG(w, layout.SVG())
		return
	}
	writeJSON(w, http.StatusOK, radarResponse{Kind: layout.Kind(), Layout: layout})
}

func (s *Server) handleListStrategies(w http.ResponseWriter, _ *http.Request) {
	ids, err := s.store.List()
	if err != nil {
		s.log.Error("list strategies", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "strategy store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"strategies": ids})
}

func (s *Server) handleCockpitJSON(w http.ResponseWriter, r *http.Request) {
	report, ok := s.buildCockpit(w, chi.URLParam(r, "id"), s.viewFor(r))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCockpitHTML(w http.ResponseWriter, r *http.Request) {
	report, ok := s.buildCockpit(w, chi.URLParam(r, "id"), s.viewFor(r))
	if !ok {
		return
	}
	writeHTML(w, cockpit.RenderHTML(report))
}

type createShareRequest struct {
	Password string  `json:"password"`
	TTLHours float64 `json:"ttl_hours"`
}

type createShareResponse struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req createShareRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.TTLHours < 0 || req.TTLHours > MaxShareTTL.Hours() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("ttl_hours must be within [0, %g]", MaxShareTTL.Hours()))
		return
	}
	if _, _, err := s.store.Get(id); err != nil {
		s.writeStoreError(w, id, err)
		return
	}
	link, err := s.shares.Create(id, req.Password, time.Duration(req.TTLHours*float64(time.Hour)))
	if err != nil {
		if errors.Is(err, share.ErrWeakPassword) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("create share", zap.String("strategy_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create share")
		return
	}
	s.log.Info("share created", zap.String("strategy_id", id), zap.Time("expires_at", link.ExpiresAt))
	writeJSON(w, http.StatusCreated, createShareResponse{Token: link.Token, URL: "/s/" + link.Token, ExpiresAt: link.ExpiresAt})
}

func (s *Server) handleRevokeShare(w http.ResponseWriter, r *http.Request) {
	if err := s.shares.Revoke(chi.URLParam(r, "token")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShared(w http.ResponseWriter, r *http.Request) {
	password := r.Header.Get(SharePasswordHeader)
	if password == "" {
		password = r.URL.Query().Get("password")
	}
	link, err := s.shares.Resolve(chi.URLParam(r, "token"), password)
	switch {
	case errors.Is(err, share.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, share.ErrExpired):
		writeError(w, http.StatusGone, err.Error())
		return
	case errors.Is(err, share.ErrBadPassword):
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "share lookup failed")
		return
	}
	// Shared links always get the client view.
	report, ok := s.buildCockpit(w, link.StrategyID, cockpit.ViewClient)
	if !ok {
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Robots-Tag", "noindex")
	writeHTML(w, cockpit.RenderHTML(report))
}

func (s *Server) viewFor(r *http.Request) string {
	if v := strings.TrimSpace(r.URL.Query().Get("view")); v != "" {
		return cockpit.NormalizeView(v)
	}
	return s.defaultView
}

func (s *Server) buildCockpit(w http.ResponseWriter, id, view string) (cockpit.Report, bool) {
	doc, in, err := s.store.Get(id)
	if err != nil {
		s.writeStoreError(w, id, err)
		return cockpit.Report{}, false
	}
	inputs := []cockpit.InputDigest{in}
	if s.policyInput != nil {
		inputs = append(inputs, *s.policyInput)
	}
	return cockpit.Build(doc, s.policy, view, inputs), true
}

func (s *Server) writeStoreError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "strategy "+id+" not found")
		return
	}
	s.log.Warn("strategy unusable", zap.String("strategy_id", id), zap.Error(err))
	writeError(w, http.StatusUnprocessableEntity, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func wantsSVG(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), svgContentType)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "response not encodable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeSVG(w http.ResponseWriter, svg string) {
	w.Header().Set("Content-Type", svgContentType)
	_, _ = w.Write([]byte(svg))
}

func writeHTML(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}
