// Package api provides the HTTP API for observing and driving the shops.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/caravan-market/internal/economy"
	"github.com/talgya/caravan-market/internal/engine"
	"github.com/talgya/caravan-market/internal/persistence"
)

// Server serves the shop economy over HTTP.
type Server struct {
	Econ     *economy.Economy
	Vars     *economy.MemoryStore
	Eng      *engine.Engine
	DB       *persistence.DB
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// TradeLimiter throttles POST /api/v1/trade per client. Nil uses
	// 120 trades per minute.
	TradeLimiter *RateLimiter
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	limiter := s.TradeLimiter
	if limiter == nil {
		limiter = NewRateLimiter(120, time.Minute)
	}

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/shops", s.handleShops)
	mux.HandleFunc("/api/v1/shop/", s.handleShopDetail)
	mux.HandleFunc("/api/v1/events", s.handleEvents)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/command", s.adminOnly(s.handleCommand))
	mux.HandleFunc("/api/v1/trade", s.adminOnly(RateLimitMiddleware(limiter, s.handleTrade)))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	handler := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no SHOPSIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (s *Server) tick() uint64 {
	if s.Eng != nil {
		return s.Eng.Tick()
	}
	return s.Econ.LastTick()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"name":     "Caravan Market",
		"tick":     s.tick(),
		"sim_time": engine.SimTime(s.tick()),
		"selected": s.Econ.SelectedShopType(),
		"economy":  s.Econ.Stats(),
	}
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["running"] = s.Eng.Running()
	}
	writeJSON(w, status)
}

func (s *Server) handleShops(w http.ResponseWriter, r *http.Request) {
	type shopSummary struct {
		Name      string  `json:"name"`
		Items     int     `json:"items"`
		Timer     int     `json:"timer"`
		Threshold float64 `json:"threshold"`
	}

	names := s.Econ.Catalog().Names()
	out := make([]shopSummary, 0, len(names))
	for _, name := range names {
		v, ok := s.Econ.View(name)
		if !ok {
			continue
		}
		out = append(out, shopSummary{Name: v.Name, Items: len(v.Items), Timer: v.Timer, Threshold: v.Threshold})
	}
	writeJSON(w, out)
}

// handleShopDetail serves GET /api/v1/shop/{name}.
func (s *Server) handleShopDetail(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/shop/")
	if name == "" {
		http.Error(w, "missing shop name", http.StatusBadRequest)
		return
	}

	v, ok := s.Econ.View(name)
	if !ok {
		http.Error(w, "shop type not found", http.StatusNotFound)
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	var events []economy.Event
	if r.URL.Query().Get("source") == "db" {
		if s.DB == nil {
			http.Error(w, "database not available", http.StatusServiceUnavailable)
			return
		}
		var err error
		if events, err = s.DB.RecentEvents(limit); err != nil {
			slog.Error("loading events failed", "error", err)
			http.Error(w, "events unavailable", http.StatusInternalServerError)
			return
		}
		// Newest last, like the in-memory journal.
		slices.Reverse(events)
	} else {
		events = s.Econ.Events(0)
	}

	// Optional shop filter.
	if shop := r.URL.Query().Get("shop"); shop != "" {
		filtered := events[:0:0]
		for _, e := range events {
			if e.Shop == shop {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	writeJSON(w, events)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	if err := s.Econ.Exec(req.Command); err != nil {
		if errors.Is(err, economy.ErrUnknownCommand) || errors.Is(err, economy.ErrMissingArgument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("command failed", "command", req.Command, "error", err)
		http.Error(w, "command failed", http.StatusInternalServerError)
		return
	}
	slog.Info("command executed", "command", req.Command)

	writeJSON(w, map[string]any{
		"command":  req.Command,
		"selected": s.Econ.SelectedShopType(),
	})
}

type tradeRequest struct {
	Shop      string `json:"shop"`
	Kind      string `json:"kind"` // "buy" or "sell", from the player's side
	ItemID    int    `json:"item_id"`
	Quantity  int    `json:"quantity"`
	BasePrice int    `json:"base_price"` // 0 uses the catalog price
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Quantity < 1 {
		http.Error(w, "quantity must be positive", http.StatusBadRequest)
		return
	}

	// An explicit name must match; only host selection falls back.
	if _, ok := s.Econ.Catalog().Get(req.Shop); !ok {
		http.Error(w, "shop type not found", http.StatusNotFound)
		return
	}
	sess := s.Econ.OpenSession(req.Shop)
	base := req.BasePrice
	if base <= 0 {
		st, _ := s.Econ.Catalog().Get(sess.Shop)
		it, ok := st.Item(req.ItemID)
		if !ok {
			http.Error(w, "item not sold here", http.StatusNotFound)
			return
		}
		base = it.Price
	}

	var t economy.Trade
	switch economy.EventKind(req.Kind) {
	case economy.EventBuy:
		t = sess.Buy(req.ItemID, base, req.Quantity)
	case economy.EventSell:
		t = sess.Sell(req.ItemID, base, req.Quantity)
	default:
		http.Error(w, "kind must be buy or sell", http.StatusBadRequest)
		return
	}
	if t.Quantity == 0 {
		http.Error(w, "item not sold here", http.StatusNotFound)
		return
	}

	writeJSON(w, t)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not available", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	if err := s.DB.SaveEconomy(s.Econ, s.Vars, s.tick()); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"tick":    s.tick(),
		"message": "snapshot saved",
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
