// Package httpapi exposes the platform's REST and websocket surface.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	app "github.com/afl-fantasy/platform/internal/app"
	"github.com/afl-fantasy/platform/internal/app/domain/fantasy"
	"github.com/afl-fantasy/platform/internal/app/domain/fixture"
	"github.com/afl-fantasy/platform/internal/app/domain/player"
	"github.com/afl-fantasy/platform/internal/errors"
	"github.com/afl-fantasy/platform/internal/middleware"
)

// Checker reports the health of one dependency.
type Checker func(ctx context.Context) error

// Options configures the HTTP handler.
type Options struct {
	Version string
	Checks  map[string]Checker
}

type handler struct {
	app     *app.Application
	version string
	checks  map[string]Checker
	started time.Time
	audit   *auditLog
}

// NewHandler returns a router exposing the REST API.
func NewHandler(application *app.Application, opts Options) *mux.Router {
	h := &handler{
		app:     application,
		version: opts.Version,
		checks:  opts.Checks,
		started: time.Now(),
		audit:   newAuditLog(200),
	}

	r := mux.NewRouter()

	r.HandleFunc("/api/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/api/system/stats", h.systemStats).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", h.login).Methods(http.MethodPost)

	adminOnly := func(fn http.HandlerFunc) http.Handler {
		return h.auditMiddleware(middleware.RequireAdmin(fn))
	}

	r.HandleFunc("/api/players", h.listPlayers).Methods(http.MethodGet)
	r.Handle("/api/players", adminOnly(h.createPlayer)).Methods(http.MethodPost)
	r.HandleFunc("/api/players/{id}", h.getPlayer).Methods(http.MethodGet)
	r.Handle("/api/players/{id}", adminOnly(h.updatePlayer)).Methods(http.MethodPatch)
	r.HandleFunc("/api/players/{id}/scores", h.playerScores).Methods(http.MethodGet)
	r.Handle("/api/players/{id}/scores", adminOnly(h.recordScore)).Methods(http.MethodPost)
	r.HandleFunc("/api/players/{id}/projection", h.playerProjection).Methods(http.MethodGet)

	r.HandleFunc("/api/fixtures", h.listFixtures).Methods(http.MethodGet)
	r.Handle("/api/fixtures", adminOnly(h.createFixture)).Methods(http.MethodPost)

	r.HandleFunc("/api/rounds/{round}/scores", h.roundScores).Methods(http.MethodGet)
	r.HandleFunc("/api/rounds/{round}/projections", h.roundProjections).Methods(http.MethodGet)
	r.Handle("/api/rounds/{round}/projections", adminOnly(h.computeProjections)).Methods(http.MethodPost)
	r.HandleFunc("/api/rounds/{round}/captains", h.captainSuggestions).Methods(http.MethodGet)

	r.HandleFunc("/api/live", h.live).Methods(http.MethodGet)

	// Authenticated routes.
	r.HandleFunc("/api/trades/analyze", h.analyzeTrade).Methods(http.MethodPost)
	r.HandleFunc("/api/squads", h.createSquad).Methods(http.MethodPost)
	r.HandleFunc("/api/squads", h.listSquads).Methods(http.MethodGet)
	r.HandleFunc("/api/squads/{id}", h.getSquad).Methods(http.MethodGet)
	r.HandleFunc("/api/squads/{id}/lineup", h.saveLineup).Methods(http.MethodPut)
	r.HandleFunc("/api/squads/{id}/lineup", h.getLineup).Methods(http.MethodGet)
	r.HandleFunc("/api/squads/{id}/total", h.squadTotal).Methods(http.MethodGet)
	r.HandleFunc("/api/squads/{id}/trades", h.executeTrade).Methods(http.MethodPost)
	r.HandleFunc("/api/squads/{id}/trades", h.listTrades).Methods(http.MethodGet)

	// Administrative routes.
	r.Handle("/api/admin/sync/players", adminOnly(h.syncPlayers)).Methods(http.MethodPost)
	r.Handle("/api/admin/sync/fixtures", adminOnly(h.syncFixtures)).Methods(http.MethodPost)
	r.Handle("/api/admin/sync/scores/{round}", adminOnly(h.syncScores)).Methods(http.MethodPost)
	r.Handle("/api/admin/audit", adminOnly(h.listAudit)).Methods(http.MethodGet)

	return r
}

// SkipAuthPaths lists routes the auth middleware must leave open.
func SkipAuthPaths() []string {
	return []string{
		"/api/health",
		"/api/system/stats",
		"/metrics",
		"/api/auth/register",
		"/api/auth/login",
		"/api/live",
		"/api/players*",
		"/api/fixtures",
		"/api/rounds/*",
	}
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":         status,
		"version":        h.version,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"checks":         checks,
	})
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		Password    string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	account, err := h.app.Users.Register(r.Context(), payload.Email, payload.DisplayName, payload.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	account, token, err := h.app.Users.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  account,
	})
}

func (h *handler) listPlayers(w http.ResponseWriter, r *http.Request) {
	filter := player.Filter{
		Team:     strings.ToUpper(r.URL.Query().Get("team")),
		Position: player.Position(strings.ToUpper(r.URL.Query().Get("position"))),
		Status:   player.Status(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("max_price"); raw != "" {
		maxPrice, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid max_price %q", raw))
			return
		}
		filter.MaxPrice = maxPrice
	}

	result, err := h.app.Players.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) getPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := h.app.Players.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) createPlayer(w http.ResponseWriter, r *http.Request) {
	var payload player.Player
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Players.Create(r.Context(), payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) updatePlayer(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Price     *int           `json:"price"`
		Status    *player.Status `json:"status"`
		Ownership *float64       `json:"ownership_percent"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.app.Players.UpdateDetails(r.Context(), mux.Vars(r)["id"], payload.Price, payload.Status, payload.Ownership)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) playerScores(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Players.Scores(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) recordScore(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Round        int     `json:"round"`
		Opponent     string  `json:"opponent"`
		Venue        string  `json:"venue"`
		Score        int     `json:"score"`
		TimeOnGround float64 `json:"time_on_ground"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	saved, err := h.app.Scores.Record(r.Context(), player.RoundScore{
		PlayerID:     mux.Vars(r)["id"],
		Round:        payload.Round,
		Opponent:     strings.ToUpper(payload.Opponent),
		Venue:        payload.Venue,
		Score:        payload.Score,
		TimeOnGround: payload.TimeOnGround,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *handler) listFixtures(w http.ResponseWriter, r *http.Request) {
	round := 0
	if raw := r.URL.Query().Get("round"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid round %q", raw))
			return
		}
		round = parsed
	}

	fixtures, err := h.app.Fixtures().ListFixtures(r.Context(), round)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fixtures)
}

func (h *handler) createFixture(w http.ResponseWriter, r *http.Request) {
	var payload fixture.Fixture
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.Round <= 0 || payload.HomeTeam == "" || payload.AwayTeam == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("round, home_team and away_team are required"))
		return
	}
	if payload.Status == "" {
		payload.Status = fixture.StatusScheduled
	}

	created, err := h.app.Fixtures().CreateFixture(r.Context(), payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) roundScores(w http.ResponseWriter, r *http.Request) {
	round, err := roundVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.app.Scores.RoundScores(r.Context(), round)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) playerProjection(w http.ResponseWriter, r *http.Request) {
	round, err := strconv.Atoi(r.URL.Query().Get("round"))
	if err != nil || round <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("a positive round query parameter is required"))
		return
	}

	proj, err := h.app.Projections.Get(r.Context(), mux.Vars(r)["id"], round)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, proj)
}

func (h *handler) roundProjections(w http.ResponseWriter, r *http.Request) {
	round, err := roundVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.app.Projections.ListRound(r.Context(), round)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) computeProjections(w http.ResponseWriter, r *http.Request) {
	round, err := roundVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	computed, err := h.app.Projections.ComputeRound(r.Context(), round)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"round":    round,
		"computed": computed,
	})
}

func (h *handler) captainSuggestions(w http.ResponseWriter, r *http.Request) {
	round, err := roundVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
	}
	var playerIDs []string
	if raw := r.URL.Query().Get("players"); raw != "" {
		playerIDs = strings.Split(raw, ",")
	}

	suggestions, err := h.app.Captain.Suggest(r.Context(), round, playerIDs, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (h *handler) analyzeTrade(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PlayerOutID string `json:"player_out_id"`
		PlayerInID  string `json:"player_in_id"`
		Round       int    `json:"round"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	analysis, err := h.app.Trades.Analyze(r.Context(), payload.PlayerOutID, payload.PlayerInID, payload.Round)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *handler) createSquad(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeServiceError(w, errors.Unauthorized("authentication required"))
		return
	}

	var payload struct {
		Name      string   `json:"name"`
		PlayerIDs []string `json:"player_ids"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	squad, err := h.app.Teams.Create(r.Context(), userID, payload.Name, payload.PlayerIDs)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, squad)
}

func (h *handler) listSquads(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeServiceError(w, errors.Unauthorized("authentication required"))
		return
	}

	squads, err := h.app.Teams.ListForUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, squads)
}

func (h *handler) getSquad(w http.ResponseWriter, r *http.Request) {
	squad, err := h.ownedSquad(w, r)
	if err != nil {
		return
	}
	writeJSON(w, http.StatusOK, squad)
}

func (h *handler) saveLineup(w http.ResponseWriter, r *http.Request) {
	squad, err := h.ownedSquad(w, r)
	if err != nil {
		return
	}

	var payload struct {
		Round         int      `json:"round"`
		OnField       []string `json:"on_field"`
		CaptainID     string   `json:"captain_id"`
		ViceCaptainID string   `json:"vice_captain_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	saved, err := h.app.Teams.SaveLineup(r.Context(), fantasy.Lineup{
		SquadID:       squad.ID,
		Round:         payload.Round,
		OnField:       payload.OnField,
		CaptainID:     payload.CaptainID,
		ViceCaptainID: payload.ViceCaptainID,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *handler) getLineup(w http.ResponseWriter, r *http.Request) {
	squad, err := h.ownedSquad(w, r)
	if err != nil {
		return
	}

	round, err := strconv.Atoi(r.URL.Query().Get("round"))
	if err != nil || round <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("a positive round query parameter is required"))
		return
	}

	lineup, err := h.app.Teams.Lineup(r.Context(), squad.ID, round)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, lineup)
}

func (h *handler) squadTotal(w http.ResponseWriter, r *http.Request) {
	squad, err := h.ownedSquad(w, r)
	if err != nil {
		return
	}

	round, err := strconv.Atoi(r.URL.Query().Get("round"))
	if err != nil || round <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("a positive round query parameter is required"))
		return
	}

	total, err := h.app.Scores.SquadTotal(r.Context(), squad.ID, round)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, total)
}

func (h *handler) executeTrade(w http.ResponseWriter, r *http.Request) {
	squad, err := h.ownedSquad(w, r)
	if err != nil {
		return
	}

	var payload struct {
		Round       int    `json:"round"`
		PlayerOutID string `json:"player_out_id"`
		PlayerInID  string `json:"player_in_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	trade, updated, err := h.app.Teams.ExecuteTrade(r.Context(), squad.ID, payload.Round, payload.PlayerOutID, payload.PlayerInID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"trade": trade,
		"squad": updated,
	})
}

func (h *handler) listTrades(w http.ResponseWriter, r *http.Request) {
	squad, err := h.ownedSquad(w, r)
	if err != nil {
		return
	}

	round := 0
	if raw := r.URL.Query().Get("round"); raw != "" {
		if round, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid round %q", raw))
			return
		}
	}

	result, err := h.app.Teams.Trades(r.Context(), squad.ID, round)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) live(w http.ResponseWriter, r *http.Request) {
	hub := h.app.Scores.Hub()
	if hub == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("live scores are disabled"))
		return
	}
	hub.ServeHTTP(w, r)
}

func (h *handler) syncPlayers(w http.ResponseWriter, r *http.Request) {
	if h.app.Ingest == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("feed ingestion is disabled"))
		return
	}
	result, err := h.app.Ingest.SyncPlayers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) syncFixtures(w http.ResponseWriter, r *http.Request) {
	if h.app.Ingest == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("feed ingestion is disabled"))
		return
	}
	round := 0
	if raw := r.URL.Query().Get("round"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid round %q", raw))
			return
		}
		round = parsed
	}

	result, err := h.app.Ingest.SyncFixtures(r.Context(), round)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) syncScores(w http.ResponseWriter, r *http.Request) {
	if h.app.Ingest == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("feed ingestion is disabled"))
		return
	}
	round, err := roundVar(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.app.Ingest.SyncScores(r.Context(), round)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) listAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}
	writeJSON(w, http.StatusOK, h.audit.listLimit(limit))
}

// ownedSquad loads the squad in the route and checks the caller owns it.
// Admin tokens may access any squad. On failure a response has already
// been written.
func (h *handler) ownedSquad(w http.ResponseWriter, r *http.Request) (fantasy.Squad, error) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeServiceError(w, errors.Unauthorized("authentication required"))
		return fantasy.Squad{}, fmt.Errorf("unauthenticated")
	}

	squad, err := h.app.Teams.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return fantasy.Squad{}, err
	}
	if squad.UserID != userID && middleware.GetUserRole(r.Context()) != "admin" {
		writeServiceError(w, errors.Forbidden("squad belongs to another user"))
		return fantasy.Squad{}, fmt.Errorf("forbidden")
	}
	return squad, nil
}

func roundVar(r *http.Request) (int, error) {
	round, err := strconv.Atoi(mux.Vars(r)["round"])
	if err != nil || round <= 0 {
		return 0, fmt.Errorf("round must be a positive integer")
	}
	return round, nil
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// writeServiceError maps ServiceError codes to HTTP statuses, defaulting
// to 500 for unclassified errors.
func writeServiceError(w http.ResponseWriter, err error) {
	if serviceErr := errors.GetServiceError(err); serviceErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(serviceErr.HTTPStatus)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   serviceErr.Code,
			"message": serviceErr.Message,
		})
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}
