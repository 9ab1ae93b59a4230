package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scrim-tracker/internal/constants"
	"scrim-tracker/internal/domain"
	"scrim-tracker/internal/repository"
	"scrim-tracker/internal/service"
	"scrim-tracker/internal/state"
)

// TrackerServer exposes the match lifecycle as a JSON HTTP API.
type TrackerServer struct {
	matchSvc *service.MatchService
	gameSvc  *service.GameService
	logger   zerolog.Logger
}

func NewTrackerServer(matchSvc *service.MatchService, gameSvc *service.GameService, logger zerolog.Logger) *TrackerServer {
	return &TrackerServer{matchSvc: matchSvc, gameSvc: gameSvc, logger: logger}
}

func (s *TrackerServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /matches", s.handleCreateMatch)
	mux.HandleFunc("GET /matches/{id}", s.handleGetMatch)
	mux.HandleFunc("POST /matches/{id}/bans", s.handleSubmitBans)
	mux.HandleFunc("POST /matches/{id}/bans/confirm", s.handleConfirmBans)
	mux.HandleFunc("POST /matches/{id}/start", s.handleStartMatch)
	mux.HandleFunc("POST /matches/{id}/cancel", s.handleCancelMatch)
	mux.HandleFunc("POST /matches/{id}/forfeit", s.handleForfeitMatch)
	mux.HandleFunc("POST /matches/{id}/games", s.handleCreateNextGame)
	mux.HandleFunc("GET /games/{id}", s.handleGetGame)
	mux.HandleFunc("POST /games/{id}/deck", s.handleSubmitDeck)
	mux.HandleFunc("POST /games/{id}/deck/confirm", s.handleConfirmDeck)
	mux.HandleFunc("POST /games/{id}/start", s.handleStartGame)
	mux.HandleFunc("POST /games/{id}/replays", s.handleUploadReplay)
	mux.HandleFunc("GET /teams/{id}/stats", s.handleTeamStats)
}

type actorPayload struct {
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
}

func (a actorPayload) toActor() state.Actor {
	return state.Actor{UserID: a.UserID, UserName: a.UserName}
}

type createMatchRequest struct {
	Team1ID          uuid.UUID          `json:"team1_id"`
	Team2ID          uuid.UUID          `json:"team2_id"`
	Team1PlayerIDs   []uuid.UUID        `json:"team1_player_ids"`
	Team2PlayerIDs   []uuid.UUID        `json:"team2_player_ids"`
	TeamSize         int                `json:"team_size"`
	BestOf           int                `json:"best_of"`
	PlayToCompletion bool               `json:"play_to_completion"`
	ParentID         *uuid.UUID         `json:"parent_id,omitempty"`
	ParentType       *domain.ParentType `json:"parent_type,omitempty"`
	AvailableMaps    []string           `json:"available_maps"`
	Actor            actorPayload       `json:"actor"`
}

func (s *TrackerServer) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	m, err := s.matchSvc.CreateMatch(r.Context(), service.CreateMatchParams{
		Team1ID:          req.Team1ID,
		Team2ID:          req.Team2ID,
		Team1PlayerIDs:   req.Team1PlayerIDs,
		Team2PlayerIDs:   req.Team2PlayerIDs,
		TeamSize:         domain.TeamSize(req.TeamSize - 1),
		BestOf:           req.BestOf,
		PlayToCompletion: req.PlayToCompletion,
		ParentID:         req.ParentID,
		ParentType:       req.ParentType,
		AvailableMaps:    req.AvailableMaps,
		Actor:            req.Actor.toActor(),
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeMatch(w, r, http.StatusCreated, m)
}

func (s *TrackerServer) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	m, err := s.matchSvc.GetMatch(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeMatch(w, r, http.StatusOK, m)
}

type submitBansRequest struct {
	TeamID uuid.UUID    `json:"team_id"`
	Bans   []string     `json:"bans"`
	Actor  actorPayload `json:"actor"`
}

func (s *TrackerServer) handleSubmitBans(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req submitBansRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	m, err := s.matchSvc.SubmitMapBans(r.Context(), id, req.TeamID, req.Bans, req.Actor.toActor())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeMatch(w, r, http.StatusOK, m)
}

type confirmBansRequest struct {
	TeamID uuid.UUID    `json:"team_id"`
	Actor  actorPayload `json:"actor"`
}

func (s *TrackerServer) handleConfirmBans(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req confirmBansRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	m, err := s.matchSvc.ConfirmMapBans(r.Context(), id, req.TeamID, req.Actor.toActor())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeMatch(w, r, http.StatusOK, m)
}

type startMatchRequest struct {
	FirstMapID uuid.UUID    `json:"first_map_id"`
	Actor      actorPayload `json:"actor"`
}

func (s *TrackerServer) handleStartMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req startMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	m, err := s.matchSvc.StartMatch(r.Context(), id, req.FirstMapID, req.Actor.toActor())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeMatch(w, r, http.StatusOK, m)
}

type cancelMatchRequest struct {
	Reason string       `json:"reason"`
	Actor  actorPayload `json:"actor"`
}

func (s *TrackerServer) handleCancelMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req cancelMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	m, err := s.matchSvc.CancelMatch(r.Context(), id, req.Reason, req.Actor.toActor())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeMatch(w, r, http.StatusOK, m)
}

type forfeitMatchRequest struct {
	TeamID uuid.UUID    `json:"team_id"`
	Reason string       `json:"reason"`
	Actor  actorPayload `json:"actor"`
}

func (s *TrackerServer) handleForfeitMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req forfeitMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	m, err := s.matchSvc.ForfeitMatch(r.Context(), id, req.TeamID, req.Reason, req.Actor.toActor())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeMatch(w, r, http.StatusOK, m)
}

type createGameRequest struct {
	MapID uuid.UUID    `json:"map_id"`
	Actor actorPayload `json:"actor"`
}

func (s *TrackerServer) handleCreateNextGame(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	g, err := s.gameSvc.CreateNextGame(r.Context(), id, req.MapID, req.Actor.toActor())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeGame(w, r, http.StatusCreated, g)
}

func (s *TrackerServer) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	g, err := s.gameSvc.GetGame(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeGame(w, r, http.StatusOK, g)
}

type submitDeckRequest struct {
	PlayerID uuid.UUID    `json:"player_id"`
	DeckCode string       `json:"deck_code"`
	Actor    actorPayload `json:"actor"`
}

func (s *TrackerServer) handleSubmitDeck(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req submitDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	g, err := s.gameSvc.SubmitDeck(r.Context(), id, req.PlayerID, req.DeckCode, req.Actor.toActor())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeGame(w, r, http.StatusOK, g)
}

type confirmDeckRequest struct {
	PlayerID uuid.UUID    `json:"player_id"`
	Actor    actorPayload `json:"actor"`
}

func (s *TrackerServer) handleConfirmDeck(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req confirmDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	g, err := s.gameSvc.ConfirmDeck(r.Context(), id, req.PlayerID, req.Actor.toActor())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeGame(w, r, http.StatusOK, g)
}

type startGameRequest struct {
	Actor actorPayload `json:"actor"`
}

func (s *TrackerServer) handleStartGame(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req startGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	g, err := s.gameSvc.StartGame(r.Context(), id, req.Actor.toActor())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeGame(w, r, http.StatusOK, g)
}

// handleUploadReplay accepts a multipart upload with a "replay" file part and
// an "actor" JSON part.
func (s *TrackerServer) handleUploadReplay(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(constants.MaxReplayUploadBytes); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	file, header, err := r.FormFile("replay")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	var actor actorPayload
	if raw := r.FormValue("actor"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &actor); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
	}

	rep, err := s.gameSvc.UploadReplay(r.Context(), id, header.Filename, data, actor.toActor())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, rep)
}

func (s *TrackerServer) handleTeamStats(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	sizeParam := r.URL.Query().Get("team_size")
	size := 1
	if sizeParam != "" {
		var err error
		size, err = strconv.Atoi(sizeParam)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
	}
	overview, err := s.matchSvc.GetTeamOverview(r.Context(), id, domain.TeamSize(size-1))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"stats":            overview.Stats,
		"variety":          overview.Variety,
		"effective_rating": overview.EffectiveRating,
	})
}

type matchResponse struct {
	*domain.Match
	Status domain.MatchStatus `json:"status"`
}

func (s *TrackerServer) writeMatch(w http.ResponseWriter, r *http.Request, code int, m *domain.Match) {
	s.writeJSON(w, r, code, matchResponse{Match: m, Status: state.MatchStatus(m)})
}

type gameResponse struct {
	*domain.Game
	Status domain.GameStatus `json:"status"`
}

func (s *TrackerServer) writeGame(w http.ResponseWriter, r *http.Request, code int, g *domain.Game) {
	s.writeJSON(w, r, code, gameResponse{Game: g, Status: state.GameStatus(g)})
}

func (s *TrackerServer) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return uuid.Nil, false
	}
	return id, true
}

func (s *TrackerServer) writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("failed to encode response")
	}
}

func (s *TrackerServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeError(w, r, statusFor(err), err)
}

func (s *TrackerServer) writeError(w http.ResponseWriter, r *http.Request, code int, err error) {
	s.logger.Warn().Err(err).Str("path", r.URL.Path).Int("status", code).Msg("request failed")
	s.writeJSON(w, r, code, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrIllegalTransition),
		errors.Is(err, service.ErrAmbiguousOutcome),
		errors.Is(err, service.ErrMatchAlreadyEnded):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidTeamSize),
		errors.Is(err, service.ErrInvalidBestOf),
		errors.Is(err, service.ErrInvalidParent),
		errors.Is(err, service.ErrUnknownTeam),
		errors.Is(err, service.ErrUnknownPlayer):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrMatchNotReady),
		errors.Is(err, service.ErrGameNotReady),
		errors.Is(err, service.ErrBansNotSubmitted),
		errors.Is(err, service.ErrDeckNotSubmitted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrReplayTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
