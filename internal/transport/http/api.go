package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"trivia-arena/internal/domain"
	"trivia-arena/internal/game"
)

// APIHandler exposes the player and admin REST surface over the core service.
type APIHandler struct {
	service *game.Service
}

func NewAPIHandler(service *game.Service) *APIHandler {
	return &APIHandler{service: service}
}

// Register mounts all routes on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/player/register", h.registerPlayer)
	mux.HandleFunc("POST /api/player/bet", h.placeBet)
	mux.HandleFunc("POST /api/player/enter_code", h.enterCode)
	mux.HandleFunc("POST /api/player/next_question", h.nextQuestion)
	mux.HandleFunc("POST /api/player/answer", h.submitAnswer)
	mux.HandleFunc("GET /api/questions/round/{round}", h.questionsByRound)
	mux.HandleFunc("GET /api/admin/questions", h.listQuestions)
	mux.HandleFunc("POST /api/admin/questions", h.createQuestion)
	mux.HandleFunc("POST /api/admin/upload", h.uploadImage)
	mux.HandleFunc("GET /api/images/{id}", h.serveImage)
	mux.HandleFunc("POST /api/admin/start_round", h.startRound)
	mux.HandleFunc("POST /api/admin/end_round", h.endRound)
	mux.HandleFunc("POST /api/admin/broadcast_question", h.broadcastQuestion)
	mux.HandleFunc("POST /api/admin/clear_players", h.clearPlayers)
}

func (h *APIHandler) registerPlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "name is required"})
		return
	}
	player, err := h.service.RegisterPlayer(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (h *APIHandler) placeBet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
		Bet      int    `json:"bet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "playerId required"})
		return
	}
	player, err := h.service.PlaceBet(r.Context(), req.PlayerID, req.Bet)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "player": player, "bet": req.Bet})
}

func (h *APIHandler) enterCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
		Code     string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "playerId required"})
		return
	}
	seq, err := h.service.SubmitCode(r.Context(), req.PlayerID, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "selectedQuestions": seq.Selected})
}

func (h *APIHandler) nextQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID string `json:"playerId"`
		Round    int    `json:"round"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "playerId required"})
		return
	}
	result, err := h.service.NextQuestion(r.Context(), req.PlayerID, req.Round)
	if err != nil {
		writeError(w, err)
		return
	}
	if result.Done {
		writeJSON(w, http.StatusOK, map[string]any{"done": true, "message": "all questions completed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"question": result.Question})
}

func (h *APIHandler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID    string `json:"playerId"`
		QuestionID  string `json:"questionId"`
		AnswerIndex any    `json:"answerIndex"`
		AnswerText  string `json:"answerText"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" || req.QuestionID == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "playerId and questionId required"})
		return
	}
	result, err := h.service.SubmitAnswer(r.Context(), req.PlayerID, req.QuestionID, coerceIndex(req.AnswerIndex), req.AnswerText)
	if err != nil {
		writeError(w, err)
		return
	}
	player, _ := h.service.PlayerState(r.Context(), req.PlayerID)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"earned": result.Earned,
		"bonus":  result.Bonus,
		"rank":   result.Rank,
		"player": player,
	})
}

func (h *APIHandler) questionsByRound(w http.ResponseWriter, r *http.Request) {
	round, err := strconv.Atoi(r.PathValue("round"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid round"})
		return
	}
	questions, err := h.service.QuestionsByRound(r.Context(), round)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(questions) == 0 {
		writeJSON(w, http.StatusNotFound, errorPayload{Message: "no questions found for round"})
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *APIHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.ListQuestions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *APIHandler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var q domain.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid question"})
		return
	}
	created, err := h.service.CreateQuestion(r.Context(), &q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (h *APIHandler) uploadImage(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "no file"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "read file"})
		return
	}
	img, err := h.service.StoreImage(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, img)
}

func (h *APIHandler) serveImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.service.GetImage(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: "corrupt image data"})
		return
	}
	if img.ContentType != "" {
		w.Header().Set("Content-Type", img.ContentType)
	}
	_, _ = w.Write(data)
}

func (h *APIHandler) startRound(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Round int `json:"round"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.Round = 1
	}
	if err := h.service.StartRound(r.Context(), req.Round); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *APIHandler) endRound(w http.ResponseWriter, r *http.Request) {
	shortlisted, err := h.service.EndRound(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "shortlisted": shortlisted})
}

func (h *APIHandler) broadcastQuestion(w http.ResponseWriter, r *http.Request) {
	sent, err := h.service.BroadcastNextQuestion(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "sent": sent})
}

func (h *APIHandler) clearPlayers(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearPlayers(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "msg": "all player data cleared"})
}

// coerceIndex turns a loosely typed answerIndex (number or numeric string)
// into an int; anything else counts as no answer rather than an error.
func coerceIndex(v any) *int {
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return &i
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrPlayerNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrImageNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotEligible):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNameTaken),
		errors.Is(err, domain.ErrDuplicateBet),
		errors.Is(err, domain.ErrDuplicateAnswer):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrInvalidCode),
		errors.Is(err, domain.ErrNoMapping),
		errors.Is(err, domain.ErrNoQuestions),
		errors.Is(err, domain.ErrInsufficientPoints),
		errors.Is(err, domain.ErrNoBet),
		errors.Is(err, domain.ErrNoCodeSequence),
		errors.Is(err, domain.ErrCodeRequired),
		errors.Is(err, domain.ErrRoundNotActive):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}
