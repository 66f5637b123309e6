package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"gameday-trivia-service/internal/app"
	"gameday-trivia-service/internal/domain"
)

// Handler serves the REST surface of the service.
type Handler struct {
	quiz  *app.QuizService
	games app.GameStore
	chat  app.ChatStore
	hub   *ChatHub
	clock func() time.Time
}

func NewHandler(quiz *app.QuizService, games app.GameStore, chat app.ChatStore, hub *ChatHub) *Handler {
	return &Handler{
		quiz:  quiz,
		games: games,
		chat:  chat,
		hub:   hub,
		clock: time.Now,
	}
}

// Routes wires every endpoint behind the CORS wrapper.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/quiz/{gamePk}/latest", h.latestQuestion)
	mux.HandleFunc("POST /api/quiz/{gamePk}/{quizId}/vote", h.vote)
	mux.HandleFunc("GET /api/quiz/{gamePk}/leaderboard", h.leaderboard)
	mux.HandleFunc("GET /api/quiz/{gamePk}/score", h.score)
	mux.HandleFunc("GET /api/games", h.listGames)
	mux.HandleFunc("GET /api/chat/{gamePk}", h.chatHistory)
	mux.HandleFunc("POST /api/chat/{gamePk}", h.postChat)
	if h.hub != nil {
		mux.HandleFunc("GET /ws/chat", h.hub.ServeWS)
	}
	return withCORS(mux)
}

// withCORS enables wildcard cross-origin access and answers preflights
// with a no-op response.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// quizPayload is the client view of a question; the correct index appears
// only once the reveal time has passed.
type quizPayload struct {
	QuizID       string    `json:"quizId"`
	GamePk       int64     `json:"gamePk"`
	Question     string    `json:"question"`
	Options      []string  `json:"options"`
	Category     string    `json:"category"`
	Detail       string    `json:"detail,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	RevealAt     time.Time `json:"revealAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Revealed     bool      `json:"revealed"`
	CorrectIndex *int      `json:"correctIndex,omitempty"`
}

func (h *Handler) quizView(q domain.Question) quizPayload {
	p := quizPayload{
		QuizID:    q.ID,
		GamePk:    q.GamePk,
		Question:  q.Text,
		Options:   q.Options,
		Category:  q.Category,
		Detail:    q.Detail,
		CreatedAt: q.CreatedAt,
		RevealAt:  q.RevealAt,
		ExpiresAt: q.ExpiresAt,
	}
	if q.Revealed(h.clock()) {
		p.Revealed = true
		p.CorrectIndex = q.CorrectIndex
	}
	return p
}

func (h *Handler) latestQuestion(w http.ResponseWriter, r *http.Request) {
	gamePk, err := parseGamePk(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q, err := h.quiz.LatestQuestion(r.Context(), gamePk)
	if err != nil {
		writeError(w, err)
		return
	}
	if q == nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "quiz": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "quiz": h.quizView(*q)})
}

type voteRequest struct {
	Name        string `json:"name"`
	OptionIndex *int   `json:"optionIndex"`
}

func (h *Handler) vote(w http.ResponseWriter, r *http.Request) {
	gamePk, err := parseGamePk(r)
	if err != nil {
		writeError(w, err)
		return
	}
	quizID := r.PathValue("quizId")

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.OptionIndex == nil {
		writeErrorMessage(w, http.StatusBadRequest, "optionIndex required")
		return
	}

	result, err := h.quiz.RecordVote(r.Context(), gamePk, quizID, req.Name, *req.OptionIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"correct":      result.Correct,
		"correctIndex": result.CorrectIndex,
		"myScore":      result.MyScore,
	})
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	gamePk, err := parseGamePk(r)
	if err != nil {
		writeError(w, err)
		return
	}
	n := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, _ = strconv.Atoi(raw)
	}
	leaders, err := h.quiz.Leaderboard(r.Context(), gamePk, n)
	if err != nil {
		writeError(w, err)
		return
	}
	if leaders == nil {
		leaders = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "leaders": leaders})
}

func (h *Handler) score(w http.ResponseWriter, r *http.Request) {
	gamePk, err := parseGamePk(r)
	if err != nil {
		writeError(w, err)
		return
	}
	score, err := h.quiz.Score(r.Context(), gamePk, r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "score": score})
}

func (h *Handler) listGames(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.clock().UTC().Format("2006-01-02")
	}
	games, err := h.games.GamesByDate(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}
	if games == nil {
		games = []domain.Game{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "date": date, "games": games})
}

func (h *Handler) chatHistory(w http.ResponseWriter, r *http.Request) {
	gamePk, err := parseGamePk(r)
	if err != nil {
		writeError(w, err)
		return
	}
	messages, err := h.chat.RecentMessages(r.Context(), gamePk, 50)
	if err != nil {
		writeError(w, err)
		return
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "messages": messages})
}

type chatRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func (h *Handler) postChat(w http.ResponseWriter, r *http.Request) {
	gamePk, err := parseGamePk(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.Text == "" {
		writeErrorMessage(w, http.StatusBadRequest, "name and text required")
		return
	}
	msg := domain.ChatMessage{
		GamePk: gamePk,
		Name:   req.Name,
		Text:   req.Text,
		SentAt: h.clock().UTC(),
	}
	if err := h.chat.AppendMessage(r.Context(), msg); err != nil {
		writeError(w, err)
		return
	}
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": msg})
}

func parseGamePk(r *http.Request) (int64, error) {
	gamePk, err := strconv.ParseInt(r.PathValue("gamePk"), 10, 64)
	if err != nil || gamePk <= 0 {
		return 0, domain.ErrInvalidGame
	}
	return gamePk, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidGame),
		errors.Is(err, domain.ErrInvalidParticipant),
		errors.Is(err, domain.ErrInvalidOption):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrQuestionNotFound), errors.Is(err, domain.ErrGameNotFound):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrQuestionExpired):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}
