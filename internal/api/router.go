// Package api serves the reader over JSON and pushes progress over a websocket.
package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/internal/app"
	"github.com/James99309/stargirl-reader/internal/economy"
	"github.com/James99309/stargirl-reader/pkg/models"
)

// ProgressView is the progress state plus the values derived from it
type ProgressView struct {
	models.Progress
	Level       int                `json:"level"`
	HeartState  economy.HeartState `json:"heart_state"`
	NextHeartAt *time.Time         `json:"next_heart_at,omitempty"`
}

func viewOf(p models.Progress) *ProgressView {
	v := &ProgressView{
		Progress:   p,
		Level:      economy.LevelFor(p.TotalXP),
		HeartState: economy.StateOf(p),
	}
	if p.Hearts < p.MaxHearts && p.LastHeartLoss != nil {
		next := p.LastHeartLoss.Add(economy.HeartRegenInterval)
		v.NextHeartAt = &next
	}
	return v
}

// Handler serves the API routes
type Handler struct {
	app    *app.App
	hub    *Hub
	logger *zap.Logger
}

// NewHandler creates the handler and starts pushing progress changes to websocket clients
func NewHandler(a *app.App, logger *zap.Logger) *Handler {
	h := &Handler{app: a, logger: logger}
	h.hub = NewHub(func() Message {
		return Message{Type: "progress", Progress: viewOf(a.Economy.Snapshot())}
	}, logger.Named("ws"))
	a.Economy.OnChange(func(p models.Progress) {
		h.hub.Broadcast(Message{Type: "progress", Progress: viewOf(p)})
	})
	return h
}

// Hub returns the websocket hub
func (h *Handler) Hub() *Hub {
	return h.hub
}

// NewRouter builds the HTTP routes
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/ws", h.hub.HandleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/redeem", h.Redeem)
		r.Put("/location", h.UpdateLocation)
		r.Get("/leaderboard", h.Leaderboard)
		r.Post("/speech", h.Speak)
		r.Delete("/speech", h.StopSpeaking)

		r.Route("/progress", func(r chi.Router) {
			r.Get("/", h.GetProgress)
			r.Post("/hearts/check", h.CheckHearts)
			r.Post("/hearts/exchange", h.ExchangeHeart)
			r.Post("/membership", h.PurchaseMembership)
			r.Post("/streak", h.UpdateStreak)
			r.Post("/xp", h.AddXP)
			r.Post("/quiz", h.RecordQuiz)
			r.Post("/onboarding", h.CompleteOnboarding)
			r.Get("/achievements/{id}", h.GetAchievement)
			r.Post("/achievements/{id}", h.UnlockAchievement)
			r.Put("/goal", h.SetDailyGoal)
			r.Put("/position", h.SetPosition)
		})

		r.Post("/chapters/{id}/complete", h.CompleteChapter)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.StartSession)
			r.Delete("/", h.EndSession)
			r.Post("/reward", h.ClaimReadingReward)
		})

		r.Route("/words", func(r chi.Router) {
			r.Get("/", h.ListWords)
			r.Post("/", h.AddWord)
			r.Post("/lookup", h.LookupWord)
			r.Post("/learn", h.LearnWord)
			r.Get("/{word}", h.GetWord)
			r.Delete("/{word}", h.DeleteWord)
			r.Put("/{word}/save", h.SaveWord)
			r.Delete("/{word}/save", h.UnsaveWord)
			r.Post("/{word}/viewed", h.MarkViewed)
		})

		r.Route("/review", func(r chi.Router) {
			r.Get("/due", h.DueWords)
			r.Post("/sessions", h.StartReview)
			r.Get("/sessions/{id}", h.GetReview)
			r.Post("/sessions/{id}/answer", h.AnswerReview)
			r.Delete("/sessions/{id}", h.EndReview)
		})
	})

	return r
}

func wordParam(r *http.Request) string {
	raw := chi.URLParam(r, "word")
	if word, err := url.PathUnescape(raw); err == nil {
		return word
	}
	return raw
}
