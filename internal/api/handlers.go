package api

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/example/lexigo/internal/arena"
	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/internal/progress"
	"github.com/example/lexigo/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

type profileRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func (h *handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Repos.Profiles.Get(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// putProfile logs the user in, keeping the id and medals of an existing profile
func (h *handlers) putProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeBody(w, r, maxRequestBodySize, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.fail(w, r, badRequest("name is required"))
		return
	}

	profile, err := h.Repos.Profiles.Get(r.Context())
	switch {
	case errors.Is(err, database.ErrNoProfile):
		profile = &models.UserProfile{ID: uuid.NewString(), Medals: []string{}}
	case err != nil:
		h.fail(w, r, err)
		return
	}
	profile.Name = req.Name
	profile.Avatar = req.Avatar
	profile.IsLoggedIn = true

	if err := h.Repos.Profiles.Save(r.Context(), profile); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type categoriesResponse struct {
	Categories []models.Category `json:"categories"`
	Selected   string            `json:"selected"`
}

func (h *handlers) listCategories(w http.ResponseWriter, r *http.Request) {
	selected, err := h.lastCategory(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: models.Categories, Selected: selected})
}

func (h *handlers) lastCategory(r *http.Request) (string, error) {
	return h.Repos.Profiles.LastCategory(r.Context())
}

type badgeView struct {
	progress.Badge
	Unlocked bool `json:"unlocked"`
}

type statsResponse struct {
	Stats    models.AppStats         `json:"stats"`
	Pet      progress.PetStage       `json:"pet"`
	Badges   []badgeView             `json:"badges"`
	Notebook progress.NotebookReport `json:"notebook"`
}

func (h *handlers) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Repos.Stats.Get(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	notebook, err := h.Repos.Notebook.All(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	badges := make([]badgeView, len(progress.Badges))
	for i, b := range progress.Badges {
		badges[i] = badgeView{Badge: b, Unlocked: stats.HasBadge(b.ID)}
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Stats:    stats,
		Pet:      progress.PetStageFor(stats.TotalWords),
		Badges:   badges,
		Notebook: progress.Analyze(h.srs, notebook, h.Clock.Today()),
	})
}

func (h *handlers) dailySentence(w http.ResponseWriter, r *http.Request) {
	sentence, err := h.Coach.DailySentence(r.Context())
	if err != nil {
		h.fail(w, r, generatorError(err))
		return
	}
	writeJSON(w, http.StatusOK, sentence)
}

type notebookResponse struct {
	Words []models.WordRecord `json:"words"`
	Total int                 `json:"total"`
}

func (h *handlers) listNotebook(w http.ResponseWriter, r *http.Request) {
	mode, err := progress.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	notebook, err := h.Repos.Notebook.All(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	words := progress.Filter(h.srs, notebook, r.URL.Query().Get("q"), mode)
	writeJSON(w, http.StatusOK, notebookResponse{Words: words, Total: len(notebook)})
}

type dueResponse struct {
	Words []models.WordRecord `json:"words"`
	Count int                 `json:"count"`
}

// listDue returns every word due today in notebook order
func (h *handlers) listDue(w http.ResponseWriter, r *http.Request) {
	notebook, err := h.Repos.Notebook.All(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	words := h.srs.SelectDue(notebook, h.Clock.Today(), len(notebook))
	writeJSON(w, http.StatusOK, dueResponse{Words: words, Count: len(words)})
}

type lessonRequest struct {
	Category string `json:"category"`
}

type judgmentRequest struct {
	Known *bool `json:"known"`
}

// startLesson opens a lesson, an empty body means the last used category
func (h *handlers) startLesson(w http.ResponseWriter, r *http.Request) {
	var req lessonRequest
	if err := decodeBody(w, r, maxRequestBodySize, &req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(w, r, err)
		return
	}
	if req.Category == "" {
		category, err := h.lastCategory(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		req.Category = category
	}

	session, err := h.Lessons.Start(r.Context(), req.Category)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session.View())
}

func (h *handlers) getLesson(w http.ResponseWriter, r *http.Request) {
	session, err := h.Lessons.Sessions().Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

func (h *handlers) judge(w http.ResponseWriter, r *http.Request) {
	session, err := h.Lessons.Sessions().Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req judgmentRequest
	if err := decodeBody(w, r, maxRequestBodySize, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Known == nil {
		h.fail(w, r, badRequest("known is required"))
		return
	}

	outcome, err := h.Lessons.Respond(r.Context(), session, *req.Known)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

type arenaView struct {
	ID          string          `json:"id"`
	Total       int             `json:"total"`
	TimeLimitMs int64           `json:"timeLimitMs"`
	Question    *arena.Question `json:"question,omitempty"`
}

type answerRequest struct {
	Choice string `json:"choice"`
}

func (h *handlers) startArena(w http.ResponseWriter, r *http.Request) {
	game, err := h.Arena.Start(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	view := arenaView{ID: game.ID, Total: game.Len(), TimeLimitMs: arena.QuestionTimeLimit.Milliseconds()}
	if q, _, ok := game.Current(h.Arena.Now()); ok {
		view.Question = &q
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *handlers) answerArena(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(w, r, maxRequestBodySize, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	outcome, err := h.Arena.Answer(r.Context(), chi.URLParam(r, "id"), req.Choice)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

type pronunciationRequest struct {
	Word  string `json:"word"`
	Audio string `json:"audio"` // base64 WAV
}

func (h *handlers) pronunciation(w http.ResponseWriter, r *http.Request) {
	var req pronunciationRequest
	if err := decodeBody(w, r, maxAudioBodySize, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Word) == "" {
		h.fail(w, r, badRequest("word is required"))
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		h.fail(w, r, badRequest("audio must be base64: %v", err))
		return
	}
	if len(audio) == 0 {
		h.fail(w, r, badRequest("audio is required"))
		return
	}

	result, err := h.Coach.EvaluatePronunciation(r.Context(), req.Word, audio)
	if err != nil {
		h.fail(w, r, generatorError(err))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
