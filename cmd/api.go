package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/inkwell-hq/formfill/internal/answer"
	"github.com/inkwell-hq/formfill/internal/engine"
	"github.com/inkwell-hq/formfill/internal/merge"
	"github.com/inkwell-hq/formfill/internal/model"
	"github.com/inkwell-hq/formfill/internal/store"
	"github.com/inkwell-hq/formfill/pkg/reasoning"
)

// api holds the HTTP handlers over the engine and store.
type api struct {
	store  store.Store
	engine *engine.Engine
}

func newAPI(st store.Store, eng *engine.Engine) *api {
	return &api{store: st, engine: eng}
}

func mountAPI(router chi.Router, a *api) {
	router.Get("/health", a.health)
	router.Route("/documents/{documentID}", func(r chi.Router) {
		r.Get("/fields", a.listFields)
		r.Get("/questions", a.listQuestions)
		r.Post("/questions/{questionID}/answer", a.answerQuestion)
		r.Post("/merge", a.runMerge)
		r.Post("/qc", a.decideQC)
	})
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) listFields(w http.ResponseWriter, r *http.Request) {
	fields, err := a.store.ListFields(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if fields == nil {
		fields = []model.Field{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": fields})
}

func (a *api) listQuestions(w http.ResponseWriter, r *http.Request) {
	status := model.QuestionStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, model.Validationf("unknown status %q", status))
		return
	}
	questions, err := a.store.ListQuestions(r.Context(), chi.URLParam(r, "documentID"), status)
	if err != nil {
		writeError(w, err)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

type answerRequest struct {
	Answer       string              `json:"answer"`
	MemoryChoice *model.MemoryChoice `json:"memory_choice,omitempty"`
	Time         model.TimeContext   `json:"time_context"`
}

func (a *api) answerQuestion(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.Validationf("invalid request body"))
		return
	}

	outcome, err := a.engine.AnswerQuestion(r.Context(),
		chi.URLParam(r, "documentID"), chi.URLParam(r, "questionID"),
		answer.Request{Answer: req.Answer, MemoryChoice: req.MemoryChoice, Time: req.Time})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

type mergeRequest struct {
	Pages []struct {
		PageNumber int    `json:"page_number"`
		MediaType  string `json:"media_type"`
		ImageData  string `json:"image_base64"`
	} `json:"pages"`
}

func (a *api) runMerge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, model.Validationf("invalid request body"))
		return
	}

	pages := make([]merge.PageImage, 0, len(req.Pages))
	for _, p := range req.Pages {
		pages = append(pages, merge.PageImage{
			PageNumber: p.PageNumber,
			Image:      reasoning.Image{MediaType: p.MediaType, Data: p.ImageData},
		})
	}

	report, err := a.engine.RunMerge(r.Context(), chi.URLParam(r, "documentID"), pages)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *api) decideQC(w http.ResponseWriter, r *http.Request) {
	decision, err := a.engine.DecideQC(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case eris.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case eris.Is(err, model.ErrValidation):
		status = http.StatusBadRequest
	case eris.Is(err, reasoning.ErrUnavailable):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
