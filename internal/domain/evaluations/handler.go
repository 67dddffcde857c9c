package evaluations

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vet-cardio-screening/internal/apperr"
	"vet-cardio-screening/internal/domain/page"
	"vet-cardio-screening/internal/middleware"
	"vet-cardio-screening/internal/platform/web"
	"vet-cardio-screening/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

// audio de soplo cardiaco: 10MB alcanzan de sobra para WAV de auscultación
const maxAudioBytes = 10 << 20

func RegisterRoutes(r chi.Router, svc *Service, wf *Workflow) {
	r.Route("/dogs/{dogID}", func(dr chi.Router) {
		dr.Post("/evaluate-audio", submitAudioHandler(wf))
		dr.Get("/evaluation-draft", runStatusHandler(wf))
		dr.Patch("/evaluation-draft", amendDraftHandler(wf))
		dr.Delete("/evaluation-draft", cancelHandler(wf))
		dr.Post("/evaluation-retry", retryHandler(wf))
		dr.Post("/evaluations", confirmHandler(wf))
		dr.Get("/evaluations", listEvaluationsHandler(svc))
	})
}

type draftResponse struct {
	Raza           string `json:"raza"`
	Edad           int    `json:"edad"`
	SoploCardiaco  string `json:"soploCardiaco"`
	EsRiesgo       bool   `json:"esRiesgo"`
	DatosResultado string `json:"datosResultado"`
}

type runResponse struct {
	State     string         `json:"state"`
	Retryable bool           `json:"retryable"`
	Error     string         `json:"error,omitempty"`
	Draft     *draftResponse `json:"draft,omitempty"`
}

type amendDraftRequest struct {
	Raza          *string `json:"raza"`
	Edad          *int    `json:"edad"`
	SoploCardiaco *string `json:"soploCardiaco"`
	EsRiesgo      *bool   `json:"esRiesgo"`
}

type confirmRequest struct {
	Comentarios    string  `json:"comentarios"`
	IdempotencyKey string  `json:"idempotencyKey"`
	Raza           *string `json:"raza"`
	Edad           *int    `json:"edad"`
	SoploCardiaco  *string `json:"soploCardiaco"`
	EsRiesgo       *bool   `json:"esRiesgo"`
}

type evaluationResponse struct {
	ID          string `json:"id"`
	DogID       string `json:"dogId"`
	Fecha       string `json:"fecha"`
	Resultado   string `json:"resultado"`
	Comentarios string `json:"comentarios"`
}

type evaluationListResponse struct {
	Items    []evaluationResponse `json:"items"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"pageSize"`
}

// submitAudioHandler godoc
// @Summary Subir audio de soplo cardiaco
// @Description Solo rol veterinario. El body es el audio crudo (WAV o MP3, Content-Type audio/*). Dispara la inferencia y devuelve el borrador editable o el estado de falla.
// @Tags evaluations
// @Accept octet-stream
// @Produce json
// @Param dogID path string true "ID del perro"
// @Success 200 {object} runResponse
// @Failure 400 {object} web.ErrorBody
// @Failure 401 {object} web.ErrorBody
// @Failure 403 {object} web.ErrorBody
// @Failure 404 {object} web.ErrorBody
// @Failure 409 {object} web.ErrorBody "Ya hay una evaluación en curso"
// @Failure 503 {object} web.ErrorBody "Servicio de inferencia no disponible"
// @Failure 504 {object} web.ErrorBody "Timeout de inferencia"
// @Router /dogs/{dogID}/evaluate-audio [post]
func submitAudioHandler(wf *Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		audio, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes+1))
		if err != nil {
			web.WriteError(w, fmt.Errorf("%w: no se pudo leer el audio", apperr.ErrInvalid))
			return
		}
		if len(audio) > maxAudioBytes {
			web.WriteError(w, fmt.Errorf("%w: audio excede %d bytes", apperr.ErrInvalid, maxAudioBytes))
			return
		}

		view, err := wf.SubmitAudio(r.Context(), claims, chi.URLParam(r, "dogID"),
			audio, r.Header.Get("Content-Type"))
		if err != nil {
			web.WriteError(w, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, toRunResponse(view))
	}
}

// runStatusHandler godoc
// @Summary Estado de la evaluación en curso
// @Description Devuelve el estado del run de esta sesión para el perro; idle si no hay ninguno.
// @Tags evaluations
// @Produce json
// @Param dogID path string true "ID del perro"
// @Success 200 {object} runResponse
// @Router /dogs/{dogID}/evaluation-draft [get]
func runStatusHandler(wf *Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		view, _ := wf.Run(claims, chi.URLParam(r, "dogID"))
		web.WriteJSON(w, http.StatusOK, toRunResponse(view))
	}
}

// amendDraftHandler godoc
// @Summary Corregir el borrador de evaluación
// @Description Solo rol veterinario y solo con un borrador activo (draft_ready). Campos ausentes no se tocan.
// @Tags evaluations
// @Accept json
// @Produce json
// @Param dogID path string true "ID del perro"
// @Param payload body amendDraftRequest true "Campos del borrador a corregir"
// @Success 200 {object} runResponse
// @Failure 409 {object} web.ErrorBody
// @Router /dogs/{dogID}/evaluation-draft [patch]
func amendDraftHandler(wf *Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req amendDraftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			web.WriteError(w, fmt.Errorf("%w: invalid json", apperr.ErrInvalid))
			return
		}

		view, err := wf.AmendDraft(claims, chi.URLParam(r, "dogID"), AmendInput{
			Raza:          req.Raza,
			Edad:          req.Edad,
			SoploCardiaco: req.SoploCardiaco,
			EsRiesgo:      req.EsRiesgo,
		})
		if err != nil {
			web.WriteError(w, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, toRunResponse(view))
	}
}

// confirmHandler godoc
// @Summary Confirmar evaluación
// @Description Solo rol veterinario. Aplica las últimas correcciones, clasifica el resultado de forma determinista y persiste la evaluación. Reintentable con la misma clave de idempotencia tras una falla de persistencia.
// @Tags evaluations
// @Accept json
// @Produce json
// @Param dogID path string true "ID del perro"
// @Param payload body confirmRequest true "Comentarios, clave de idempotencia opcional y correcciones finales"
// @Success 201 {object} evaluationResponse
// @Failure 409 {object} web.ErrorBody
// @Failure 500 {object} web.ErrorBody "Falla de persistencia (reintentable)"
// @Router /dogs/{dogID}/evaluations [post]
func confirmHandler(wf *Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req confirmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			web.WriteError(w, fmt.Errorf("%w: invalid json", apperr.ErrInvalid))
			return
		}

		dogID := chi.URLParam(r, "dogID")

		// correcciones de último momento antes de confirmar
		if req.Raza != nil || req.Edad != nil || req.SoploCardiaco != nil || req.EsRiesgo != nil {
			if _, err := wf.AmendDraft(claims, dogID, AmendInput{
				Raza:          req.Raza,
				Edad:          req.Edad,
				SoploCardiaco: req.SoploCardiaco,
				EsRiesgo:      req.EsRiesgo,
			}); err != nil {
				web.WriteError(w, err)
				return
			}
		}

		view, err := wf.Confirm(r.Context(), claims, dogID, req.Comentarios, req.IdempotencyKey)
		if err != nil {
			web.WriteError(w, err)
			return
		}
		if view.Persisted == nil {
			web.WriteError(w, apperr.ErrPersistence)
			return
		}
		web.WriteJSON(w, http.StatusCreated, toEvaluationResponse(*view.Persisted))
	}
}

// retryHandler godoc
// @Summary Reintentar un run fallido
// @Description Solo rol veterinario. Repite la inferencia con el mismo audio o el persist con la misma clave, según dónde falló el run.
// @Tags evaluations
// @Produce json
// @Param dogID path string true "ID del perro"
// @Success 200 {object} runResponse
// @Failure 404 {object} web.ErrorBody
// @Failure 409 {object} web.ErrorBody
// @Router /dogs/{dogID}/evaluation-retry [post]
func retryHandler(wf *Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		view, err := wf.Retry(r.Context(), claims, chi.URLParam(r, "dogID"))
		if err != nil {
			web.WriteError(w, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, toRunResponse(view))
	}
}

// cancelHandler godoc
// @Summary Cancelar la evaluación en curso
// @Description Solo rol veterinario. Descarta audio y borrador; si hay una inferencia en vuelo se abandona. Nunca queda una evaluación parcial escrita.
// @Tags evaluations
// @Produce json
// @Param dogID path string true "ID del perro"
// @Success 200 {object} runResponse
// @Failure 409 {object} web.ErrorBody
// @Router /dogs/{dogID}/evaluation-draft [delete]
func cancelHandler(wf *Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		view, err := wf.Cancel(claims, chi.URLParam(r, "dogID"))
		if err != nil {
			web.WriteError(w, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, toRunResponse(view))
	}
}

// listEvaluationsHandler godoc
// @Summary Historial de evaluaciones de un perro
// @Description Disponible para ambos roles. Orden: más reciente primero.
// @Tags evaluations
// @Produce json
// @Param dogID path string true "ID del perro"
// @Param page query int false "Página (1-indexada)"
// @Param pageSize query int false "Tamaño de página"
// @Success 200 {object} evaluationListResponse
// @Failure 404 {object} web.ErrorBody
// @Router /dogs/{dogID}/evaluations [get]
func listEvaluationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		q := r.URL.Query()
		pg, _ := strconv.Atoi(q.Get("page"))
		size, _ := strconv.Atoi(q.Get("pageSize"))
		p := svc.NormalizePage(page.Params{Page: pg, Size: size})

		items, total, err := svc.ListByDog(r.Context(), claims.Role, chi.URLParam(r, "dogID"), p)
		if err != nil {
			web.WriteError(w, err)
			return
		}

		out := make([]evaluationResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEvaluationResponse(e))
		}
		web.WriteJSON(w, http.StatusOK, evaluationListResponse{
			Items:    out,
			Total:    total,
			Page:     p.Page,
			PageSize: p.Size,
		})
	}
}

func toRunResponse(v RunView) runResponse {
	resp := runResponse{
		State:     string(v.State),
		Retryable: v.Retryable,
		Error:     v.LastError,
	}
	if v.Draft != nil {
		resp.Draft = &draftResponse{
			Raza:           v.Draft.Raza,
			Edad:           v.Draft.Edad,
			SoploCardiaco:  v.Draft.SoploCardiaco,
			EsRiesgo:       v.Draft.EsRiesgo,
			DatosResultado: v.Draft.DatosResultado,
		}
	}
	return resp
}

func toEvaluationResponse(e Evaluation) evaluationResponse {
	return evaluationResponse{
		ID:          e.ID,
		DogID:       e.DogID,
		Fecha:       e.Fecha.Format(time.RFC3339),
		Resultado:   string(e.Resultado),
		Comentarios: e.Comentarios,
	}
}

func requireClaims(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		web.WriteError(w, apperr.ErrUnauthorized)
		return auth.Claims{}, false
	}
	return claims, true
}
