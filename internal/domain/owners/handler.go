package owners

import (
	"encoding/json"
	"fmt"
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

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/owners", func(or chi.Router) {
		or.Get("/", listOwnersHandler(svc))
		or.Post("/", createOwnerHandler(svc))
		or.Get("/{ownerID}", getOwnerHandler(svc))
		or.Put("/{ownerID}", updateOwnerHandler(svc))
		or.Delete("/{ownerID}", deleteOwnerHandler(svc))
	})
}

type ownerRequest struct {
	Nombres         *string `json:"nombres"`
	Apellidos       *string `json:"apellidos"`
	DNI             *string `json:"dni"`
	Celular         *string `json:"celular"`
	Correo          *string `json:"correo"`
	Direccion       *string `json:"direccion"`
	Sexo            *string `json:"sexo" enums:"Masculino,Femenino"`
	FechaNacimiento *string `json:"fechaNacimiento"` // YYYY-MM-DD
}

type ownerResponse struct {
	ID              string `json:"id"`
	Nombres         string `json:"nombres"`
	Apellidos       string `json:"apellidos"`
	DNI             string `json:"dni"`
	Celular         string `json:"celular"`
	Correo          string `json:"correo"`
	Direccion       string `json:"direccion"`
	Sexo            string `json:"sexo"`
	FechaNacimiento string `json:"fechaNacimiento,omitempty"`
}

type ownerListResponse struct {
	Items    []ownerResponse `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

// listOwnersHandler godoc
// @Summary Listar propietarios
// @Description Búsqueda por substring (case-insensitive) sobre nombres, apellidos, dni y celular. Disponible para ambos roles.
// @Tags owners
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param search query string false "Texto de búsqueda"
// @Param page query int false "Página (1-indexada)"
// @Param pageSize query int false "Tamaño de página (acotado por el servidor)"
// @Success 200 {object} ownerListResponse
// @Failure 401 {object} web.ErrorBody
// @Router /owners [get]
func listOwnersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		p := svc.NormalizePage(parsePage(r))
		items, total, err := svc.List(r.Context(), claims.Role, r.URL.Query().Get("search"), p)
		if err != nil {
			web.WriteError(w, err)
			return
		}

		out := make([]ownerResponse, 0, len(items))
		for _, o := range items {
			out = append(out, toOwnerResponse(o))
		}
		web.WriteJSON(w, http.StatusOK, ownerListResponse{
			Items:    out,
			Total:    total,
			Page:     p.Page,
			PageSize: p.Size,
		})
	}
}

// createOwnerHandler godoc
// @Summary Crear propietario
// @Description Solo rol asistente. DNI duplicado responde 409.
// @Tags owners
// @Accept json
// @Produce json
// @Param payload body ownerRequest true "Datos del propietario; fechaNacimiento en YYYY-MM-DD"
// @Success 201 {object} ownerResponse
// @Failure 400 {object} web.ErrorBody
// @Failure 401 {object} web.ErrorBody
// @Failure 403 {object} web.ErrorBody
// @Failure 409 {object} web.ErrorBody
// @Router /owners [post]
func createOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req ownerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			web.WriteError(w, fmt.Errorf("%w: invalid json", apperr.ErrInvalid))
			return
		}

		bd, err := parseBirthDate(req.FechaNacimiento)
		if err != nil {
			web.WriteError(w, err)
			return
		}

		o, err := svc.Create(r.Context(), claims.Role, CreateInput{
			Nombres:         deref(req.Nombres),
			Apellidos:       deref(req.Apellidos),
			DNI:             deref(req.DNI),
			Celular:         deref(req.Celular),
			Correo:          deref(req.Correo),
			Direccion:       deref(req.Direccion),
			Sexo:            deref(req.Sexo),
			FechaNacimiento: bd,
		})
		if err != nil {
			web.WriteError(w, err)
			return
		}

		web.WriteJSON(w, http.StatusCreated, toOwnerResponse(o))
	}
}

// getOwnerHandler godoc
// @Summary Obtener propietario por ID
// @Tags owners
// @Produce json
// @Param ownerID path string true "ID del propietario"
// @Success 200 {object} ownerResponse
// @Failure 404 {object} web.ErrorBody
// @Router /owners/{ownerID} [get]
func getOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		o, err := svc.GetByID(r.Context(), claims.Role, chi.URLParam(r, "ownerID"))
		if err != nil {
			web.WriteError(w, err)
			return
		}
		web.WriteJSON(w, http.StatusOK, toOwnerResponse(o))
	}
}

// updateOwnerHandler godoc
// @Summary Actualizar propietario
// @Description Solo rol asistente. Campos ausentes no se tocan.
// @Tags owners
// @Accept json
// @Produce json
// @Param ownerID path string true "ID del propietario"
// @Param payload body ownerRequest true "Campos a actualizar"
// @Success 200 {object} ownerResponse
// @Failure 403 {object} web.ErrorBody
// @Failure 404 {object} web.ErrorBody
// @Failure 409 {object} web.ErrorBody
// @Router /owners/{ownerID} [put]
func updateOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req ownerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			web.WriteError(w, fmt.Errorf("%w: invalid json", apperr.ErrInvalid))
			return
		}

		bd, err := parseBirthDate(req.FechaNacimiento)
		if err != nil {
			web.WriteError(w, err)
			return
		}

		o, err := svc.Update(r.Context(), claims.Role, chi.URLParam(r, "ownerID"), UpdateInput{
			Nombres:         req.Nombres,
			Apellidos:       req.Apellidos,
			DNI:             req.DNI,
			Celular:         req.Celular,
			Correo:          req.Correo,
			Direccion:       req.Direccion,
			Sexo:            req.Sexo,
			FechaNacimiento: bd,
		})
		if err != nil {
			web.WriteError(w, err)
			return
		}

		web.WriteJSON(w, http.StatusOK, toOwnerResponse(o))
	}
}

// deleteOwnerHandler godoc
// @Summary Eliminar propietario
// @Description Solo rol asistente. Si el propietario todavía tiene perros responde 409.
// @Tags owners
// @Param ownerID path string true "ID del propietario"
// @Success 204
// @Failure 403 {object} web.ErrorBody
// @Failure 404 {object} web.ErrorBody
// @Failure 409 {object} web.ErrorBody
// @Router /owners/{ownerID} [delete]
func deleteOwnerHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), claims.Role, chi.URLParam(r, "ownerID")); err != nil {
			web.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toOwnerResponse(o Owner) ownerResponse {
	resp := ownerResponse{
		ID:        o.ID,
		Nombres:   o.Nombres,
		Apellidos: o.Apellidos,
		DNI:       o.DNI,
		Celular:   o.Celular,
		Correo:    o.Correo,
		Direccion: o.Direccion,
		Sexo:      string(o.Sexo),
	}
	if o.FechaNacimiento != nil {
		resp.FechaNacimiento = o.FechaNacimiento.Format("2006-01-02")
	}
	return resp
}

func requireClaims(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		web.WriteError(w, apperr.ErrUnauthorized)
		return auth.Claims{}, false
	}
	return claims, true
}

func parsePage(r *http.Request) page.Params {
	q := r.URL.Query()
	p, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("pageSize"))
	return page.Params{Page: p, Size: size}
}

func parseBirthDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", strings.TrimSpace(*s))
	if err != nil {
		return nil, fmt.Errorf("%w: fechaNacimiento debe ser YYYY-MM-DD", apperr.ErrInvalid)
	}
	return &t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
