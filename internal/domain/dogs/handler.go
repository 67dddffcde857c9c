package dogs

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
	r.Route("/owners/{ownerID}/dogs", func(dr chi.Router) {
		dr.Get("/", listDogsHandler(svc))
		dr.Post("/", createDogHandler(svc))
		dr.Get("/{dogID}", getDogHandler(svc))
		dr.Put("/{dogID}", updateDogHandler(svc))
		dr.Delete("/{dogID}", deleteDogHandler(svc))
	})
}

type dogRequest struct {
	Nombre          *string `json:"nombre"`
	Especie         *string `json:"especie"`
	Raza            *string `json:"raza"`
	Sexo            *string `json:"sexo" enums:"Macho,Hembra"`
	Estado          *string `json:"estado" enums:"Vivo,Muerto"`
	FechaNacimiento *string `json:"fechaNacimiento"` // YYYY-MM-DD
}

type dogResponse struct {
	ID              string `json:"id"`
	OwnerID         string `json:"ownerId"`
	Nombre          string `json:"nombre"`
	Especie         string `json:"especie"`
	Raza            string `json:"raza"`
	Sexo            string `json:"sexo"`
	Estado          string `json:"estado"`
	FechaNacimiento string `json:"fechaNacimiento,omitempty"`
}

type dogListResponse struct {
	Items    []dogResponse `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

// listDogsHandler godoc
// @Summary Listar perros de un propietario
// @Description Búsqueda por substring sobre nombre y raza. Disponible para ambos roles.
// @Tags dogs
// @Produce json
// @Param ownerID path string true "ID del propietario"
// @Param search query string false "Texto de búsqueda"
// @Param page query int false "Página (1-indexada)"
// @Param pageSize query int false "Tamaño de página"
// @Success 200 {object} dogListResponse
// @Failure 401 {object} web.ErrorBody
// @Failure 404 {object} web.ErrorBody
// @Router /owners/{ownerID}/dogs [get]
func listDogsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		p := svc.NormalizePage(parsePage(r))
		items, total, err := svc.ListByOwner(r.Context(), claims.Role,
			chi.URLParam(r, "ownerID"), r.URL.Query().Get("search"), p)
		if err != nil {
			web.WriteError(w, err)
			return
		}

		out := make([]dogResponse, 0, len(items))
		for _, d := range items {
			out = append(out, toDogResponse(d))
		}
		web.WriteJSON(w, http.StatusOK, dogListResponse{
			Items:    out,
			Total:    total,
			Page:     p.Page,
			PageSize: p.Size,
		})
	}
}

// createDogHandler godoc
// @Summary Registrar perro
// @Description Solo rol asistente. El propietario debe existir.
// @Tags dogs
// @Accept json
// @Produce json
// @Param ownerID path string true "ID del propietario"
// @Param payload body dogRequest true "Datos del perro"
// @Success 201 {object} dogResponse
// @Failure 400 {object} web.ErrorBody
// @Failure 403 {object} web.ErrorBody
// @Failure 404 {object} web.ErrorBody
// @Router /owners/{ownerID}/dogs [post]
func createDogHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req dogRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			web.WriteError(w, fmt.Errorf("%w: invalid json", apperr.ErrInvalid))
			return
		}

		bd, err := parseBirthDate(req.FechaNacimiento)
		if err != nil {
			web.WriteError(w, err)
			return
		}

		d, err := svc.Create(r.Context(), claims.Role, chi.URLParam(r, "ownerID"), CreateInput{
			Nombre:          deref(req.Nombre),
			Especie:         deref(req.Especie),
			Raza:            deref(req.Raza),
			Sexo:            deref(req.Sexo),
			Estado:          deref(req.Estado),
			FechaNacimiento: bd,
		})
		if err != nil {
			web.WriteError(w, err)
			return
		}

		web.WriteJSON(w, http.StatusCreated, toDogResponse(d))
	}
}

// getDogHandler godoc
// @Summary Obtener perro por ID
// @Tags dogs
// @Produce json
// @Param ownerID path string true "ID del propietario"
// @Param dogID path string true "ID del perro"
// @Success 200 {object} dogResponse
// @Failure 404 {object} web.ErrorBody
// @Router /owners/{ownerID}/dogs/{dogID} [get]
func getDogHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		d, err := svc.GetByID(r.Context(), claims.Role, chi.URLParam(r, "dogID"))
		if err != nil {
			web.WriteError(w, err)
			return
		}
		if d.OwnerID != strings.TrimSpace(chi.URLParam(r, "ownerID")) {
			web.WriteError(w, fmt.Errorf("%w: dog does not belong to owner", apperr.ErrNotFound))
			return
		}
		web.WriteJSON(w, http.StatusOK, toDogResponse(d))
	}
}

// updateDogHandler godoc
// @Summary Actualizar perro
// @Description Solo rol asistente. El propietario del perro nunca cambia.
// @Tags dogs
// @Accept json
// @Produce json
// @Param ownerID path string true "ID del propietario"
// @Param dogID path string true "ID del perro"
// @Param payload body dogRequest true "Campos a actualizar"
// @Success 200 {object} dogResponse
// @Failure 403 {object} web.ErrorBody
// @Failure 404 {object} web.ErrorBody
// @Router /owners/{ownerID}/dogs/{dogID} [put]
func updateDogHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req dogRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			web.WriteError(w, fmt.Errorf("%w: invalid json", apperr.ErrInvalid))
			return
		}

		bd, err := parseBirthDate(req.FechaNacimiento)
		if err != nil {
			web.WriteError(w, err)
			return
		}

		d, err := svc.Update(r.Context(), claims.Role,
			chi.URLParam(r, "ownerID"), chi.URLParam(r, "dogID"), UpdateInput{
				Nombre:          req.Nombre,
				Especie:         req.Especie,
				Raza:            req.Raza,
				Sexo:            req.Sexo,
				Estado:          req.Estado,
				FechaNacimiento: bd,
			})
		if err != nil {
			web.WriteError(w, err)
			return
		}

		web.WriteJSON(w, http.StatusOK, toDogResponse(d))
	}
}

// deleteDogHandler godoc
// @Summary Eliminar perro
// @Description Solo rol asistente.
// @Tags dogs
// @Param ownerID path string true "ID del propietario"
// @Param dogID path string true "ID del perro"
// @Success 204
// @Failure 403 {object} web.ErrorBody
// @Failure 404 {object} web.ErrorBody
// @Router /owners/{ownerID}/dogs/{dogID} [delete]
func deleteDogHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), claims.Role,
			chi.URLParam(r, "ownerID"), chi.URLParam(r, "dogID")); err != nil {
			web.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toDogResponse(d Dog) dogResponse {
	resp := dogResponse{
		ID:      d.ID,
		OwnerID: d.OwnerID,
		Nombre:  d.Nombre,
		Especie: d.Especie,
		Raza:    d.Raza,
		Sexo:    string(d.Sexo),
		Estado:  string(d.Estado),
	}
	if d.FechaNacimiento != nil {
		resp.FechaNacimiento = d.FechaNacimiento.Format("2006-01-02")
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
