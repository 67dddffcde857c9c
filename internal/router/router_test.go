package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"vet-cardio-screening/internal/adapters/auth/iam"
	"vet-cardio-screening/internal/ports/auth"
	"vet-cardio-screening/internal/ports/inference"
	"vet-cardio-screening/internal/router"
)

// inferencia determinista para los tests de integración
type fakeInference struct {
	draft inference.Draft
	err   error
}

func (f *fakeInference) Infer(ctx context.Context, audio []byte, contentType string) (inference.Draft, error) {
	if f.err != nil {
		return inference.Draft{}, f.err
	}
	return f.draft, nil
}

func newTestServer(t *testing.T, infer inference.Client) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: nil, // modo dev: headers X-Debug-*
		Inference:    infer,
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_ScreeningFlow(t *testing.T) {
	infer := &fakeInference{draft: inference.Draft{
		Raza:           "Cavalier King Charles",
		Edad:           7,
		SoploCardiaco:  "Grado V/VI",
		EsRiesgo:       true,
		DatosResultado: "soplo sistólico intenso",
	}}
	ts := newTestServer(t, infer)

	asistente := "user-asis"
	veterinario := "user-vet"

	// 1) Asistente registra propietario
	ownerID := createOwner(t, ts.URL, asistente, map[string]any{
		"nombres":   "María",
		"apellidos": "Quispe",
		"dni":       "45678901",
		"celular":   "999888777",
		"correo":    "maria@example.com",
		"direccion": "Av. Siempre Viva 123",
		"sexo":      "Femenino",
	})

	// 2) Asistente registra paciente
	dogID := createDog(t, ts.URL, asistente, ownerID, map[string]any{
		"nombre":  "Rocky",
		"especie": "Canino",
		"raza":    "Cavalier King Charles",
		"sexo":    "Macho",
	})

	// 3) Veterinario sube el audio y recibe borrador
	{
		st, body := doAudio(t, ts.URL, "/dogs/"+dogID+"/evaluate-audio", veterinario, "veterinario")
		if st != http.StatusOK {
			t.Fatalf("expected 200 evaluate-audio, got %d body=%s", st, string(body))
		}
		var run struct {
			State string `json:"state"`
			Draft *struct {
				SoploCardiaco string `json:"soploCardiaco"`
			} `json:"draft"`
		}
		_ = json.Unmarshal(body, &run)
		if run.State != "draft_ready" || run.Draft == nil {
			t.Fatalf("expected draft_ready with draft, got %s", string(body))
		}
		if run.Draft.SoploCardiaco != "Grado V/VI" {
			t.Fatalf("unexpected draft: %s", string(body))
		}
	}

	// 4) Asistente NO puede subir audio
	{
		st, _ := doAudio(t, ts.URL, "/dogs/"+dogID+"/evaluate-audio", asistente, "asistente")
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 evaluate-audio as asistente, got %d", st)
		}
	}

	// 5) Veterinario corrige el borrador
	{
		st, body := doReq(t, ts.URL, "PATCH", "/dogs/"+dogID+"/evaluation-draft",
			veterinario, "veterinario", map[string]any{"edad": 8})
		if st != http.StatusOK {
			t.Fatalf("expected 200 amend draft, got %d body=%s", st, string(body))
		}
	}

	// 6) Veterinario confirma; grado V con riesgo => Alto Riesgo
	{
		st, body := doReq(t, ts.URL, "POST", "/dogs/"+dogID+"/evaluations",
			veterinario, "veterinario", map[string]any{"comentarios": "control en 3 meses"})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 confirm, got %d body=%s", st, string(body))
		}
		var resp struct {
			Resultado string `json:"resultado"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Resultado != "Alto Riesgo" {
			t.Fatalf("expected Alto Riesgo, got %s", string(body))
		}
	}

	// 7) Ambos roles ven la historia; hay exactamente una evaluación
	for _, u := range []struct{ id, role string }{
		{asistente, "asistente"},
		{veterinario, "veterinario"},
	} {
		st, body := doReq(t, ts.URL, "GET", "/dogs/"+dogID+"/evaluations", u.id, u.role, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 history as %s, got %d body=%s", u.role, st, string(body))
		}
		var list struct {
			Items []struct {
				Resultado string `json:"resultado"`
			} `json:"items"`
			Total int `json:"total"`
		}
		_ = json.Unmarshal(body, &list)
		if list.Total != 1 || len(list.Items) != 1 || list.Items[0].Resultado != "Alto Riesgo" {
			t.Fatalf("unexpected history as %s: %s", u.role, string(body))
		}
	}

	// 8) No se puede borrar un propietario con pacientes
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/owners/"+ownerID, asistente, "asistente", nil)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 delete owner with dogs, got %d", st)
		}
	}

	// 9) Sin identidad => 401
	{
		req, _ := http.NewRequest("GET", ts.URL+"/owners", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 without identity, got %d", resp.StatusCode)
		}
	}

	// 10) Veterinario NO puede crear propietarios
	{
		st, _ := doReq(t, ts.URL, "POST", "/owners", veterinario, "veterinario", map[string]any{
			"nombres": "X", "apellidos": "Y", "dni": "11112222",
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 create owner as veterinario, got %d", st)
		}
	}
}

func TestHTTP_BearerToken_StaticVerifier(t *testing.T) {
	verifier := iam.NewStaticVerifier(map[string]auth.Claims{
		"tok-asis": {UserID: "u1", Username: "asis", Role: auth.RoleAssistant},
	})

	ts := httptest.NewServer(router.NewRouter(router.Options{
		AuthVerifier: verifier,
		Inference:    &fakeInference{},
	}))
	defer ts.Close()

	// token válido
	req, _ := http.NewRequest("GET", ts.URL+"/owners", nil)
	req.Header.Set("Authorization", "Bearer tok-asis")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", resp.StatusCode)
	}

	// token desconocido => 401
	req2, _ := http.NewRequest("GET", ts.URL+"/owners", nil)
	req2.Header.Set("Authorization", "Bearer tok-nope")
	resp2, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with unknown token, got %d", resp2.StatusCode)
	}
}

func TestHTTP_EvaluateAudio_RejectsBadContentType(t *testing.T) {
	ts := newTestServer(t, &fakeInference{})

	dogOwner := createOwner(t, ts.URL, "user-asis", map[string]any{
		"nombres": "Ana", "apellidos": "Lopez", "dni": "40404040", "correo": "ana@example.com",
	})
	dogID := createDog(t, ts.URL, "user-asis", dogOwner, map[string]any{
		"nombre": "Luna", "especie": "Canino", "raza": "Mestizo", "sexo": "Hembra",
	})

	req, _ := http.NewRequest("POST", ts.URL+"/dogs/"+dogID+"/evaluate-audio",
		bytes.NewReader([]byte("not audio")))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Debug-User-ID", "user-vet")
	req.Header.Set("X-Debug-Role", "veterinario")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for text/plain audio, got %d", resp.StatusCode)
	}
}

func createOwner(t *testing.T, baseURL, userID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/owners", userID, "asistente", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create owner, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create owner: missing id body=%s", string(body))
	}
	return resp.ID
}

func createDog(t *testing.T, baseURL, userID, ownerID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/owners/"+ownerID+"/dogs", userID, "asistente", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create dog, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create dog: missing id body=%s", string(body))
	}
	return resp.ID
}

func doAudio(t *testing.T, baseURL, path, userID, role string) (int, []byte) {
	t.Helper()

	// cabecera RIFF mínima; el contenido real no importa para el fake
	req, err := http.NewRequest("POST", baseURL+path, bytes.NewReader([]byte("RIFF....WAVE")))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "audio/wav")
	req.Header.Set("X-Debug-User-ID", userID)
	req.Header.Set("X-Debug-Role", role)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func doReq(t *testing.T, baseURL, method, path, userID, role string, payload map[string]any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Debug-User-ID", userID)
	req.Header.Set("X-Debug-Role", role)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}
