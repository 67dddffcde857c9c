package owners

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"vet-cardio-screening/internal/apperr"
	"vet-cardio-screening/internal/domain/page"
	"vet-cardio-screening/internal/ports/auth"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID  map[string]Owner
	order []string
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Owner{}}
}

func (r *testRepo) Create(ctx context.Context, o Owner) error {
	if _, ok := r.byID[o.ID]; ok {
		return errors.New("repo: already exists")
	}
	for _, other := range r.byID {
		if other.DNI == o.DNI {
			return fmt.Errorf("%w: dni", apperr.ErrConflict)
		}
	}
	r.byID[o.ID] = o
	r.order = append(r.order, o.ID)
	return nil
}

func (r *testRepo) Update(ctx context.Context, o Owner) error {
	if _, ok := r.byID[o.ID]; !ok {
		return fmt.Errorf("%w: owner", apperr.ErrNotFound)
	}
	r.byID[o.ID] = o
	return nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("%w: owner", apperr.ErrNotFound)
	}
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Owner, error) {
	o, ok := r.byID[id]
	if !ok {
		return Owner{}, fmt.Errorf("%w: owner", apperr.ErrNotFound)
	}
	return o, nil
}

func (r *testRepo) List(ctx context.Context, search string, p page.Params) ([]Owner, int, error) {
	term := strings.ToLower(search)
	matched := make([]Owner, 0)
	for _, id := range r.order {
		o := r.byID[id]
		if term == "" ||
			strings.Contains(strings.ToLower(o.Nombres), term) ||
			strings.Contains(strings.ToLower(o.Apellidos), term) ||
			strings.Contains(strings.ToLower(o.DNI), term) ||
			strings.Contains(strings.ToLower(o.Celular), term) {
			matched = append(matched, o)
		}
	}
	total := len(matched)
	lo, hi := p.Slice(total)
	return matched[lo:hi], total, nil
}

type fixedDogCounter int

func (n fixedDogCounter) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	return int(n), nil
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_SetsIDAndTimestamps(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, 10, 100)

	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	o, err := svc.Create(context.Background(), auth.RoleAssistant, CreateInput{
		Nombres:   "María",
		Apellidos: "Quispe",
		DNI:       "45678901",
		Correo:    "maria@example.com",
		Sexo:      "Femenino",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if o.ID == "" {
		t.Fatalf("expected generated ID")
	}
	if o.CreatedAt != now || o.UpdatedAt != now {
		t.Fatalf("expected CreatedAt/UpdatedAt to be now")
	}
	if o.Sexo != SexoFemenino {
		t.Fatalf("expected sexo Femenino, got %s", o.Sexo)
	}
}

func TestService_Create_ForbiddenForVeterinarian(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, 10, 100)

	_, err := svc.Create(context.Background(), auth.RoleVeterinarian, CreateInput{
		Nombres: "X", Apellidos: "Y", DNI: "123", Correo: "x@y.z",
	})
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Fatalf("expected no writes on forbidden create")
	}
}

func TestService_Create_DuplicateDNI_Conflict(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, 10, 100)

	in := CreateInput{Nombres: "A", Apellidos: "B", DNI: "11112222", Correo: "a@b.c"}
	if _, err := svc.Create(context.Background(), auth.RoleAssistant, in); err != nil {
		t.Fatalf("first create: %v", err)
	}

	in.Nombres = "Otro"
	_, err := svc.Create(context.Background(), auth.RoleAssistant, in)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate dni, got %v", err)
	}
}

func TestService_List_SearchMatchesAnyField_CaseInsensitive(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, 10, 100)
	ctx := context.Background()

	seed := []CreateInput{
		{Nombres: "María", Apellidos: "Quispe", DNI: "45678901", Celular: "999111222", Correo: "m@x.pe"},
		{Nombres: "Jorge", Apellidos: "Mamani", DNI: "40404040", Celular: "988777666", Correo: "j@x.pe"},
		{Nombres: "Lucía", Apellidos: "Paredes", DNI: "39393939", Celular: "977666555", Correo: "l@x.pe"},
	}
	for _, in := range seed {
		if _, err := svc.Create(ctx, auth.RoleAssistant, in); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	cases := []struct {
		search string
		want   int
	}{
		{"QUISPE", 1},  // apellido, case-insensitive
		{"maría", 1},   // nombre
		{"4040", 1},    // dni parcial
		{"977666", 1},  // celular parcial
		{"x-nada", 0},  // sin coincidencia
		{"", 3},        // sin filtro
	}
	for _, tc := range cases {
		items, total, err := svc.List(ctx, auth.RoleVeterinarian, tc.search, page.Params{})
		if err != nil {
			t.Fatalf("List(%q): %v", tc.search, err)
		}
		if total != tc.want || len(items) != tc.want {
			t.Fatalf("List(%q): expected %d, got total=%d items=%d", tc.search, tc.want, total, len(items))
		}
	}
}

func TestService_List_PaginationConcatReproducesFullSet(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, 10, 100)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := svc.Create(ctx, auth.RoleAssistant, CreateInput{
			Nombres:   fmt.Sprintf("Owner%02d", i),
			Apellidos: "Test",
			DNI:       fmt.Sprintf("dni-%02d", i),
			Correo:    "t@x.pe",
		})
		if err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	var got []string
	for pg := 1; ; pg++ {
		items, total, err := svc.List(ctx, auth.RoleAssistant, "", page.Params{Page: pg, Size: 3})
		if err != nil {
			t.Fatalf("page %d: %v", pg, err)
		}
		if total != 7 {
			t.Fatalf("expected total 7, got %d", total)
		}
		if len(items) == 0 {
			break
		}
		for _, o := range items {
			got = append(got, o.Nombres)
		}
	}

	if len(got) != 7 {
		t.Fatalf("expected 7 items across pages, got %d", len(got))
	}
	for i, n := range got {
		if n != fmt.Sprintf("Owner%02d", i) {
			t.Fatalf("expected stable insertion order, got %v", got)
		}
	}
}

func TestService_Update_PartialFieldsOnly(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, 10, 100)
	ctx := context.Background()

	o, err := svc.Create(ctx, auth.RoleAssistant, CreateInput{
		Nombres: "Ana", Apellidos: "Lopez", DNI: "123", Correo: "a@b.c", Celular: "999",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	nuevo := "988111222"
	got, err := svc.Update(ctx, auth.RoleAssistant, o.ID, UpdateInput{Celular: &nuevo})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Celular != nuevo {
		t.Fatalf("expected celular updated, got %s", got.Celular)
	}
	if got.Nombres != "Ana" || got.DNI != "123" {
		t.Fatalf("expected untouched fields to survive, got %+v", got)
	}
}

func TestService_Delete_RejectsWhileOwnerHasDogs(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, 10, 100)
	ctx := context.Background()

	o, err := svc.Create(ctx, auth.RoleAssistant, CreateInput{
		Nombres: "Ana", Apellidos: "Lopez", DNI: "123", Correo: "a@b.c",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	svc.SetDogCounter(fixedDogCounter(2))
	err = svc.Delete(ctx, auth.RoleAssistant, o.ID)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected ErrConflict with dogs, got %v", err)
	}

	svc.SetDogCounter(fixedDogCounter(0))
	if err := svc.Delete(ctx, auth.RoleAssistant, o.ID); err != nil {
		t.Fatalf("expected delete without dogs to pass, got %v", err)
	}
	if _, err := svc.GetByID(ctx, auth.RoleAssistant, o.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected owner gone, got %v", err)
	}
}

func TestService_UnknownRole_Unauthorized(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, 10, 100)

	_, _, err := svc.List(context.Background(), auth.Role("recepcion"), "", page.Params{})
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown role, got %v", err)
	}
}
