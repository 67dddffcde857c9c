package evaluations

import (
	"context"
	"errors"
	"sort"
	"sync"
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
	mu    sync.Mutex
	items []Evaluation
	byKey map[string]Evaluation

	// si está seteado, el siguiente Append falla una vez con este error
	failNext error
}

func newTestRepo() *testRepo {
	return &testRepo{byKey: map[string]Evaluation{}}
}

func (r *testRepo) Append(ctx context.Context, e Evaluation) (Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return Evaluation{}, err
	}

	key := e.DogID + "|" + e.IdemKey
	if prev, ok := r.byKey[key]; ok {
		return prev, nil
	}
	r.items = append(r.items, e)
	r.byKey[key] = e
	return e, nil
}

func (r *testRepo) ListByDog(ctx context.Context, dogID string, p page.Params) ([]Evaluation, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]Evaluation, 0)
	for _, e := range r.items {
		if e.DogID == dogID {
			all = append(all, e)
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Fecha.After(all[j].Fecha) })

	total := len(all)
	lo, hi := p.Slice(total)
	return all[lo:hi], total, nil
}

func (r *testRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// directorio de perros con membresía fija
type testDogs map[string]bool

func (d testDogs) DogExists(ctx context.Context, dogID string) (bool, error) {
	return d[dogID], nil
}

// -------------------------
// Tests
// -------------------------

func TestService_Append_AssignsIdentityAndDate(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, testDogs{"dog-1": true}, 10, 100)

	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	ev, err := svc.Append(context.Background(), "dog-1", ResultadoNormal, "  sin hallazgos  ", "key-1")
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}
	if ev.ID == "" {
		t.Fatalf("expected generated ID")
	}
	if ev.Fecha != now {
		t.Fatalf("expected fecha %v, got %v", now, ev.Fecha)
	}
	if ev.Comentarios != "sin hallazgos" {
		t.Fatalf("expected trimmed comentarios, got %q", ev.Comentarios)
	}
}

func TestService_Append_RejectsUnknownResultado(t *testing.T) {
	svc := NewService(newTestRepo(), testDogs{"dog-1": true}, 10, 100)

	_, err := svc.Append(context.Background(), "dog-1", Resultado("Dudoso"), "", "key-1")
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown resultado, got %v", err)
	}
}

func TestService_Append_RejectsMissingDog(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, testDogs{}, 10, 100)

	_, err := svc.Append(context.Background(), "dog-ghost", ResultadoNormal, "", "key-1")
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for missing dog, got %v", err)
	}
	if repo.count() != 0 {
		t.Fatalf("expected no writes")
	}
}

func TestService_Append_IdempotentReplay(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, testDogs{"dog-1": true}, 10, 100)
	ctx := context.Background()

	first, err := svc.Append(ctx, "dog-1", ResultadoAlto, "control", "key-fixed")
	if err != nil {
		t.Fatalf("first append: %v", err)
	}
	second, err := svc.Append(ctx, "dog-1", ResultadoAlto, "control", "key-fixed")
	if err != nil {
		t.Fatalf("replay append: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("expected replay to return original record, got %s vs %s", second.ID, first.ID)
	}
	if repo.count() != 1 {
		t.Fatalf("expected exactly 1 record, got %d", repo.count())
	}
}

func TestService_ListByDog_NewestFirst(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, testDogs{"dog-1": true}, 10, 100)
	ctx := context.Background()

	base := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		tick := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return tick }
		if _, err := svc.Append(ctx, "dog-1", ResultadoNormal, "", "key-"+string(rune('a'+i))); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	items, total, err := svc.ListByDog(ctx, auth.RoleAssistant, "dog-1", page.Params{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("expected 3 records, got total=%d items=%d", total, len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i].Fecha.After(items[i-1].Fecha) {
			t.Fatalf("expected newest first, got %v then %v", items[i-1].Fecha, items[i].Fecha)
		}
	}
}

func TestService_ListByDog_MissingDog_NotFound(t *testing.T) {
	svc := NewService(newTestRepo(), testDogs{}, 10, 100)

	_, _, err := svc.ListByDog(context.Background(), auth.RoleVeterinarian, "dog-ghost", page.Params{})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
