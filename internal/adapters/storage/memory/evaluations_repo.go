package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"vet-cardio-screening/internal/domain/evaluations"
	"vet-cardio-screening/internal/domain/page"
)

type evaluationRepo struct {
	mu    sync.RWMutex
	byDog map[string][]evaluations.Evaluation
	// byKey indexa (dogID, idemKey) para detectar replays
	byKey map[string]evaluations.Evaluation
}

func NewEvaluationRepo() evaluations.Repository {
	return &evaluationRepo{
		byDog: make(map[string][]evaluations.Evaluation),
		byKey: make(map[string]evaluations.Evaluation),
	}
}

func (r *evaluationRepo) Append(ctx context.Context, e evaluations.Evaluation) (evaluations.Evaluation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return evaluations.Evaluation{}, errors.New("evaluation id required")
	}
	if strings.TrimSpace(e.IdemKey) == "" {
		return evaluations.Evaluation{}, errors.New("idempotency key required")
	}

	key := e.DogID + "|" + e.IdemKey
	if prev, ok := r.byKey[key]; ok {
		// replay: devolvemos el registro original sin duplicar
		return prev, nil
	}

	r.byDog[e.DogID] = append(r.byDog[e.DogID], e)
	r.byKey[key] = e
	return e, nil
}

func (r *evaluationRepo) ListByDog(ctx context.Context, dogID string, p page.Params) ([]evaluations.Evaluation, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src := r.byDog[dogID]
	all := make([]evaluations.Evaluation, len(src))
	copy(all, src)

	// más reciente primero; los empates conservan el orden de inserción
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Fecha.After(all[j].Fecha)
	})

	total := len(all)
	lo, hi := p.Slice(total)
	return all[lo:hi], total, nil
}
