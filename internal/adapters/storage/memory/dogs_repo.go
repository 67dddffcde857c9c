package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"vet-cardio-screening/internal/apperr"
	"vet-cardio-screening/internal/domain/dogs"
	"vet-cardio-screening/internal/domain/page"
)

type dogRepo struct {
	mu    sync.RWMutex
	byID  map[string]dogs.Dog
	order []string
}

func NewDogRepo() dogs.Repository {
	return &dogRepo{
		byID: make(map[string]dogs.Dog),
	}
}

func (r *dogRepo) Create(ctx context.Context, d dogs.Dog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(d.ID) == "" {
		return errors.New("dog id required")
	}
	if _, exists := r.byID[d.ID]; exists {
		return fmt.Errorf("%w: dog ya existe", apperr.ErrConflict)
	}
	r.byID[d.ID] = d
	r.order = append(r.order, d.ID)
	return nil
}

func (r *dogRepo) Update(ctx context.Context, d dogs.Dog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[d.ID]; !exists {
		return fmt.Errorf("%w: dog", apperr.ErrNotFound)
	}
	r.byID[d.ID] = d
	return nil
}

func (r *dogRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return fmt.Errorf("%w: dog", apperr.ErrNotFound)
	}
	delete(r.byID, id)
	for i, did := range r.order {
		if did == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *dogRepo) GetByID(ctx context.Context, id string) (dogs.Dog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	if !ok {
		return dogs.Dog{}, fmt.Errorf("%w: dog", apperr.ErrNotFound)
	}
	return d, nil
}

func (r *dogRepo) ListByOwner(ctx context.Context, ownerID, search string, p page.Params) ([]dogs.Dog, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(search))

	matched := make([]dogs.Dog, 0)
	for _, id := range r.order {
		d := r.byID[id]
		if d.OwnerID != ownerID {
			continue
		}
		if term == "" || dogMatches(d, term) {
			matched = append(matched, d)
		}
	}

	total := len(matched)
	lo, hi := p.Slice(total)
	return matched[lo:hi], total, nil
}

func (r *dogRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, d := range r.byID {
		if d.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func dogMatches(d dogs.Dog, term string) bool {
	return strings.Contains(strings.ToLower(d.Nombre), term) ||
		strings.Contains(strings.ToLower(d.Raza), term)
}
