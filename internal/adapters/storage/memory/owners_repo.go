package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"vet-cardio-screening/internal/apperr"
	"vet-cardio-screening/internal/domain/owners"
	"vet-cardio-screening/internal/domain/page"
)

type ownerRepo struct {
	mu    sync.RWMutex
	byID  map[string]owners.Owner
	order []string // orden de inserción, estable para el listado
}

func NewOwnerRepo() owners.Repository {
	return &ownerRepo{
		byID: make(map[string]owners.Owner),
	}
}

func (r *ownerRepo) Create(ctx context.Context, o owners.Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(o.ID) == "" {
		return errors.New("owner id required")
	}
	if _, exists := r.byID[o.ID]; exists {
		return fmt.Errorf("%w: owner ya existe", apperr.ErrConflict)
	}
	if r.dniTakenLocked(o.DNI, "") {
		return fmt.Errorf("%w: dni ya registrado", apperr.ErrConflict)
	}
	r.byID[o.ID] = o
	r.order = append(r.order, o.ID)
	return nil
}

func (r *ownerRepo) Update(ctx context.Context, o owners.Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[o.ID]; !exists {
		return fmt.Errorf("%w: owner", apperr.ErrNotFound)
	}
	if r.dniTakenLocked(o.DNI, o.ID) {
		return fmt.Errorf("%w: dni ya registrado", apperr.ErrConflict)
	}
	r.byID[o.ID] = o
	return nil
}

func (r *ownerRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
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

func (r *ownerRepo) GetByID(ctx context.Context, id string) (owners.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.byID[id]
	if !ok {
		return owners.Owner{}, fmt.Errorf("%w: owner", apperr.ErrNotFound)
	}
	return o, nil
}

func (r *ownerRepo) List(ctx context.Context, search string, p page.Params) ([]owners.Owner, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(search))

	matched := make([]owners.Owner, 0, len(r.order))
	for _, id := range r.order {
		o := r.byID[id]
		if term == "" || ownerMatches(o, term) {
			matched = append(matched, o)
		}
	}

	total := len(matched)
	lo, hi := p.Slice(total)
	return matched[lo:hi], total, nil
}

// dniTakenLocked revisa unicidad de DNI ignorando al propio registro en updates.
func (r *ownerRepo) dniTakenLocked(dni, selfID string) bool {
	for id, o := range r.byID {
		if id != selfID && o.DNI == dni {
			return true
		}
	}
	return false
}

func ownerMatches(o owners.Owner, term string) bool {
	return strings.Contains(strings.ToLower(o.Nombres), term) ||
		strings.Contains(strings.ToLower(o.Apellidos), term) ||
		strings.Contains(strings.ToLower(o.DNI), term) ||
		strings.Contains(strings.ToLower(o.Celular), term)
}
