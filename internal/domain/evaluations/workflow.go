package evaluations

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"vet-cardio-screening/internal/apperr"
	"vet-cardio-screening/internal/platform/logger"
	"vet-cardio-screening/internal/ports/auth"
	"vet-cardio-screening/internal/ports/inference"

	"github.com/google/uuid"
)

// State es el estado serializable de un run de evaluación.
type State string

const (
	StateIdle             State = "idle"
	StateInferencePending State = "inference_pending"
	StateDraftReady       State = "draft_ready"
	StatePersisted        State = "persisted"
	StateFailed           State = "failed"
	StateCancelled        State = "cancelled"
)

type failStage string

const (
	stageInference failStage = "inference"
	stagePersist   failStage = "persist"
)

// formatos que acepta el flujo de audio (el original trabaja con WAV y MP3)
var acceptedAudio = map[string]bool{
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/wave":  true,
	"audio/mpeg":  true,
	"audio/mp3":   true,
}

// run es una evaluación en curso para un (sesión, perro). Los pasos de un
// mismo run nunca corren en paralelo; el mutex protege las transiciones
// contra un Cancel() concurrente durante la inferencia.
type run struct {
	mu sync.Mutex

	sessionID string
	dogID     string

	state     State
	stage     failStage
	retryable bool
	lastErr   string

	audio       []byte
	contentType string

	draft       *Draft
	idemKey     string
	comentarios string
	persisted   *Evaluation

	attempts        int
	cancelInference context.CancelFunc
}

// RunView es lo que ven los handlers: estado + draft, sin internos.
type RunView struct {
	State     State
	Retryable bool
	LastError string
	Draft     *Draft
	Persisted *Evaluation
}

func (r *run) view() RunView {
	v := RunView{
		State:     r.state,
		Retryable: r.retryable,
		LastError: r.lastErr,
		Persisted: r.persisted,
	}
	if r.draft != nil {
		d := *r.draft
		v.Draft = &d
	}
	return v
}

// active indica que el run bloquea una nueva sumisión de audio: pasó de
// idle y todavía no llegó a un estado terminal ni agotó sus reintentos.
func (r *run) active() bool {
	switch r.state {
	case StateInferencePending, StateDraftReady:
		return true
	case StateFailed:
		return r.retryable
	default:
		return false
	}
}

type WorkflowConfig struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	BackoffBase    time.Duration
	BackoffMax     time.Duration
	GradeThreshold int
}

func (c WorkflowConfig) withDefaults() WorkflowConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 15 * time.Second
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = 500 * time.Millisecond
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = 5 * time.Second
	}
	if c.GradeThreshold <= 0 {
		c.GradeThreshold = 4
	}
	return c
}

// Workflow orquesta una evaluación: audio -> inferencia remota -> revisión
// del borrador -> persistencia. Un run por (sesión, perro); los runs que
// llegan a estado terminal se sacan del índice para que no quede memoria
// acumulada entre sesiones.
type Workflow struct {
	mu   sync.Mutex
	runs map[string]*run

	infer inference.Client
	store *Service
	dogs  DogDirectory
	cfg   WorkflowConfig
	log   logger.Logger

	// inyectables en tests
	sleep func(ctx context.Context, d time.Duration) error
}

func NewWorkflow(infer inference.Client, store *Service, dogs DogDirectory, cfg WorkflowConfig, log logger.Logger) *Workflow {
	if log == nil {
		log = logger.Nop{}
	}
	return &Workflow{
		runs:  make(map[string]*run),
		infer: infer,
		store: store,
		dogs:  dogs,
		cfg:   cfg.withDefaults(),
		log:   log,
		sleep: sleepCtx,
	}
}

func runKey(sessionID, dogID string) string { return sessionID + "|" + dogID }

// SubmitAudio arranca un run nuevo: valida, invoca la inferencia con
// reintentos locales (backoff exponencial con jitter) y deja el run en
// draft_ready o failed. Todo chequeo ocurre antes de cualquier efecto.
func (w *Workflow) SubmitAudio(ctx context.Context, claims auth.Claims, dogID string, audio []byte, contentType string) (RunView, error) {
	if err := requireVeterinarian(claims); err != nil {
		return RunView{}, err
	}

	dogID = strings.TrimSpace(dogID)
	if err := w.requireDog(ctx, dogID); err != nil {
		return RunView{}, err
	}

	if len(audio) == 0 {
		return RunView{}, fmt.Errorf("%w: audio vacío", apperr.ErrInvalid)
	}
	ct := normalizeContentType(contentType)
	if !acceptedAudio[ct] {
		return RunView{}, fmt.Errorf("%w: content-type %q no es un formato de audio aceptado", apperr.ErrInvalid, contentType)
	}

	key := runKey(claims.UserID, dogID)

	w.mu.Lock()
	if existing, ok := w.runs[key]; ok {
		existing.mu.Lock()
		if existing.active() {
			existing.mu.Unlock()
			w.mu.Unlock()
			return RunView{}, fmt.Errorf("%w: ya hay una evaluación en curso para este perro", apperr.ErrConflict)
		}
		existing.mu.Unlock()
	}
	r := &run{
		sessionID:   claims.UserID,
		dogID:       dogID,
		state:       StateIdle,
		audio:       audio,
		contentType: ct,
	}
	w.runs[key] = r
	w.mu.Unlock()

	return w.runInference(ctx, r)
}

// Retry reintenta un run fallido sin volver a subir audio: repite la
// inferencia con el mismo audio, o el persist con la misma idemKey.
func (w *Workflow) Retry(ctx context.Context, claims auth.Claims, dogID string) (RunView, error) {
	if err := requireVeterinarian(claims); err != nil {
		return RunView{}, err
	}

	r, err := w.lookup(claims.UserID, dogID)
	if err != nil {
		return RunView{}, err
	}

	r.mu.Lock()
	if r.state != StateFailed || !r.retryable {
		v := r.view()
		r.mu.Unlock()
		return v, fmt.Errorf("%w: el run no admite retry en estado %s", apperr.ErrConflict, v.State)
	}
	stage := r.stage
	comentarios := r.comentarios
	r.mu.Unlock()

	if stage == stagePersist {
		return w.persist(ctx, r, comentarios)
	}
	return w.runInference(ctx, r)
}

type AmendInput struct {
	Raza          *string
	Edad          *int
	SoploCardiaco *string
	EsRiesgo      *bool
}

// AmendDraft edita el borrador en memoria sin cambiar de estado.
func (w *Workflow) AmendDraft(claims auth.Claims, dogID string, in AmendInput) (RunView, error) {
	if err := requireVeterinarian(claims); err != nil {
		return RunView{}, err
	}

	r, err := w.lookup(claims.UserID, dogID)
	if err != nil {
		return RunView{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateDraftReady || r.draft == nil {
		return r.view(), fmt.Errorf("%w: no hay borrador editable en estado %s", apperr.ErrConflict, r.state)
	}

	if in.Raza != nil {
		r.draft.Raza = strings.TrimSpace(*in.Raza)
	}
	if in.Edad != nil {
		if *in.Edad < 0 {
			return r.view(), fmt.Errorf("%w: edad negativa", apperr.ErrInvalid)
		}
		r.draft.Edad = *in.Edad
	}
	if in.SoploCardiaco != nil {
		r.draft.SoploCardiaco = strings.TrimSpace(*in.SoploCardiaco)
	}
	if in.EsRiesgo != nil {
		r.draft.EsRiesgo = *in.EsRiesgo
	}

	return r.view(), nil
}

// Confirm clasifica el borrador y lo escribe como Evaluation. Si el store
// falla, el run queda en failed (persist) con el borrador intacto: Confirm
// se puede repetir con la misma clave de idempotencia sin re-inferir.
// clientKey permite al cliente fijar su propia clave; vacío usa la del run.
func (w *Workflow) Confirm(ctx context.Context, claims auth.Claims, dogID, comentarios, clientKey string) (RunView, error) {
	if err := requireVeterinarian(claims); err != nil {
		return RunView{}, err
	}

	r, err := w.lookup(claims.UserID, dogID)
	if err != nil {
		return RunView{}, err
	}

	r.mu.Lock()
	confirmable := r.state == StateDraftReady ||
		(r.state == StateFailed && r.stage == stagePersist && r.retryable)
	if !confirmable || r.draft == nil {
		v := r.view()
		r.mu.Unlock()
		return v, fmt.Errorf("%w: no hay borrador confirmable en estado %s", apperr.ErrConflict, v.State)
	}
	if strings.TrimSpace(comentarios) != "" {
		r.comentarios = strings.TrimSpace(comentarios)
	}
	if strings.TrimSpace(clientKey) != "" {
		r.idemKey = strings.TrimSpace(clientKey)
	}
	comentarios = r.comentarios
	r.mu.Unlock()

	return w.persist(ctx, r, comentarios)
}

// Cancel abandona el run desde cualquier estado no terminal. Si hay una
// inferencia en vuelo se cancela su contexto y la respuesta se descarta.
// Nunca queda una Evaluation parcial escrita.
func (w *Workflow) Cancel(claims auth.Claims, dogID string) (RunView, error) {
	if err := requireVeterinarian(claims); err != nil {
		return RunView{}, err
	}

	w.mu.Lock()
	r, ok := w.runs[runKey(claims.UserID, strings.TrimSpace(dogID))]
	w.mu.Unlock()
	if !ok {
		return RunView{State: StateIdle}, nil
	}

	r.mu.Lock()
	switch r.state {
	case StatePersisted, StateCancelled:
		// carrera con otro Cancel o con un Confirm que llegó primero
		v := r.view()
		r.mu.Unlock()
		return v, fmt.Errorf("%w: el run ya terminó en estado %s", apperr.ErrConflict, v.State)
	}

	if r.cancelInference != nil {
		r.cancelInference()
		r.cancelInference = nil
	}
	r.state = StateCancelled
	r.audio = nil
	r.draft = nil
	v := r.view()
	r.mu.Unlock()
	w.evict(r)

	w.log.Info("evaluation run cancelled", map[string]any{
		"dog_id": r.dogID, "session": r.sessionID,
	})
	return v, nil
}

// Run devuelve el estado actual del run de esta sesión, si existe.
func (w *Workflow) Run(claims auth.Claims, dogID string) (RunView, bool) {
	w.mu.Lock()
	r, ok := w.runs[runKey(claims.UserID, strings.TrimSpace(dogID))]
	w.mu.Unlock()
	if !ok {
		return RunView{State: StateIdle}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view(), true
}

func (w *Workflow) lookup(sessionID, dogID string) (*run, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.runs[runKey(sessionID, strings.TrimSpace(dogID))]
	if !ok {
		return nil, fmt.Errorf("%w: no hay evaluación en curso para este perro", apperr.ErrNotFound)
	}
	return r, nil
}

// runInference ejecuta la llamada remota con presupuesto acotado de
// intentos. El mutex del run se suelta durante la llamada para que un
// Cancel() concurrente pueda actuar de inmediato.
func (w *Workflow) runInference(ctx context.Context, r *run) (RunView, error) {
	r.mu.Lock()
	inferCtx, cancel := context.WithCancel(ctx)
	r.cancelInference = cancel
	r.state = StateInferencePending
	audio, ct := r.audio, r.contentType
	r.mu.Unlock()
	defer cancel()

	for {
		r.mu.Lock()
		if r.state == StateCancelled {
			v := r.view()
			r.mu.Unlock()
			return v, nil
		}
		r.attempts++
		attempt := r.attempts
		r.mu.Unlock()

		attemptCtx, attemptCancel := context.WithTimeout(inferCtx, w.cfg.AttemptTimeout)
		draft, err := w.infer.Infer(attemptCtx, audio, ct)
		attemptCancel()

		if err == nil {
			r.mu.Lock()
			if r.state == StateCancelled {
				// el run se canceló mientras la respuesta venía en camino
				v := r.view()
				r.mu.Unlock()
				return v, nil
			}
			r.draft = &Draft{
				Raza:           draft.Raza,
				Edad:           draft.Edad,
				SoploCardiaco:  draft.SoploCardiaco,
				EsRiesgo:       draft.EsRiesgo,
				DatosResultado: draft.DatosResultado,
			}
			r.idemKey = uuid.NewString()
			r.state = StateDraftReady
			r.retryable = false
			r.lastErr = ""
			r.cancelInference = nil
			v := r.view()
			r.mu.Unlock()
			w.log.Info("inference draft ready", map[string]any{
				"dog_id": r.dogID, "attempts": attempt,
			})
			return v, nil
		}

		if inferCtx.Err() != nil {
			// cancelación del caller o Cancel() concurrente
			r.mu.Lock()
			if r.state == StateCancelled {
				v := r.view()
				r.mu.Unlock()
				return v, nil
			}
			v := w.failLocked(r, stageInference, attempt < w.cfg.MaxAttempts, err)
			r.mu.Unlock()
			if !v.Retryable {
				w.evict(r)
			}
			return v, err
		}

		w.log.Warn("inference attempt failed", map[string]any{
			"dog_id": r.dogID, "attempt": attempt, "err": err.Error(),
		})

		if !apperr.Retryable(err) {
			r.mu.Lock()
			v := w.failLocked(r, stageInference, false, err)
			r.mu.Unlock()
			w.evict(r)
			return v, err
		}
		if attempt >= w.cfg.MaxAttempts {
			// presupuesto agotado: hace falta volver a subir audio
			r.mu.Lock()
			v := w.failLocked(r, stageInference, false, err)
			r.mu.Unlock()
			w.evict(r)
			return v, err
		}

		if serr := w.sleep(inferCtx, w.backoff(attempt)); serr != nil {
			r.mu.Lock()
			if r.state == StateCancelled {
				v := r.view()
				r.mu.Unlock()
				return v, nil
			}
			v := w.failLocked(r, stageInference, attempt < w.cfg.MaxAttempts, err)
			r.mu.Unlock()
			if !v.Retryable {
				w.evict(r)
			}
			return v, err
		}
	}
}

func (w *Workflow) persist(ctx context.Context, r *run, comentarios string) (RunView, error) {
	r.mu.Lock()
	if r.draft == nil {
		v := r.view()
		r.mu.Unlock()
		return v, fmt.Errorf("%w: run sin borrador", apperr.ErrConflict)
	}
	draft := *r.draft
	idemKey := r.idemKey
	dogID := r.dogID
	r.comentarios = comentarios
	r.mu.Unlock()

	resultado := Classify(draft, w.cfg.GradeThreshold)

	ev, err := w.store.Append(ctx, dogID, resultado, comentarios, idemKey)
	if err != nil {
		err = classifyStoreErr(err)
		r.mu.Lock()
		v := w.failLocked(r, stagePersist, apperr.Retryable(err), err)
		r.mu.Unlock()
		if !v.Retryable {
			w.evict(r)
		}
		return v, err
	}

	r.mu.Lock()
	r.state = StatePersisted
	r.retryable = false
	r.lastErr = ""
	r.persisted = &ev
	r.audio = nil
	v := r.view()
	r.mu.Unlock()
	w.evict(r)

	w.log.Info("evaluation persisted", map[string]any{
		"dog_id": dogID, "evaluation_id": ev.ID, "resultado": string(resultado),
	})
	return v, nil
}

// classifyStoreErr separa los errores de negocio del store (que no admiten
// reintento) de las fallas de infraestructura: un error crudo del driver o
// de la red cuenta como falla de persistencia y Confirm puede repetirse con
// la misma clave de idempotencia.
func classifyStoreErr(err error) error {
	switch {
	case errors.Is(err, apperr.ErrInvalid),
		errors.Is(err, apperr.ErrConflict),
		errors.Is(err, apperr.ErrNotFound):
		return err
	case errors.Is(err, apperr.ErrPersistence),
		errors.Is(err, apperr.ErrUnavailable),
		errors.Is(err, apperr.ErrTimeout):
		return err
	}
	return fmt.Errorf("%w: %v", apperr.ErrPersistence, err)
}

// evict saca del índice un run que llegó a estado terminal, si todavía es
// la entrada vigente para su clave. Los runs failed reintentables se quedan
// para Retry/Confirm.
func (w *Workflow) evict(r *run) {
	key := runKey(r.sessionID, r.dogID)
	w.mu.Lock()
	if cur, ok := w.runs[key]; ok && cur == r {
		delete(w.runs, key)
	}
	w.mu.Unlock()
}

// failLocked transiciona a failed. Caller sostiene r.mu.
func (w *Workflow) failLocked(r *run, stage failStage, retryable bool, err error) RunView {
	r.state = StateFailed
	r.stage = stage
	r.retryable = retryable
	r.lastErr = err.Error()
	r.cancelInference = nil
	w.log.Warn("evaluation run failed", map[string]any{
		"dog_id": r.dogID, "stage": string(stage), "retryable": retryable, "err": err.Error(),
	})
	return r.view()
}

// backoff exponencial con full jitter, acotado por BackoffMax.
func (w *Workflow) backoff(attempt int) time.Duration {
	d := w.cfg.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= w.cfg.BackoffMax {
			d = w.cfg.BackoffMax
			break
		}
	}
	if ms := d.Milliseconds(); ms > 0 {
		d = time.Duration(rand.Int63n(ms+1)) * time.Millisecond
	}
	return d
}

func (w *Workflow) requireDog(ctx context.Context, dogID string) error {
	if dogID == "" {
		return fmt.Errorf("%w: dog id required", apperr.ErrInvalid)
	}
	if w.dogs == nil {
		return nil
	}
	ok, err := w.dogs.DogExists(ctx, dogID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: dog %s", apperr.ErrNotFound, dogID)
	}
	return nil
}

func requireVeterinarian(claims auth.Claims) error {
	if strings.TrimSpace(claims.UserID) == "" {
		return fmt.Errorf("%w: unresolved session", apperr.ErrUnauthorized)
	}
	if claims.Role != auth.RoleVeterinarian {
		return fmt.Errorf("%w: solo el rol veterinario conduce evaluaciones", apperr.ErrForbidden)
	}
	return nil
}

func normalizeContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
