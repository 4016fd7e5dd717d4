// internal/application/admin/mutator.go
package admin

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/errx"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
)

var (
	ErrInFlight        = errors.New("admin: operation already in flight")
	ErrInvalidArgument = errors.New("admin: invalid argument")
)

// DefaultFormKey is used when a create request does not name its form.
const DefaultFormKey = "create"

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ImageStore uploads an inline image and returns its public URL.
type ImageStore interface {
	Upload(ctx context.Context, mediaType string, data []byte) (string, error)
}

// Notifier is the catalog refresh signal. Notify returns after local
// subscribers (the catalog store refresh) have run.
type Notifier interface {
	Notify(ctx context.Context) error
}

// Mutator performs admin writes against the product collection.
//
// Every operation holds an in-flight marker keyed by operation and target;
// a second call with the same key fails with ErrInFlight instead of waiting.
type Mutator struct {
	repo     productdom.Repository
	images   ImageStore
	notifier Notifier
	clock    Clock
	log      zerolog.Logger

	mu       sync.Mutex
	inflight map[string]string // key -> product id ("" for create/clear)
}

func NewMutator(repo productdom.Repository, notifier Notifier, images ImageStore) *Mutator {
	return NewMutatorWithClock(repo, notifier, images, systemClock{})
}

// NewMutatorWithClock is useful for tests.
func NewMutatorWithClock(repo productdom.Repository, notifier Notifier, images ImageStore, clock Clock) *Mutator {
	if clock == nil {
		clock = systemClock{}
	}
	return &Mutator{
		repo:     repo,
		images:   images,
		notifier: notifier,
		clock:    clock,
		log:      logx.Component("admin_mutator"),
		inflight: map[string]string{},
	}
}

// Create validates raw and inserts a new product. formKey identifies the
// submitting form; blank means DefaultFormKey.
func (m *Mutator) Create(ctx context.Context, formKey string, raw productdom.RawFields) (productdom.Product, error) {
	fields, err := productdom.ParseFields(raw)
	if err != nil {
		return productdom.Product{}, err
	}

	formKey = strings.TrimSpace(formKey)
	if formKey == "" {
		formKey = DefaultFormKey
	}
	release, err := m.acquire("create:"+formKey, "")
	if err != nil {
		return productdom.Product{}, err
	}
	defer release()

	if err := m.hostImage(ctx, &fields); err != nil {
		return productdom.Product{}, err
	}

	p := productdom.New("", fields, m.clock.Now())
	created, err := m.repo.Create(ctx, p)
	if err != nil {
		return productdom.Product{}, repoErr("admin.create", err)
	}

	m.log.Info().Str("id", created.ID).Str("name", created.Name).Msg("[admin_mutator] product created")
	m.refresh(ctx)
	return created, nil
}

// Update overwrites the product after re-checking it still exists.
func (m *Mutator) Update(ctx context.Context, id string, raw productdom.RawFields) (productdom.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, ErrInvalidArgument
	}
	fields, err := productdom.ParseFields(raw)
	if err != nil {
		return productdom.Product{}, err
	}

	release, err := m.acquire("update:"+id, id)
	if err != nil {
		return productdom.Product{}, err
	}
	defer release()

	current, err := m.repo.Get(ctx, id)
	if err != nil {
		return productdom.Product{}, repoErr("admin.update", err)
	}
	if err := m.hostImage(ctx, &fields); err != nil {
		return productdom.Product{}, err
	}

	current.Apply(fields, m.clock.Now())
	updated, err := m.repo.Update(ctx, current)
	if err != nil {
		return productdom.Product{}, repoErr("admin.update", err)
	}

	m.log.Info().Str("id", id).Msg("[admin_mutator] product updated")
	m.refresh(ctx)
	return updated, nil
}

// Delete removes the product after re-checking it still exists.
func (m *Mutator) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidArgument
	}
	release, err := m.acquire("delete:"+id, id)
	if err != nil {
		return err
	}
	defer release()

	if _, err := m.repo.Get(ctx, id); err != nil {
		return repoErr("admin.delete", err)
	}
	if err := m.repo.Delete(ctx, id); err != nil {
		return repoErr("admin.delete", err)
	}

	m.log.Info().Str("id", id).Msg("[admin_mutator] product deleted")
	m.refresh(ctx)
	return nil
}

// ToggleActive writes the negation of the current active flag.
func (m *Mutator) ToggleActive(ctx context.Context, id string) (productdom.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return productdom.Product{}, ErrInvalidArgument
	}
	release, err := m.acquire("toggle:"+id, id)
	if err != nil {
		return productdom.Product{}, err
	}
	defer release()

	p, err := m.repo.Get(ctx, id)
	if err != nil {
		return productdom.Product{}, repoErr("admin.toggle", err)
	}
	p.IsActive = !p.IsActive
	p.UpdatedAt = m.clock.Now()

	updated, err := m.repo.Update(ctx, p)
	if err != nil {
		return productdom.Product{}, repoErr("admin.toggle", err)
	}

	m.log.Info().Str("id", id).Bool("is_active", updated.IsActive).Msg("[admin_mutator] product toggled")
	m.refresh(ctx)
	return updated, nil
}

// ClearAll deletes every product. Confirmation happens before this is called.
func (m *Mutator) ClearAll(ctx context.Context) (int, error) {
	release, err := m.acquire("clear", "")
	if err != nil {
		return 0, err
	}
	defer release()

	n, err := m.repo.DeleteAll(ctx)
	if err != nil {
		// a partial delete still changed the collection
		if n > 0 {
			m.refresh(ctx)
		}
		return n, repoErr("admin.clear", err)
	}

	m.log.Warn().Int("deleted", n).Msg("[admin_mutator] catalog cleared")
	m.refresh(ctx)
	return n, nil
}

// InFlight reports whether any operation on id is outstanding.
func (m *Mutator) InFlight(id string) bool {
	id = strings.TrimSpace(id)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, target := range m.inflight {
		if target != "" && target == id {
			return true
		}
	}
	return false
}

// InFlightIDs lists product ids with an outstanding operation, sorted.
func (m *Mutator) InFlightIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.inflight))
	for _, target := range m.inflight {
		if target != "" && !slices.Contains(out, target) {
			out = append(out, target)
		}
	}
	slices.Sort(out)
	return out
}

// ----------------------------
// internals
// ----------------------------

func (m *Mutator) acquire(key, target string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inflight[key]; busy {
		m.log.Debug().Str("key", key).Msg("[admin_mutator] rejected duplicate submission")
		return nil, ErrInFlight
	}
	m.inflight[key] = target
	return func() {
		m.mu.Lock()
		delete(m.inflight, key)
		m.mu.Unlock()
	}, nil
}

// hostImage swaps an inline image for an uploaded URL when an ImageStore is set.
func (m *Mutator) hostImage(ctx context.Context, f *productdom.Fields) error {
	if m.images == nil || f.Image == nil || !productdom.IsInlineImage(*f.Image) {
		return nil
	}
	mediaType, data, err := productdom.DecodeInlineImage(*f.Image)
	if err != nil {
		return err
	}
	url, err := m.images.Upload(ctx, mediaType, data)
	if err != nil {
		return errx.Transport("admin.image_upload", err)
	}
	f.Image = &url
	return nil
}

func (m *Mutator) refresh(ctx context.Context) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Notify(ctx); err != nil {
		m.log.Warn().Err(err).Msg("[admin_mutator] refresh relay failed")
	}
}

// repoErr keeps domain errors matchable and marks everything else as transport.
func repoErr(op string, err error) error {
	if errors.Is(err, productdom.ErrNotFound) || errors.Is(err, productdom.ErrConflict) || errors.Is(err, productdom.ErrInvalid) {
		return err
	}
	return errx.Transport(op, err)
}
