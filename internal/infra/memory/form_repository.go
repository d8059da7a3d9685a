package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"formflow/internal/domain"
	"golang.org/x/sync/singleflight"
)

// FormLoader fetches form definitions from the source of truth (Postgres, the in-memory store).
type FormLoader interface {
	LoadForm(ctx context.Context, id int64) (domain.Form, error)
}

// FormRepository caches forms with TTL to avoid repeated store hits.
type FormRepository struct {
	loader FormLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[int64]cachedForm
}

type cachedForm struct {
	form      domain.Form
	expiresAt time.Time
}

func NewFormRepository(loader FormLoader, ttl time.Duration) *FormRepository {
	return &FormRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedForm),
	}
}

func (r *FormRepository) GetForm(ctx context.Context, id int64) (domain.Form, error) {
	now := r.clock()
	if form, ok := r.cached(id, now); ok {
		return form, nil
	}

	result, err, _ := r.sf.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		now := r.clock()
		if form, ok := r.cached(id, now); ok {
			return form, nil
		}

		form, err := r.loader.LoadForm(ctx, id)
		if err != nil {
			return domain.Form{}, err
		}

		expiresAt := now.Add(r.ttlWithJitter())
		r.mu.Lock()
		r.cache[id] = cachedForm{form: form, expiresAt: expiresAt}
		r.mu.Unlock()
		return form, nil
	})
	if err != nil {
		return domain.Form{}, err
	}
	return result.(domain.Form), nil
}

// Invalidate drops the cached copy of a form so the next read reloads it.
func (r *FormRepository) Invalidate(_ context.Context, id int64) error {
	r.mu.Lock()
	delete(r.cache, id)
	r.mu.Unlock()
	return nil
}

func (r *FormRepository) cached(id int64, now time.Time) (domain.Form, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[id]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Form{}, false
	}
	return entry.form, true
}

func (r *FormRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
