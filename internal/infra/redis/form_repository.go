package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"formflow/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// FormLoader fetches form definitions from the source of truth.
type FormLoader interface {
	LoadForm(ctx context.Context, id int64) (domain.Form, error)
}

// FormRepository caches form definitions in Redis and falls back to a loader on cache miss.
// Each form is stored as JSON: SET formflow:form:{id} {form} EX ttl
type FormRepository struct {
	client *redis.Client
	loader FormLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewFormRepository(client *redis.Client, loader FormLoader, ttl time.Duration) *FormRepository {
	return &FormRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *FormRepository) GetForm(ctx context.Context, id int64) (domain.Form, error) {
	key := formKey(id)
	if form, ok := r.cached(ctx, key); ok {
		return form, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if form, ok := r.cached(ctx, key); ok {
			return form, nil
		}

		form, err := r.loader.LoadForm(ctx, id)
		if err != nil {
			return domain.Form{}, err
		}

		// A non-positive ttl disables caching, matching the in-memory repository.
		if ttl := r.ttlWithJitter(); ttl > 0 {
			if payload, err := json.Marshal(form); err == nil {
				// best-effort, the loader stays authoritative
				_ = r.client.Set(ctx, key, payload, ttl).Err()
			}
		}
		return form, nil
	})
	if err != nil {
		return domain.Form{}, err
	}
	return result.(domain.Form), nil
}

// Invalidate removes the cached copy of a form.
func (r *FormRepository) Invalidate(ctx context.Context, id int64) error {
	return r.client.Del(ctx, formKey(id)).Err()
}

func (r *FormRepository) cached(ctx context.Context, key string) (domain.Form, bool) {
	payload, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Form{}, false
	}
	var form domain.Form
	if err := json.Unmarshal(payload, &form); err != nil {
		return domain.Form{}, false
	}
	return form, true
}

func formKey(id int64) string {
	return "formflow:form:" + strconv.FormatInt(id, 10)
}

func (r *FormRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
