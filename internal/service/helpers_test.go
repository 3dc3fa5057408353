package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func ptr[T any](v T) *T { return &v }

// recordingRemover records every key it is asked to remove.
type recordingRemover struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingRemover) Remove(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return nil
}

func (r *recordingRemover) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

// memoryRevoker keeps revoked token ids in memory.
type memoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
}

func newMemoryRevoker() *memoryRevoker {
	return &memoryRevoker{revoked: map[string]time.Duration{}}
}

func (r *memoryRevoker) RevokeToken(_ context.Context, tokenID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[tokenID] = ttl
	return nil
}

func (r *memoryRevoker) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[tokenID]
	return ok, nil
}

// memoryLinks is an in-memory short link cache that counts hits.
type memoryLinks struct {
	mu   sync.Mutex
	ids  map[string]uint
	hits int
}

func newMemoryLinks() *memoryLinks {
	return &memoryLinks{ids: map[string]uint{}}
}

func (l *memoryLinks) GetRecipeID(_ context.Context, slug string) (uint, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.ids[slug]
	if ok {
		l.hits++
	}
	return id, ok, nil
}

func (l *memoryLinks) SetRecipeID(_ context.Context, slug string, id uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids[slug] = id
	return nil
}

func (l *memoryLinks) DeleteRecipeID(_ context.Context, slug string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.ids, slug)
	return nil
}

type testEnv struct {
	db      *gorm.DB
	store   *storage.LocalStorage
	remover *recordingRemover
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := storage.NewLocalStorage(t.TempDir(), "http://testserver/media")
	require.NoError(t, err)

	return &testEnv{
		db:      testhelpers.SetupTestDatabase(t),
		store:   store,
		remover: &recordingRemover{},
	}
}
