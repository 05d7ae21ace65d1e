package idempotency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu   sync.Mutex
	recs map[string]Record
}

func newMemoryStore() *memoryStore { return &memoryStore{recs: map[string]Record{}} }

func (m *memoryStore) Reserve(_ context.Context, key, hash string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.recs[key]; ok {
		return &rec, nil
	}
	m.recs[key] = Record{Hash: hash}
	return nil, nil
}

func (m *memoryStore) Complete(_ context.Context, key string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.Done = true
	m.recs[key] = rec
	return nil
}

func (m *memoryStore) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, key)
	return nil
}

func newRouter(store Store, status *int) (*gin.Engine, *int) {
	gin.SetMode(gin.TestMode)
	calls := 0
	r := gin.New()
	r.POST("/checkout", Middleware(store, zerolog.Nop()), func(c *gin.Context) {
		calls++
		c.JSON(*status, gin.H{"call": calls})
	})
	return r, &calls
}

func do(r http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer t")
	if key != "" {
		req.Header.Set(Header, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestReplaysFirstResponse(t *testing.T) {
	status := http.StatusOK
	r, calls := newRouter(newMemoryStore(), &status)

	first := do(r, "k1", `{"a":1}`)
	second := do(r, "k1", `{"a":1}`)

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Code, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 1, *calls)
}

func TestConflictOnDifferentBody(t *testing.T) {
	status := http.StatusOK
	r, calls := newRouter(newMemoryStore(), &status)

	do(r, "k1", `{"a":1}`)
	w := do(r, "k1", `{"a":2}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, *calls)
}

func TestConflictWhileInFlight(t *testing.T) {
	store := newMemoryStore()
	status := http.StatusOK
	r, calls := newRouter(store, &status)

	hash := digest([]byte("POST:/checkout:"), []byte(`{}`))
	_, err := store.Reserve(context.Background(), digest([]byte("Bearer t"))+":k1", hash)
	require.NoError(t, err)

	w := do(r, "k1", `{}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, *calls)
}

func TestNoHeaderPassesThrough(t *testing.T) {
	status := http.StatusOK
	r, calls := newRouter(newMemoryStore(), &status)

	do(r, "", `{}`)
	do(r, "", `{}`)
	assert.Equal(t, 2, *calls)
}

func TestServerErrorReleasesKey(t *testing.T) {
	store := newMemoryStore()
	status := http.StatusBadGateway
	r, calls := newRouter(store, &status)

	do(r, "k1", `{}`)
	assert.Empty(t, store.recs)

	status = http.StatusOK
	w := do(r, "k1", `{}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, *calls)
}

func TestClientErrorIsReplayed(t *testing.T) {
	status := http.StatusBadRequest
	r, calls := newRouter(newMemoryStore(), &status)

	do(r, "k1", `{}`)
	w := do(r, "k1", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, *calls)
}
