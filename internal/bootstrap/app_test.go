package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesum-backend/internal/documents"
	"notesum-backend/internal/shared/cache"
	"notesum-backend/internal/shared/config"
	localstore "notesum-backend/internal/shared/storage/object/local"
	"notesum-backend/internal/summaries"
)

func devConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:             "test",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		PublicBaseURL:   "http://localhost:8080",
		FetchTimeout:    time.Second,
		SignedURLTTL:    time.Minute,
	}
}

func TestBuildDevUsesMemoryBackends(t *testing.T) {
	app, err := Build(devConfig(t))
	require.NoError(t, err)

	assert.Nil(t, app.DB)
	assert.Nil(t, app.Queue)
	assert.IsType(t, &documents.MemoryRepo{}, app.DocumentsRepo)
	assert.IsType(t, &summaries.MemoryStore{}, app.SummaryStore)
	assert.IsType(t, &localstore.Store{}, app.Store)
	assert.IsType(t, &cache.Memory{}, app.Cache)
	require.NotNil(t, app.ProcessingService)
	require.NotNil(t, app.Router)

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBuildSkipRouter(t *testing.T) {
	app, err := Build(devConfig(t), Options{SkipRouter: true})
	require.NoError(t, err)
	assert.Nil(t, app.Router)
	assert.NotNil(t, app.Extractor)
}

func TestBuildProductionRequiresDatabase(t *testing.T) {
	cfg := devConfig(t)
	cfg.Env = "production"
	_, err := Build(cfg)
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestBuildCacheFallsBackWhenRedisUnreachable(t *testing.T) {
	cfg := devConfig(t)
	cfg.RedisURL = "redis://127.0.0.1:1/0"
	assert.IsType(t, &cache.Memory{}, buildCache(t.Context(), cfg))
}
