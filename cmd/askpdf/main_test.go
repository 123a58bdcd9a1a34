package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableQdrant points the config at a port nothing listens on.
func unreachableQdrant(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("ASKPDF_VECTOR_STORE_TYPE", "qdrant")
	t.Setenv("ASKPDF_VECTOR_STORE_QDRANT_HOST", "127.0.0.1")
	t.Setenv("ASKPDF_VECTOR_STORE_QDRANT_PORT", "1")
	t.Setenv("ASKPDF_VECTOR_STORE_TIMEOUT", "2s")
	t.Setenv("ASKPDF_CHUNKER_TOKENIZER", "words")
	t.Setenv("ASKPDF_DATABASE_PATH", filepath.Join(t.TempDir(), "askpdf.db"))
}

func TestNewApp_ChatNeedsNoVectorStore(t *testing.T) {
	unreachableQdrant(t)

	a, err := newApp(true)
	require.NoError(t, err)
	defer a.close()

	assert.NotNil(t, a.llm)
	assert.Nil(t, a.db)
	assert.Nil(t, a.orchestrator)
}

func TestNewServer_ChatWorksWhileVectorStoreIsDown(t *testing.T) {
	unreachableQdrant(t)

	a, err := newApp(true)
	require.NoError(t, err)
	defer a.close()

	srv, err := newServer(t.Context(), a)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat/sessions", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
