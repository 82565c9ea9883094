package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glasspane/termbridge/internal/session"
)

func setupRouter(t *testing.T) (*gin.Engine, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := session.NewManager(session.EngineOptions{FrameInterval: time.Millisecond}, nil, nil)
	t.Cleanup(sessions.Shutdown)

	h := NewHandlers(sessions)
	router := gin.New()
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.POST("/sessions", h.CreateSession)
	router.GET("/sessions", h.ListSessions)
	router.GET("/sessions/:id", h.GetSession)
	router.GET("/sessions/:id/output", h.ReadOutput)
	router.POST("/sessions/:id/input", h.WriteInput)
	router.POST("/sessions/:id/resize", h.Resize)
	router.POST("/sessions/:id/focus", h.Focus)
	router.DELETE("/sessions/:id", h.KillSession)
	return router, sessions
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, router *gin.Engine) session.Info {
	t.Helper()
	w := doJSON(t, router, "POST", "/sessions", createSessionRequest{Shell: "/bin/sh"})
	require.Equal(t, http.StatusCreated, w.Code)

	var info session.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	return info
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestCreateAndGetSession(t *testing.T) {
	router, _ := setupRouter(t)
	info := createSession(t, router)

	assert.NotEmpty(t, info.ID)
	assert.True(t, info.Active)

	w := doJSON(t, router, "GET", "/sessions/"+info.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetUnknownSession(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, "GET", "/sessions/sess_missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListSessions(t *testing.T) {
	router, _ := setupRouter(t)
	createSession(t, router)
	createSession(t, router)

	w := doJSON(t, router, "GET", "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestWriteInputAndReadOutput(t *testing.T) {
	router, _ := setupRouter(t)
	info := createSession(t, router)

	w := doJSON(t, router, "POST", "/sessions/"+info.ID+"/input", writeInputRequest{
		Data: "echo rest-marker\n",
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		w := doJSON(t, router, "GET", "/sessions/"+info.ID+"/output", nil)
		return w.Code == http.StatusOK && bytes.Contains(w.Body.Bytes(), []byte("rest-marker"))
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWriteInputValidation(t *testing.T) {
	router, _ := setupRouter(t)
	info := createSession(t, router)

	w := doJSON(t, router, "POST", "/sessions/"+info.ID+"/input", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResize(t *testing.T) {
	router, _ := setupRouter(t)
	info := createSession(t, router)

	w := doJSON(t, router, "POST", "/sessions/"+info.ID+"/resize", resizeRequest{Cols: 120, Rows: 40})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", "/sessions/"+info.ID, nil)
	var got session.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 120, got.Cols)
	assert.Equal(t, 40, got.Rows)
}

func TestFocusWithoutClient(t *testing.T) {
	router, _ := setupRouter(t)
	info := createSession(t, router)

	w := doJSON(t, router, "POST", "/sessions/"+info.ID+"/focus", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestKillSession(t *testing.T) {
	router, _ := setupRouter(t)
	info := createSession(t, router)

	w := doJSON(t, router, "DELETE", "/sessions/"+info.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", "/sessions/"+info.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
