package logging

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLevels(t *testing.T) {
	l, err := New("debug", false)
	require.NoError(t, err)
	assert.True(t, l.Desugar().Core().Enabled(zapcore.DebugLevel))

	l, err = New("warn", true)
	require.NoError(t, err)
	assert.False(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))

	_, err = New("chatty", false)
	require.Error(t, err)
}

func TestRequestsMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core).Sugar()

	h := Requests(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/entries/e1/shed/molt", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/api/entries/e1/shed/molt", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shed.log")
	l, err := NewFile("info", path)
	require.NoError(t, err)
	l.Infow("Shed: Marcus has shed", "chars", 42)
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Shed: Marcus has shed"`)
}
