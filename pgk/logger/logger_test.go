package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newBufferedLogger(buf *bytes.Buffer) *zap.SugaredLogger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(buf),
		zapcore.InfoLevel,
	)

	return zap.New(core).Sugar()
}

func TestNew_Valid(t *testing.T) {
	lg, err := New()

	require.NoError(t, err)
	require.NotNil(t, lg)

	lg.Info("test")
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		target  string
		handler http.HandlerFunc
		want    []string
	}{
		{
			name:   "created order",
			method: http.MethodPost,
			target: "/api/orders",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"id":"1"}`))
			},
			want: []string{"uri: /api/orders", "method: POST", "status: 201", "size: 10"},
		},
		{
			name:   "implicit 200",
			method: http.MethodGet,
			target: "/ping",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("ok"))
			},
			want: []string{"status: 200", "size: 2"},
		},
		{
			name:   "empty client list",
			method: http.MethodGet,
			target: "/api/clients/c-1/orders",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
			want: []string{"status: 204", "size: 0"},
		},
		{
			name:   "query string kept in uri",
			method: http.MethodGet,
			target: "/api/orders/1?verbose=true",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("a"))
				w.Write([]byte("bc"))
			},
			want: []string{"uri: /api/orders/1?verbose=true", "size: 3", "duration:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := LoggingMiddleware(newBufferedLogger(&buf))(tt.handler)

			req := httptest.NewRequest(tt.method, tt.target, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			out := buf.String()
			assert.Contains(t, out, "request->")
			for _, s := range tt.want {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	var buf bytes.Buffer
	handler := middleware.RequestID(LoggingMiddleware(newBufferedLogger(&buf))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), "id: req-42")
}

func TestLoggingResponseWriter(t *testing.T) {
	recorder := httptest.NewRecorder()
	rw := &loggingResponseWriter{
		ResponseWriter: recorder,
		responseData:   &responseData{status: http.StatusOK},
	}

	rw.WriteHeader(http.StatusConflict)
	size, err := rw.Write([]byte("busy"))

	require.NoError(t, err)
	assert.Equal(t, 4, size)
	assert.Equal(t, 4, rw.responseData.size)
	assert.Equal(t, http.StatusConflict, rw.responseData.status)
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "busy", recorder.Body.String())
}
