package logger

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type (
	responseData struct {
		status int
		size   int
	}

	loggingResponseWriter struct {
		http.ResponseWriter
		responseData *responseData
	}
)

func (r *loggingResponseWriter) Write(b []byte) (int, error) {
	size, err := r.ResponseWriter.Write(b)
	r.responseData.size += size
	return size, err
}

func (r *loggingResponseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.responseData.status = statusCode
}

func New() (*zap.SugaredLogger, error) {
	lg, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}

	return lg.Sugar(), nil
}

// LoggingMiddleware logs one line per request. It expects chi's RequestID
// middleware to run before it; without it the request id is empty.
func LoggingMiddleware(lg *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rd := &responseData{
				status: http.StatusOK,
				size:   0,
			}
			lw := loggingResponseWriter{
				ResponseWriter: w,
				responseData:   rd,
			}

			next.ServeHTTP(&lw, r)

			lg.Infoln(
				"request->",
				"id:", middleware.GetReqID(r.Context()),
				"uri:", r.RequestURI,
				"method:", r.Method,
				"status:", rd.status,
				"size:", rd.size,
				"duration:", time.Since(start),
			)
		})
	}
}
