package middlewares

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/dashpay-relay/internal/observability/logger"
)

// statusRecorder captura el status code de la respuesta.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.status = code
	s.wroteHeader = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.status = http.StatusOK
		s.wroteHeader = true
	}
	return s.ResponseWriter.Write(b)
}

// WithLogging inyecta un logger "scoped" (request_id, method, path) en el
// contexto y registra cada request al terminar.
//
//	{"level":"info","msg":"request completed","request_id":"6f1c...","method":"POST","path":"/delivery/quote","status":200,"duration":0.41}
func WithLogging() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLog := logger.L().With(
				logger.RequestID(GetRequestID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
			)
			ctx := logger.ToContext(r.Context(), reqLog)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			lvl := reqLog.Info
			if rec.status >= http.StatusInternalServerError {
				lvl = reqLog.Warn
			}
			lvl("request completed",
				logger.Status(rec.status),
				logger.ClientIP(clientIP(r)),
				logger.Duration(time.Since(start)),
			)
		})
	}
}
