package api

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/drillz/internal/identity"
)

// authenticate verifies the bearer token and stores its subject as the
// acting user.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := s.tokens.Verify(token)
		if err != nil {
			s.logger.Debug("rejected token", zap.Error(err))
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), userID)))
	})
}
