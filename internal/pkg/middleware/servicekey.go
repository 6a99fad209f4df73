package middleware

import (
	"net/http"

	"frotastock/internal/pkg/logger"
)

// NewServiceKeyMiddleware cria um middleware de autenticação serviço-a-serviço
// via header x-api-key. Usado quando outro backend (e.g., o serviço de
// requisições de almoxarifado) chama a rota de dedução de estoque diretamente,
// sem um JWT de usuário final.
func NewServiceKeyMiddleware(validKeys []string, log logger.Logger) func(next http.HandlerFunc) http.HandlerFunc {
	keySet := make(map[string]struct{}, len(validKeys))
	for _, k := range validKeys {
		if k != "" {
			keySet[k] = struct{}{}
		}
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("x-api-key")

			if apiKey == "" {
				log.Warn("API key de serviço ausente.", map[string]interface{}{"path": r.URL.Path, "remote": r.RemoteAddr})
				http.Error(w, "API key required", http.StatusUnauthorized)
				return
			}

			if _, ok := keySet[apiKey]; !ok {
				log.Warn("API key de serviço inválida.", map[string]interface{}{"path": r.URL.Path, "remote": r.RemoteAddr})
				http.Error(w, "Invalid API key", http.StatusForbidden)
				return
			}

			log.Debug("Serviço autenticado via API key.", map[string]interface{}{"path": r.URL.Path})
			next.ServeHTTP(w, r)
		}
	}
}
