package handler

import (
	"net/http"

	"github.com/authgate-dev/authgate/internal/response"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping() error
}

// Health reports liveness plus database reachability.
func Health(db Pinger, writer *response.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			writer.Error(w, r, err)
			return
		}
		writer.Success(w, map[string]string{"status": "ok"})
	}
}
