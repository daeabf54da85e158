// Package response writes the uniform envelope every endpoint returns:
// {"success": bool, "data": object|null, "error": object|null}.
package response

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/authgate-dev/authgate/internal/errors"
	"github.com/authgate-dev/authgate/internal/logger"
)

type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   *ErrorBody  `json:"error"`
}

type ErrorBody struct {
	Code   string              `json:"code"`
	Fields []errors.FieldError `json:"fields,omitempty"`

	// Populated only when debug responses are enabled.
	Detail    string `json:"detail,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Method    string `json:"method,omitempty"`
	Uri       string `json:"uri,omitempty"`
}

// Writer renders envelopes. Debug controls whether error details (inner
// detail code, request method/URI, timestamp) leak into responses;
// production must keep it off.
type Writer struct {
	Debug bool
}

func (wr *Writer) Success(w http.ResponseWriter, data interface{}) {
	wr.write(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Error maps a typed error onto the envelope. Anything that is not an
// *errors.Error is treated as uncaught: logged with full request context and
// surfaced as a generic 500 with details suppressed.
func (wr *Writer) Error(w http.ResponseWriter, r *http.Request, err error) {
	body := &ErrorBody{Code: "INTERNAL_ERROR"}
	status := http.StatusInternalServerError

	e, ok := errors.As(err)
	if ok {
		body.Code = e.Code
		body.Fields = e.Fields
		status = e.StatusCode
	} else {
		logger.Log.Error("uncaught error",
			"method", r.Method,
			"uri", r.RequestURI,
			"error", err,
			"stack", string(debug.Stack()))
	}

	if wr.Debug {
		if ok {
			body.Detail = e.Detail
		} else {
			body.Detail = err.Error()
		}
		body.Timestamp = time.Now().Format(time.RFC3339)
		body.Method = r.Method
		body.Uri = r.RequestURI
	}

	wr.write(w, status, Envelope{Success: false, Error: body})
}

func (wr *Writer) write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}
