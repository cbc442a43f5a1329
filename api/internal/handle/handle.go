package handle

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"testcasecraft/api/internal/llm"
	"testcasecraft/api/internal/matrix"
)

// Generator is the pipeline behind the generate endpoints.
type Generator interface {
	Generate(ctx context.Context, req matrix.Request) (matrix.Outcome, error)
}

type Handle struct {
	gen     Generator
	engines []string
	log     *slog.Logger
	// ping checks backing storage for /healthz; nil means nothing to check.
	ping func(ctx context.Context) error
}

// New builds the handlers. engines lists the names accepted as llm_name
// and is shown on the upload form.
func New(gen Generator, engines []string, log *slog.Logger, ping func(context.Context) error) *Handle {
	if log == nil {
		log = slog.Default()
	}
	return &Handle{gen: gen, engines: engines, log: log, ping: ping}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string   `json:"error"`
	Kind  llm.Kind `json:"kind,omitempty"`
}

// kindStatus maps a failed generation to its HTTP status.
func kindStatus(k llm.Kind) int {
	switch k {
	case llm.KindRateLimited:
		return http.StatusTooManyRequests
	case llm.KindContentBlocked, llm.KindEmptyResponse:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

// kindMessage is the user-facing text for a failed generation.
func kindMessage(r llm.Result) string {
	switch r.Kind {
	case llm.KindRateLimited:
		return "Quota limit reached. Please wait a minute and try again."
	case llm.KindContentBlocked:
		return "The model declined to answer for this document (content blocked)."
	case llm.KindEmptyResponse:
		return "The model returned an empty response. Try again or change the options."
	}
	if r.Err != nil {
		return "Generation failed: " + r.Err.Error()
	}
	return "Generation failed."
}
