package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	service "github.com/okian/athletix/internal/app"
)

// IdempotencyHeader carries the client's submission key.
const IdempotencyHeader = "Idempotency-Key"

const maxBodyBytes = 8 << 20

// IngestHandler accepts raw genetic and biometric documents.
type IngestHandler struct {
	deps IngestDependencies
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(deps IngestDependencies) *IngestHandler {
	return &IngestHandler{deps: deps}
}

type submitFunc func(ctx context.Context, athleteID, key string, docs []json.RawMessage) (service.Submission, error)

// HandlePostGenetics handles POST /athletes/{id}/genetics requests.
func (h *IngestHandler) HandlePostGenetics(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "api.post_genetics", h.deps.SubmitGenetic)
}

// HandlePostBiometrics handles POST /athletes/{id}/biometrics requests.
func (h *IngestHandler) HandlePostBiometrics(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "api.post_biometrics", h.deps.SubmitBiometrics)
}

func (h *IngestHandler) handle(w http.ResponseWriter, r *http.Request, op string, submit submitFunc) {
	docs, err := readDocuments(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	sub, err := submit(r.Context(), r.PathValue("id"), r.Header.Get(IdempotencyHeader), docs)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if sub.Duplicate {
		writeJSON(w, http.StatusOK, sub)
		return
	}
	writeJSON(w, http.StatusAccepted, sub)
}

// readDocuments accepts either one JSON object or an array of them.
func readDocuments(body io.Reader) ([]json.RawMessage, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty body")
	}
	switch raw[0] {
	case '[':
		var docs []json.RawMessage
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, err
		}
		if len(docs) == 0 {
			return nil, errors.New("no documents")
		}
		return docs, nil
	case '{':
		if !json.Valid(raw) {
			return nil, errors.New("invalid JSON object")
		}
		return []json.RawMessage{json.RawMessage(raw)}, nil
	default:
		return nil, errors.New("body must be a JSON object or array: " + strings.TrimSpace(string(raw[:1])))
	}
}
