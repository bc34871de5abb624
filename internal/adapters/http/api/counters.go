package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/StacL/tdd/internal/domain/counter"
)

// CounterService is the counter store service the handlers delegate to.
type CounterService interface {
	Create(ctx context.Context, name string) (counter.Result, error)
	Increment(ctx context.Context, name string) (counter.Result, error)
	Read(ctx context.Context, name string) (counter.Result, error)
	Delete(ctx context.Context, name string) (counter.Result, error)
}

// CountersHandler serves /counters/{name}.
type CountersHandler struct {
	svc CounterService
}

// NewCountersHandler creates a new counters handler.
func NewCountersHandler(svc CounterService) *CountersHandler {
	return &CountersHandler{svc: svc}
}

// HandleCreate handles POST /counters/{name}: 201 {name: 0} or 409.
func (h *CountersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Create(r.Context(), r.PathValue("name"))
	if err != nil {
		writeFailure(w, r.PathValue("name"), err)
		return
	}
	writeCounter(w, http.StatusCreated, res.Counter)
}

// HandleUpdate handles PUT /counters/{name}: 200 {name: value} or 404.
func (h *CountersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Increment(r.Context(), r.PathValue("name"))
	if err != nil {
		writeFailure(w, r.PathValue("name"), err)
		return
	}
	writeCounter(w, http.StatusOK, res.Counter)
}

// HandleRead handles GET /counters/{name}: 200 {name: value} or 404.
func (h *CountersHandler) HandleRead(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Read(r.Context(), r.PathValue("name"))
	if err != nil {
		writeFailure(w, r.PathValue("name"), err)
		return
	}
	writeCounter(w, http.StatusOK, res.Counter)
}

// HandleDelete handles DELETE /counters/{name}: 204 with no body or 404.
func (h *CountersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.Delete(r.Context(), r.PathValue("name")); err != nil {
		writeFailure(w, r.PathValue("name"), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeCounter encodes a counter as a single-entry object keyed by its name.
func writeCounter(w http.ResponseWriter, status int, c counter.Counter) {
	writeJSON(w, status, map[string]int64{c.Name: c.Value})
}

func writeFailure(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, counter.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, map[string]string{messageKey: counter.AlreadyExistsMessage(name)})
	case errors.Is(err, counter.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{errorKey: counter.NotFoundMessage(name)})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{errorKey: ErrInternal.Error()})
	}
}
