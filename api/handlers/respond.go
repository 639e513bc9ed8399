package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"incidents-api/core/metrics"
	"incidents-api/core/reconcile"
	"incidents-api/core/store"
	"incidents-api/core/utils"

	"github.com/go-chi/chi/v5/middleware"
)

var errPayloadTooLarge = errors.New("payload too large")

// Deps is what every resource handler needs.
type Deps struct {
	Store   *store.Store
	Metrics *metrics.Collector
	Logger  *utils.Logger
}

type base struct {
	store   *store.Store
	metrics *metrics.Collector
	logger  *utils.Logger
}

func newBase(d Deps) base {
	return base{store: d.Store, metrics: d.Metrics, logger: d.Logger}
}

// inSession runs fn inside a fresh unit of work and commits when fn succeeds.
// fn is expected to call save for any staged mutations.
func (b base) inSession(ctx context.Context, fn func(sess *store.Session) error) error {
	sess, err := b.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()
	if err := fn(sess); err != nil {
		return err
	}
	return sess.Commit()
}

func (b base) save(ctx context.Context, sess *store.Session) error {
	err := sess.SaveChanges(ctx)
	b.metrics.ObserveSaveChanges(err)
	return err
}

// requestLogger tags log lines with the request id set by chi's RequestID middleware.
func (b base) requestLogger(r *http.Request) *utils.Logger {
	return b.logger.With("request_id", middleware.GetReqID(r.Context()))
}

func (b base) observe(operation string, err error) {
	b.metrics.ObserveReconciliation(operation, outcomeOf(err))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case reconcile.IsNotFound(err):
		return "not_found"
	case reconcile.IsReferenceNotFound(err):
		return "reference_not_found"
	case reconcile.IsDuplicate(err):
		return "duplicate"
	case reconcile.IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}

// writeError maps engine errors onto status codes. refStatus is the status a
// missing referenced entity gets on this endpoint.
func (b base) writeError(w http.ResponseWriter, r *http.Request, err error, refStatus int) {
	switch {
	case errors.Is(err, errPayloadTooLarge):
		http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
	case reconcile.IsNotFound(err):
		http.Error(w, "not found", http.StatusNotFound)
	case reconcile.IsReferenceNotFound(err):
		http.Error(w, err.Error(), refStatus)
	case reconcile.IsDuplicate(err), reconcile.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		b.requestLogger(r).Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

// decodeJSON reads exactly one JSON object from the body. Malformed, empty or
// trailing input comes back as a validation error.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return &reconcile.Error{Kind: reconcile.ErrInvalidFormat, Message: "request body is required"}
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return &reconcile.Error{Kind: reconcile.ErrInvalidFormat, Message: "request body is required"}
		}
		return bodyError(err)
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return bodyError(err)
	}
	return nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errPayloadTooLarge
	}
	return &reconcile.Error{Kind: reconcile.ErrInvalidFormat, Message: "invalid request body"}
}

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func notFound() error {
	return &reconcile.Error{Kind: reconcile.ErrNotFound}
}

func duplicate(msg string) error {
	return &reconcile.Error{Kind: reconcile.ErrDuplicate, Message: msg}
}
