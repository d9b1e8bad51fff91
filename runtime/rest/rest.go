// Package rest exposes a collection over HTTP.
//
//	GET    /            list (filter, sort, page, pageSize query parameters)
//	GET    /count       count the records matching the filters
//	GET    /subscribe   websocket feed of committed changes
//	GET    /{id}        get
//	POST   /            create
//	PATCH  /{id}        partial update
//	DELETE /{id}        delete
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/modernmen/collectiongen"
	"github.com/modernmen/collectiongen/query"
	"github.com/modernmen/collectiongen/runtime/cache"
	"github.com/modernmen/collectiongen/runtime/store"
)

// MaxBodySize bounds request bodies.
const MaxBodySize = 1 << 20

// Handler serves one collection.
type Handler struct {
	coll     *store.Collection
	lister   cache.Lister
	auth     *Authenticator
	log      *zap.Logger
	upgrader websocket.Upgrader
	router   chi.Router
}

// Option configures a Handler.
type Option func(*Handler)

// WithAuthenticator verifies bearer tokens. Without it every request is
// anonymous.
func WithAuthenticator(a *Authenticator) Option {
	return func(h *Handler) { h.auth = a }
}

// WithSecret verifies HS256 bearer tokens signed with secret.
func WithSecret(secret []byte) Option {
	return WithAuthenticator(NewAuthenticator(secret))
}

// WithLister serves list requests from l, usually a cache.Collection.
func WithLister(l cache.Lister) Option {
	return func(h *Handler) { h.lister = l }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithCheckOrigin sets the websocket origin check. All origins are
// accepted by default.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(h *Handler) { h.upgrader.CheckOrigin = fn }
}

// New returns the HTTP handler of coll.
func New(coll *store.Collection, opts ...Option) *Handler {
	h := &Handler{
		coll:   coll,
		lister: coll,
		log:    zap.NewNop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With(zap.String("collection", coll.Name()))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if h.auth != nil {
		r.Use(h.auth.Middleware)
	}
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/count", h.count)
	r.Get("/subscribe", h.subscribe)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	h.router = r
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	opts, err := query.ParseValues(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.lister.List(r.Context(), opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) count(w http.ResponseWriter, r *http.Request) {
	opts, err := query.ParseValues(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.coll.Count(r.Context(), opts.Filter...)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"totalDocs": n})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.coll.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.coll.Create(r.Context(), data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.coll.Update(r.Context(), chi.URLParam(r, "id"), data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.coll.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// errBadBody marks malformed request bodies.
var errBadBody = errors.New("rest: malformed body")

func decodeBody(w http.ResponseWriter, r *http.Request) (store.Record, error) {
	var data store.Record
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadBody, err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", errBadBody)
	}
	return data, nil
}

type errorBody struct {
	Error string `json:"error"`
}

// Status returns the HTTP status of an operation error.
func Status(err error) int {
	var access *collectiongen.AccessError
	switch {
	case errors.As(err, &access):
		if access.Anonymous {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case collectiongen.IsNotFound(err):
		return http.StatusNotFound
	case collectiongen.IsConstraintError(err),
		query.IsInvalidOption(err),
		query.IsUnsupportedOperator(err),
		errors.Is(err, errBadBody):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
