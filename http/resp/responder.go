package resp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/http/req"
	"github.com/xy-planning-network/portfolio/logger"
)

const responderFrames = 1

// Responder maintains reusable pieces for responding to HTTP requests with JSON.
//
// Setting up a single Responder usually suffices for an application.
// When handling a specific HTTP request, calling code supplies data, status codes
// and so forth through Fn functions.
type Responder struct {
	logger logger.Logger

	// Pool of *bytes.Buffer to prerender responses into
	pool *sync.Pool

	// Root URL the responder is listening on, resolving relative Location headers
	rootURL *url.URL
}

// NewResponder constructs a *Responder using the ResponderOptFns passed in.
func NewResponder(opts ...ResponderOptFn) *Responder {
	d := &Responder{
		pool: &sync.Pool{New: func() any { return new(bytes.Buffer) }},
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = logger.New()
	}

	if l, ok := d.logger.(logger.SkipLogger); ok {
		d.logger = l.AddSkip(l.Skip() + responderFrames)
	}

	return d
}

// CurrentUser retrieves the user set in the context.
//
// If the context.Context has no value for portfolio.CurrentUserKey, ErrNotFound returns.
func (doer Responder) CurrentUser(ctx context.Context) (any, error) {
	val := ctx.Value(portfolio.CurrentUserKey)
	if val == nil {
		return nil, fmt.Errorf("%w: no user found with %s", portfolio.ErrNotFound, portfolio.CurrentUserKey)
	}
	return val, nil
}

// Err responds with the status code matching err and a JSON error body:
//
//	{"detail": "Not found."}
//
// When err wraps a validation failure, its issues are listed as well:
//
//	{"detail": "Invalid input.", "validationErrors": [{"field": "email", "got": "", "rule": "required; string"}]}
//
// Server errors are logged at the error level; all others at the debug level.
func (doer *Responder) Err(w http.ResponseWriter, r *http.Request, err error, opts ...Fn) {
	if err == nil {
		err = fmt.Errorf("%w: Err called without an error", portfolio.ErrUnexpected)
	}

	rr, nested := doer.do(w, r, append([]Fn{Err(err)}, opts...)...)
	if errors.Is(nested, ErrDone) {
		return
	}

	if nested != nil {
		doer.logger.Error(nested.Error(), &logger.LogContext{Error: err, Request: r})
	}

	body := map[string]any{"detail": rr.detail}
	var verrs req.ValidationErrors
	if errors.As(err, &verrs) {
		body["validationErrors"] = []req.ValidationError(verrs)
		body["fields"] = verrs.Fields()
	}

	doer.write(w, r, rr, body)
}

// Json responds with the data set by Data encoded as JSON.
// The default status code is 200; 204 responses have no body.
func (doer *Responder) Json(w http.ResponseWriter, r *http.Request, opts ...Fn) error {
	rr, err := doer.do(w, r, opts...)
	if err != nil {
		return err
	}

	if rr.code == 0 {
		rr.code = http.StatusOK
	}

	if rr.data == nil {
		return doer.write(w, r, rr, struct{}{})
	}

	return doer.write(w, r, rr, rr.data)
}

// do applies all options to a new *Response for w and r.
//
// do stops at the first option returning an error,
// or when r's context is done, returning ErrDone.
func (doer *Responder) do(w http.ResponseWriter, r *http.Request, opts ...Fn) (*Response, error) {
	rr := &Response{w: w, r: r}
	for _, opt := range opts {
		select {
		case <-r.Context().Done():
			return rr, fmt.Errorf("%w", ErrDone)
		default:
		}

		if err := opt(*doer, rr); err != nil {
			return rr, err
		}
	}

	return rr, nil
}

// write encodes payload into the body of the response.
func (doer *Responder) write(w http.ResponseWriter, r *http.Request, rr *Response, payload any) error {
	for k, vals := range rr.header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}

	if rr.code == http.StatusNoContent || r.Method == http.MethodHead {
		w.WriteHeader(rr.code)
		return nil
	}

	b := doer.pool.Get().(*bytes.Buffer)
	b.Reset()
	defer doer.pool.Put(b)

	if err := json.NewEncoder(b).Encode(payload); err != nil {
		err = fmt.Errorf("%w: failed encoding %T: %s", portfolio.ErrUnexpected, payload, err)
		doer.logger.Error(err.Error(), &logger.LogContext{Error: err, Request: r})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(rr.code)
	if _, err := b.WriteTo(w); err != nil {
		return err
	}

	return nil
}
