package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"fmt"
	"hash"
	"io"
	"net/http"
	"sync"

	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/http/resp"
)

const (
	IdempotencyHeader = "Idempotency-Key"
)

var (
	_ http.ResponseWriter = idemReqWriter{}
)

// Idempotent returns a middleware.Adapter that enables features
// of idempotency on a POST endpoint.
// GET, DELETE, PUT, & PATCH are idempotent by definition,
// so requests with those methods pass through untouched.
//
// Idempotent pulls a key (a UUID v4 string) from request headers
// to base the uniqueness of a POST request around.
// POST requests without a key pass through as well.
//
// If a previous request has not used that key,
// Idempotent pairs all of the following values to the key:
// - the hash of the body of the request
// - the body of the resulting response
// - the status code of the resulting response
//
// If that key has been used before (and has not expired),
// Idempotent falls into one of these scenarios:
//
//   - if a status code has not been set for that key,
//     Idempotent responds with 409 since the idempotent request is still processing
//
//   - if the newly requested resource (the URI) does not match the original,
//     Idempotent responds with 422
//
//   - if the new request's body does not match the body of the original request's,
//     Idempotent responds with 422
//
// - Idempotent writes the status code and body set for the key
//
// cache and newHash can be nil.
// Idempotent will use an in-memory cache and SHA-256, accordingly.
//
// Idempotent implements the draft Idempotent HTTP Header Field specification:
// https://tools.ietf.org/id/draft-idempotency-header-01.html
func Idempotent(d *resp.Responder, cache IdempotencyCacher, newHash func() hash.Hash) Adapter {
	if cache == nil {
		cache = NewIdemResMap()
	}

	if newHash == nil {
		newHash = sha256.New
	}

	var lock sync.Mutex
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if r.Method != http.MethodPost || key == "" {
				handler.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				d.Err(w, r, fmt.Errorf("%w: reading body: %s", portfolio.ErrUnexpected, err))
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			hasher := newHash()
			hasher.Write(body)
			sum := hasher.Sum(nil)

			// NOTE: checking and claiming a key must not interleave
			lock.Lock()
			ir, ok := cache.Get(r.Context(), key)
			if !ok {
				ir = NewIdemRes(r.URL.RequestURI(), sum)
				cache.Set(r.Context(), key, ir)
			}
			lock.Unlock()

			if ok {
				switch {
				case ir.Status == 0:
					d.Err(w, r, fmt.Errorf("%w: request with key %s in progress", portfolio.ErrExists, key), resp.Detail("A request with this Idempotency-Key is still processing."))

				case ir.URI != r.URL.RequestURI() || !bytes.Equal(ir.Req, sum):
					d.Err(
						w,
						r,
						fmt.Errorf("%w: key %s reused for a different request", portfolio.ErrNotValid, key),
						resp.Code(http.StatusUnprocessableEntity),
						resp.Detail("Idempotency-Key was already used for a different request."),
					)

				default:
					for k, vals := range ir.Header {
						for _, v := range vals {
							w.Header().Add(k, v)
						}
					}
					w.WriteHeader(ir.Status)
					w.Write(ir.Body.Bytes())
				}

				return
			}

			irw := idemReqWriter{
				ctx: r.Context(),
				c:   cache,
				i:   &ir,
				k:   key,
				w:   w,
			}
			handler.ServeHTTP(irw, r)
		})
	}
}

// An IdemRes is data from an HTTP response
// that can be reused when another request
// matches the same idempotency key.
type IdemRes struct {
	Body   *bytes.Buffer
	Header http.Header
	Req    []byte
	Status int
	URI    string
}

// An idemResGob is an intermediate representation of
// an IdemRes for the purposes of gob encoding/decoding.
//
// idemResGob is necessary as long as pkg gob cannot decode/encode
// fields in an IdemRes (e.g., Body).
type idemResGob struct {
	B []byte
	H map[string][]string
	R []byte
	S int
	U string
}

// NewIdemRes constructs a new IdemRes.
func NewIdemRes(uri string, hashedBody []byte) IdemRes {
	return IdemRes{Body: bytes.NewBuffer(nil), URI: uri, Req: hashedBody}
}

// GobDecode unmarshals the gob-encoded []byte into fields of the *IdemRes.
//
// GobDecode implements gob.GobDecoder.
func (i *IdemRes) GobDecode(b []byte) error {
	g := new(idemResGob)
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(g); err != nil {
		return err
	}

	i.Body = bytes.NewBuffer(g.B)
	i.Header = http.Header(g.H)
	i.Req, i.Status, i.URI = g.R, g.S, g.U
	return nil
}

// GobEncode marshals the fields of the IdemRes into a gob-encoded []byte.
//
// GobEncode implements gob.GobEncoder.
func (i IdemRes) GobEncode() ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	var body []byte
	if i.Body != nil {
		body = i.Body.Bytes()
	}

	g := idemResGob{body, i.Header, i.Req, i.Status, i.URI}
	if err := gob.NewEncoder(buf).Encode(g); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// An idemReqWriter pairs an IdemRes with an http.ResponseWriter
// so both can be written to by an HTTP handler.
// Changes to the IdemRes in such a way are saved in the cache.
//
// An idemReqWriter implements http.ResponseWriter.
type idemReqWriter struct {
	ctx context.Context
	c   IdempotencyCacher
	i   *IdemRes
	k   string
	w   http.ResponseWriter
}

// Header returns the http.Header of the underlying http.ResponseWriter.
func (irw idemReqWriter) Header() http.Header { return irw.w.Header() }

// Write writes the bytes to all consumers the idemReqWriter is concerned with.
func (irw idemReqWriter) Write(b []byte) (int, error) {
	select {
	case <-irw.ctx.Done():
		return 0, nil
	default:
		if irw.i.Status == 0 {
			irw.WriteHeader(http.StatusOK)
		}

		n, err := irw.w.Write(b)
		if err != nil {
			return n, err
		}

		if _, err = irw.i.Body.Write(b); err != nil {
			return n, err
		}

		irw.c.Set(irw.ctx, irw.k, *irw.i)
		return n, nil
	}
}

// WriteHeader copies the status code and headers about to be written to the IdemRes for later reuse
// before actually writing the status code.
func (irw idemReqWriter) WriteHeader(s int) {
	select {
	case <-irw.ctx.Done():
		return
	default:
		irw.i.Header = irw.w.Header().Clone()
		irw.w.WriteHeader(s)
		irw.i.Status = s
		irw.c.Set(irw.ctx, irw.k, *irw.i)
	}
}
