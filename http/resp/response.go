package resp

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/logger"
)

// A Fn is a functional option that mutates the state of the Response.
type Fn func(Responder, *Response) error

// A Response is the internal object a Responder response method builds while applying all
// functional options.
type Response struct {
	w      http.ResponseWriter
	r      *http.Request
	code   int
	data   any
	detail string
	header http.Header
}

// Code sets the response status code.
func Code(c int) Fn {
	return func(_ Responder, r *Response) error {
		if c < 100 || c > 599 {
			return fmt.Errorf("%w: %d is not a status code", portfolio.ErrNotValid, c)
		}

		r.code = c
		return nil
	}
}

// Created sets the status code to 201 and the Location header to path,
// resolved against the Responder's root URL when set.
func Created(path string) Fn {
	return func(d Responder, r *Response) error {
		if err := Code(http.StatusCreated)(d, r); err != nil {
			return err
		}

		return Location(path)(d, r)
	}
}

// Data stores the value written to the client as JSON.
func Data(d any) Fn {
	return func(_ Responder, r *Response) error {
		r.data = d
		return nil
	}
}

// Detail overrides the message in the body of an error response.
func Detail(msg string) Fn {
	return func(_ Responder, r *Response) error {
		r.detail = msg
		return nil
	}
}

// Err sets the status code matching e, along with a default error message, and logs e.
//
// Server errors are logged at the error level; all others at the debug level.
func Err(e error) Fn {
	return func(d Responder, r *Response) error {
		code := StatusCode(e)
		if err := Code(code)(d, r); err != nil {
			return err
		}

		if r.detail == "" {
			r.detail = defaultDetail(code)
		}

		lc := &logger.LogContext{Error: e, Request: r.r}
		if u, ok := r.r.Context().Value(portfolio.CurrentUserKey).(logger.LogUser); ok {
			lc.User = u
		}

		if code >= http.StatusInternalServerError {
			d.logger.Error(e.Error(), lc)
			return nil
		}

		d.logger.Debug(e.Error(), lc)
		return nil
	}
}

// Location sets the Location header to path, resolved against the Responder's root URL when set.
func Location(path string) Fn {
	return func(d Responder, r *Response) error {
		u, err := url.Parse(path)
		if err != nil {
			return fmt.Errorf("%w: %s is not a valid URL: %s", portfolio.ErrNotValid, path, err)
		}

		if d.rootURL != nil {
			u = d.rootURL.ResolveReference(u)
		}

		if r.header == nil {
			r.header = make(http.Header)
		}

		r.header.Set("Location", u.String())
		return nil
	}
}

// StatusCode maps err onto an HTTP status code by the portfolio sentinel error it wraps.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, portfolio.ErrNotValid),
		errors.Is(err, portfolio.ErrBadFormat),
		errors.Is(err, portfolio.ErrMissingData):
		return http.StatusBadRequest

	case errors.Is(err, portfolio.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, portfolio.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, portfolio.ErrNotFound), errors.Is(err, portfolio.ErrNotExist):
		return http.StatusNotFound

	case errors.Is(err, portfolio.ErrExists):
		return http.StatusConflict

	case errors.Is(err, portfolio.ErrNotImplemented):
		return http.StatusNotImplemented

	default:
		return http.StatusInternalServerError
	}
}

func defaultDetail(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "Invalid input."
	case http.StatusUnauthorized:
		return "Authentication credentials were not provided or are not valid."
	case http.StatusForbidden:
		return "You do not have permission to perform this action."
	case http.StatusNotFound:
		return "Not found."
	case http.StatusConflict:
		return "A record with these details already exists."
	case http.StatusMethodNotAllowed:
		return "Method not allowed."
	case http.StatusTooManyRequests:
		return "Request was throttled."
	default:
		return http.StatusText(code)
	}
}
