package resp

import (
	"net/url"

	"github.com/xy-planning-network/portfolio/logger"
)

// A ResponderOptFn is a functional option configuring a Responder when constructing a new one.
type ResponderOptFn func(*Responder)

// WithLogger sets the logger the Responder uses.
func WithLogger(log logger.Logger) ResponderOptFn {
	return func(d *Responder) {
		d.logger = log
	}
}

// WithRootURL sets the URL the Responder resolves relative locations against.
// An invalid URL is ignored.
func WithRootURL(u string) ResponderOptFn {
	return func(d *Responder) {
		parsed, err := url.ParseRequestURI(u)
		if err != nil {
			return
		}

		d.rootURL = parsed
	}
}
