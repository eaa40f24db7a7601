package resp

import "errors"

var ErrDone = errors.New("request ctx done")
