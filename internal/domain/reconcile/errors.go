package reconcile

import "errors"

var ErrInternal = errors.New("internal error")
