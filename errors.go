package breathe

import "errors"

var ErrNotFound = errors.New("not found")
