package usage

import "errors"

// ErrLimitReached indicates the client exhausted its generation quota.
var ErrLimitReached = errors.New("limit reached")
