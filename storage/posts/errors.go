package posts

import "errors"

// ErrNotFound is returned when no post or media row matches the lookup key.
var ErrNotFound = errors.New("not found")
