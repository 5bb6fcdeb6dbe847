package service

import "errors"

// ErrNotStarted is returned by store and upstream calls made before Start or
// after Stop.
var ErrNotStarted = errors.New("service not started")
