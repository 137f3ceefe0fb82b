package scheduler

import "errors"

// ErrJobNotFound means RunNow was asked for a job that was never
// registered.
var ErrJobNotFound = errors.New("job not found")
