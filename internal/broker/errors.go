package broker

import "errors"

// ErrTimeout is returned by AwaitResult when the deadline elapses with no
// matching result. It is ambiguous: the job may still be queued, running, or
// lost. Callers must not assume the job did not execute.
var ErrTimeout = errors.New("timed out waiting for result")

// ErrUnavailable marks transport-level failures to publish, consume or await.
// Callers should treat it as an unavailable dependency; the gateway does not
// retry it automatically.
var ErrUnavailable = errors.New("broker unavailable")
