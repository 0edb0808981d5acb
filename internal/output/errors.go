package output

import "errors"

// Reasons a line produced no output. None of them is fatal to the stream.
var (
	ErrNoise         = errors.New("diagnostic noise line")
	ErrParseRejected = errors.New("line does not match the logcat format")
	ErrFilteredOut   = errors.New("tag filtered out")
	ErrWriteFailed   = errors.New("write to output failed")
)
