package lecture

import "errors"

// Error taxonomy for session operations. Join failures are terminal for that
// attempt; the client is expected to re-initiate.
var (
	ErrLectureNotFound = errors.New("lecture not found")
	ErrRepeatName      = errors.New("name already registered in this lecture")
	ErrDuplicateKey    = errors.New("session key already registered")
	ErrInvalidSection  = errors.New("section index out of range")
	ErrNoSections      = errors.New("lecture must have at least one section")
)
