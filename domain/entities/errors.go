package entities

import "errors"

// Page interaction failures
var (
	ErrElementNotFound = errors.New("element not found")
	ErrTimeout         = errors.New("timed out waiting for page")
	ErrUploadFailed    = errors.New("upload failed")
	ErrUnrecoverable   = errors.New("browser is gone")
	ErrActionFailed    = errors.New("all strategies failed")
)

// Tool level failures
var (
	ErrLoginRequired     = errors.New("login required")
	ErrPrivateProfile    = errors.New("profile is private")
	ErrNoPosts           = errors.New("no posts found")
	ErrInvalidProfileURL = errors.New("invalid instagram profile url")
	ErrNoImages          = errors.New("no images found")
	ErrEmptyReport       = errors.New("selector report is empty")
	ErrAlreadyRunning    = errors.New("a job is already running")
)
