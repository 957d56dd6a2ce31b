package interfaces

import "context"

// SessionGuard detects page states that only a human can resolve
type SessionGuard interface {
	// RequiresLogin checks if the URL is a login wall
	RequiresLogin(url string) bool

	// CheckProfile returns ErrLoginRequired or ErrPrivateProfile when the
	// profile on screen cannot be captured
	CheckProfile(ctx context.Context, browser Browser) error
}
