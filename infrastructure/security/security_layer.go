package security

import (
	"context"
	"strings"

	"browser_scripts/domain/entities"
	"browser_scripts/domain/interfaces"

	"github.com/sirupsen/logrus"
)

var loginKeywords = []string{"login", "accounts"}

var privateProfileKeywords = []string{
	"Esta cuenta es privada",
	"This Account is Private",
	"This account is private",
}

type SecurityLayer struct {
	logger *logrus.Logger
}

func NewSecurityLayer(logger *logrus.Logger) interfaces.SessionGuard {
	return &SecurityLayer{
		logger: logger,
	}
}

func (s *SecurityLayer) RequiresLogin(url string) bool {
	lowerURL := strings.ToLower(url)
	for _, keyword := range loginKeywords {
		if strings.Contains(lowerURL, keyword) {
			return true
		}
	}
	return false
}

func (s *SecurityLayer) CheckProfile(ctx context.Context, browser interfaces.Browser) error {
	url := browser.CurrentURL(ctx)
	if s.RequiresLogin(url) {
		s.logger.WithField("url", url).Warn("Login wall detected, log in by hand and start again")
		return entities.ErrLoginRequired
	}

	for _, keyword := range privateProfileKeywords {
		found, err := browser.Query(ctx, "xpath=//*[contains(text(), '"+keyword+"')]")
		if err != nil {
			s.logger.WithError(err).Debug("Private profile probe failed")
			continue
		}
		if len(found) > 0 {
			s.logger.WithField("url", url).Error("The account is private, posts cannot be seen")
			return entities.ErrPrivateProfile
		}
	}

	return nil
}
