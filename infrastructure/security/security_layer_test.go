package security

import (
	"context"
	"io"
	"testing"

	"browser_scripts/application/pagefake"
	"browser_scripts/domain/entities"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestRequiresLogin(t *testing.T) {
	guard := NewSecurityLayer(quietLogger())

	assert.True(t, guard.RequiresLogin("https://www.instagram.com/accounts/login/?next=/nasa/"))
	assert.True(t, guard.RequiresLogin("https://www.instagram.com/LOGIN"))
	assert.False(t, guard.RequiresLogin("https://www.instagram.com/nasa/"))
}

func TestCheckProfile(t *testing.T) {
	ctx := context.Background()
	guard := NewSecurityLayer(quietLogger())

	page := pagefake.New("https://www.instagram.com/nasa/")
	assert.NoError(t, guard.CheckProfile(ctx, page))

	page.SetURL("https://www.instagram.com/accounts/login/")
	assert.ErrorIs(t, guard.CheckProfile(ctx, page), entities.ErrLoginRequired)

	private := pagefake.New("https://www.instagram.com/someone/")
	private.Set("xpath=//*[contains(text(), 'This Account is Private')]", pagefake.NewElement("h2"))
	assert.ErrorIs(t, guard.CheckProfile(ctx, private), entities.ErrPrivateProfile)
}
