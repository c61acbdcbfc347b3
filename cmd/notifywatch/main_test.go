package main

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	authdomain "github.com/saransh1220/procurement-console/internal/modules/auth/domain"
	credentials "github.com/saransh1220/procurement-console/internal/modules/auth/infrastructure/keyring"
	"github.com/saransh1220/procurement-console/internal/shared/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenSource struct{}

func (brokenSource) Get() (string, error) { return "", errors.New("locked") }

func TestResolveToken_Precedence(t *testing.T) {
	store := credentials.NewCredentialStore(keyring.NewArrayKeyring(nil))
	require.NoError(t, store.Set("stored"))

	token, err := resolveToken(" Bearer flag ", "env", store)
	require.NoError(t, err)
	assert.Equal(t, "flag", token)

	token, err = resolveToken("", "env", store)
	require.NoError(t, err)
	assert.Equal(t, "env", token)

	token, err = resolveToken("", "", store)
	require.NoError(t, err)
	assert.Equal(t, "stored", token)
}

func TestResolveToken_Missing(t *testing.T) {
	_, err := resolveToken("", "", nil)
	assert.ErrorIs(t, err, authdomain.ErrMissingToken)

	empty := credentials.NewCredentialStore(keyring.NewArrayKeyring(nil))
	_, err = resolveToken("", "  ", empty)
	assert.ErrorIs(t, err, authdomain.ErrMissingToken)

	_, err = resolveToken("", "", brokenSource{})
	assert.EqualError(t, err, "locked")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"buyer-1", "buyer-2"}, splitList(" buyer-1, ,buyer-2,"))
	assert.Nil(t, splitList(""))
}

func TestNewLogger(t *testing.T) {
	logger, closeLog, err := newLogger("", config.LogConfig{Level: "debug"})
	require.NoError(t, err)
	defer closeLog()
	assert.NotNil(t, logger)

	path := t.TempDir() + "/watch.log"
	logger, closeLog, err = newLogger(path, config.LogConfig{})
	require.NoError(t, err)
	logger.Info("hello")
	closeLog()
	assert.FileExists(t, path)

	_, _, err = newLogger(t.TempDir()+"/missing/dir/watch.log", config.LogConfig{})
	assert.Error(t, err)
}
