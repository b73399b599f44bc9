package migrate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceURL(t *testing.T) {
	abs, err := filepath.Abs("migrations")
	require.NoError(t, err)

	for _, dir := range []string{"migrations", "./migrations", "file://migrations"} {
		got, err := sourceURL(dir)
		require.NoError(t, err, dir)
		assert.Equal(t, "file://"+filepath.ToSlash(abs), got, dir)
	}

	got, err := sourceURL("/srv/p2p/migrations")
	require.NoError(t, err)
	assert.Equal(t, "file:///srv/p2p/migrations", got)

	_, err = sourceURL(" ")
	assert.Error(t, err)
	_, err = sourceURL("file://")
	assert.Error(t, err)
}
