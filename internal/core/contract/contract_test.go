package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequire(t *testing.T) {
	t.Cleanup(func() { Configure(true, zap.NewNop()) })

	t.Run("passes", func(t *testing.T) {
		require.True(t, Require(true, "never"))
	})

	t.Run("fail fast panics", func(t *testing.T) {
		Configure(true, nil)
		require.PanicsWithError(t, "contract violation: bad handle 7", func() {
			Require(false, "bad handle %d", 7)
		})
	})

	t.Run("resilient returns false", func(t *testing.T) {
		Configure(false, zap.NewNop())
		require.NotPanics(t, func() {
			require.False(t, Require(false, "nil entity"))
		})
		require.False(t, FailFast())
	})
}
