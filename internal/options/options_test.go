package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type readerConfig struct {
	workers int
	strict  bool
	calls   []string
}

func withWorkers(n int) Option[*readerConfig] {
	return New(func(c *readerConfig) error {
		if n < 0 {
			return errors.New("workers cannot be negative")
		}
		c.workers = n
		c.calls = append(c.calls, "workers")

		return nil
	})
}

func withStrict() Option[*readerConfig] {
	return NoError(func(c *readerConfig) {
		c.strict = true
		c.calls = append(c.calls, "strict")
	})
}

func TestApply(t *testing.T) {
	t.Run("applies in order", func(t *testing.T) {
		cfg := &readerConfig{}
		err := Apply(cfg, withStrict(), withWorkers(4))
		require.NoError(t, err)
		require.Equal(t, 4, cfg.workers)
		require.True(t, cfg.strict)
		require.Equal(t, []string{"strict", "workers"}, cfg.calls)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &readerConfig{}
		err := Apply(cfg, withWorkers(-1), withStrict())
		require.Error(t, err)
		require.Contains(t, err.Error(), "cannot be negative")
		require.False(t, cfg.strict)
	})

	t.Run("skips nil options", func(t *testing.T) {
		cfg := &readerConfig{}
		require.NoError(t, Apply(cfg, nil, withWorkers(2), nil))
		require.Equal(t, 2, cfg.workers)
	})

	t.Run("no options", func(t *testing.T) {
		cfg := &readerConfig{workers: 1}
		require.NoError(t, Apply(cfg))
		require.Equal(t, 1, cfg.workers)
	})
}
