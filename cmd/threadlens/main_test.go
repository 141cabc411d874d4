package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findStringFlag(flags []cli.Flag, name string) *cli.StringFlag {
	for _, flag := range flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
			return f
		}
	}
	return nil
}

func TestDBFlags(t *testing.T) {
	t.Run("db is required", func(t *testing.T) {
		f := findStringFlag(dbFlags(), "db")
		require.NotNil(t, f)
		assert.True(t, f.Required)
		assert.Contains(t, f.Aliases, "d")
	})
}

func TestAIFlags(t *testing.T) {
	t.Run("ai-host has default value", func(t *testing.T) {
		f := findStringFlag(aiFlags(), "ai-host")
		require.NotNil(t, f)
		assert.Equal(t, "http://localhost:11434/v1", f.Value)
	})

	t.Run("embedding-model is required", func(t *testing.T) {
		f := findStringFlag(aiFlags(), "embedding-model")
		require.NotNil(t, f)
		assert.True(t, f.Required)
		assert.Empty(t, f.Value)
	})

	t.Run("classifier and generator models have defaults", func(t *testing.T) {
		classifier := findStringFlag(aiFlags(), "classifier-model")
		require.NotNil(t, classifier)
		assert.Equal(t, "qwen2.5:3b", classifier.Value)

		generator := findStringFlag(aiFlags(), "generator-model")
		require.NotNil(t, generator)
		assert.Equal(t, "llama3.1:8b", generator.Value)
	})
}

func TestSetupLogger(t *testing.T) {
	app := &cli.App{
		Name: "threadlens",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info"},
		},
		Before: setupLogger,
		Action: func(c *cli.Context) error { return nil },
	}

	t.Run("accepts known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
			err := app.Run([]string{"threadlens", "--log-level", level})
			assert.NoError(t, err, "level %q", level)
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		err := app.Run([]string{"threadlens", "--log-level", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}
