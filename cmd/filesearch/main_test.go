package main

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestMimeFromPath(t *testing.T) {
	cases := map[string]string{
		"contract.pdf":    "application/pdf",
		"Report.PDF":      "application/pdf",
		"notes.txt":       "text/plain",
		"readme.md":       "text/markdown",
		"guide.markdown":  "text/markdown",
		"deck.docx":       "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"archive.tar.gz":  "application/octet-stream",
		"/tmp/a/plan.txt": "text/plain",
	}
	for path, want := range cases {
		assert.Equal(t, want, mimeFromPath(path), path)
	}
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "INFO"} {
			app := &cli.App{
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "log-level", Value: "info"},
				},
				Before: setupLogger,
				Action: func(*cli.Context) error { return nil },
			}
			err := app.Run([]string{"filesearch", "--log-level", level})
			assert.NoError(t, err, level)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		app := &cli.App{
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "log-level", Value: "info"},
			},
			Before: setupLogger,
			Action: func(*cli.Context) error { return nil },
		}
		err := app.Run([]string{"filesearch", "--log-level", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Cleanup(func() {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	})
}

func TestBuildConfigOverrides(t *testing.T) {
	var gotErr error
	app := &cli.App{
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config"},
			&cli.StringFlag{Name: "db", Value: "filesearch.db"},
			&cli.StringFlag{Name: "ai-host"},
			&cli.StringFlag{Name: "ai-model"},
			&cli.Float64Flag{Name: "temperature", Value: -1},
		},
		Action: func(c *cli.Context) error {
			cfg, err := buildConfig(c)
			if err != nil {
				gotErr = err
				return err
			}
			assert.Equal(t, "/tmp/custom.db", cfg.DBPath)
			assert.Equal(t, "http://model:8000/v1", cfg.AI.Host)
			assert.Equal(t, 0.5, cfg.AI.Temperature)
			return nil
		},
	}

	err := app.Run([]string{"filesearch",
		"--db", "/tmp/custom.db",
		"--ai-host", "http://model:8000/v1",
		"--temperature", "0.5",
	})
	require.NoError(t, err)
	require.NoError(t, gotErr)
}
