package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blitzfilter/test-api/fixture"
	"github.com/blitzfilter/test-api/item"
)

// referenceTime anchors creation timestamps so output depends on the seed only.
var referenceTime = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

type options struct {
	count   int
	seed    uint64
	out     string
	force   bool
	verbose bool
}

func newCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "fixturegen",
		Short:         "Generate a seeded item fixture",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(opts.verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return run(cmd.OutOrStdout(), opts, logger)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.count, "count", "n", fixture.Size, "number of items to generate")
	flags.Uint64Var(&opts.seed, "seed", 42, "random seed")
	flags.StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")
	flags.BoolVar(&opts.force, "force", false, "replace an existing output file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log every generated item")
	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func run(stdout io.Writer, opts options, logger *zap.Logger) error {
	if opts.count <= 0 {
		return errors.New("count must be positive")
	}
	if opts.seed == 0 {
		return errors.New("seed must be non-zero for reproducible output")
	}
	if opts.out != "" && !opts.force {
		if _, err := os.Stat(opts.out); err == nil {
			return fmt.Errorf("%s exists; use --force to replace it", opts.out)
		}
	}

	items := item.NewGenerator(opts.seed, item.WithClock(func() time.Time { return referenceTime })).
		GenerateMany(opts.count)
	for _, m := range items {
		logger.Debug("generated item", zap.String("item_id", m.ItemID), zap.String("hash", m.Hash))
	}

	var buf bytes.Buffer
	if err := fixture.Encode(&buf, items); err != nil {
		return err
	}
	// validate what we are about to publish
	if _, err := fixture.Decode(bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("generated fixture is invalid: %w", err)
	}

	if opts.out == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(opts.out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	logger.Info("fixture written",
		zap.String("path", opts.out),
		zap.Int("count", len(items)),
		zap.Uint64("seed", opts.seed))
	return nil
}
