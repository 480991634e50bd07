package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConcatOptions defines concatenation parameters
type ConcatOptions struct {
	Inputs []string
	Output string
	Encode EncodeOptions
}

// Concat merges multiple video files into one. It first attempts a
// stream-copy concat; when the inputs are not copy-compatible it falls
// back to re-encoding rather than aborting.
func (e *Executor) Concat(ctx context.Context, opts ConcatOptions) error {
	if len(opts.Inputs) == 0 {
		return fmt.Errorf("no input files provided")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}

	e.logger.Info().
		Int("inputs", len(opts.Inputs)).
		Str("output", opts.Output).
		Msg("concatenating parts")

	if err := e.concat(ctx, opts, false); err != nil {
		e.logger.Warn().Err(err).Msg("stream-copy concat failed, re-encoding")
		os.Remove(opts.Output)
		if err := e.concat(ctx, opts, true); err != nil {
			return fmt.Errorf("concat failed: %w", err)
		}
	}

	return nil
}

func (e *Executor) concat(ctx context.Context, opts ConcatOptions, reEncode bool) error {
	concatFile, err := e.createConcatFile(opts.Inputs)
	if err != nil {
		return fmt.Errorf("failed to create concat file: %w", err)
	}
	defer os.Remove(concatFile)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", concatFile,
	}

	if reEncode {
		args = append(args, opts.Encode.args()...)
	} else {
		args = append(args, "-c", "copy")
	}
	args = append(args, "-an", opts.Output)

	runOpts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("concat")
		},
	}

	return e.Run(ctx, runOpts)
}

// createConcatFile generates a temporary file list for ffmpeg concat
func (e *Executor) createConcatFile(inputs []string) (string, error) {
	tmpFile, err := os.CreateTemp("", "bounce-concat-*.txt")
	if err != nil {
		return "", err
	}
	defer tmpFile.Close()

	for _, input := range inputs {
		absPath, err := filepath.Abs(input)
		if err != nil {
			return "", err
		}
		escaped := strings.ReplaceAll(absPath, "'", `'\''`)
		if _, err := fmt.Fprintf(tmpFile, "file '%s'\n", escaped); err != nil {
			return "", err
		}
	}

	return tmpFile.Name(), nil
}
