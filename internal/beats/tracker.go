package beats

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Atomic-Germ/bounce/pkg/util"
)

// Detect runs the external beat tracker against an audio file and
// normalizes its output into a Track. The tracker command is configurable
// and must print one beat timestamp per stdout line, either plain seconds
// or clock-style MM:SS / HH:MM:SS; anything after the first field on a line
// is ignored.
func Detect(ctx context.Context, logger zerolog.Logger, trackerCmd, audioPath string) (*Track, error) {
	fields := strings.Fields(trackerCmd)
	if len(fields) == 0 {
		return nil, fmt.Errorf("beat tracker command is empty")
	}

	bin, err := exec.LookPath(fields[0])
	if err != nil {
		return nil, fmt.Errorf("beat tracker %q not found in PATH: %w", fields[0], err)
	}

	args := append(fields[1:], audioPath)

	logger.Info().
		Str("tracker", bin).
		Str("audio", audioPath).
		Msg("detecting beats")

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("beat tracker failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	times, err := parseTrackerOutput(&stdout, logger)
	if err != nil {
		return nil, err
	}

	track := NewTrack(times, 0)
	if iv, err := track.MeanInterval(); err == nil && iv > 0 {
		track.Tempo = 60.0 / iv
	}

	logger.Info().
		Int("beats", track.Len()).
		Float64("tempo", track.Tempo).
		Msg("beat detection complete")

	return track, nil
}

func parseTrackerOutput(r *bytes.Buffer, logger zerolog.Logger) ([]float64, error) {
	var times []float64
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		first := strings.Fields(line)[0]
		ts, err := util.ParseSeconds(strings.TrimSuffix(first, ","))
		if err != nil {
			logger.Warn().Str("text", line).Msg("skipping unparsable tracker line")
			continue
		}
		times = append(times, ts)
	}

	if len(times) == 0 {
		return nil, fmt.Errorf("beat tracker produced no timestamps")
	}
	return times, nil
}
