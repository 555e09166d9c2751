// Package job runs the configured archives one after another.
package job

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"arkaive/internal/archive"
	"arkaive/internal/config"
	"arkaive/internal/errors"
	"arkaive/internal/paths"
)

// Runner archives every configured directory in order and stops at the
// first failure.
type Runner struct {
	config *config.Config
	logger zerolog.Logger
}

// NewRunner creates a Runner for a loaded configuration
func NewRunner(cfg *config.Config, logger zerolog.Logger) *Runner {
	return &Runner{
		config: cfg,
		logger: logger,
	}
}

// Run validates the configuration and archives each job. The results of the
// jobs that completed are returned even when a later job fails. An empty
// archive list is a successful run that writes nothing.
func (r *Runner) Run() ([]archive.Result, error) {
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	logger := r.logger.With().Str("run_id", uuid.NewString()).Logger()
	logger.Info().Int("archives", len(r.config.Archives)).Msg("run started")

	results := make([]archive.Result, 0, len(r.config.Archives))
	for _, a := range r.config.Archives {
		result, err := r.runJob(logger, a)
		if err != nil {
			logger.Error().Err(err).Str("job", a.Name).Msg("archive failed")
			return results, errors.Wrapf(err, "job %q", a.Name)
		}
		results = append(results, *result)
	}

	logger.Info().Int("archives", len(results)).Msg("run finished")
	return results, nil
}

func (r *Runner) runJob(logger zerolog.Logger, a config.Archive) (*archive.Result, error) {
	log := logger.With().Str("job", a.Name).Logger()

	resolved, err := paths.Resolve(a)
	if err != nil {
		return nil, err
	}
	log.Info().Str("input", resolved.Input).Str("output", resolved.Output).Msg("archiving")

	opts := archive.DefaultOptions()
	opts.Level = r.config.Compression.Level
	opts.Logger = &log

	start := time.Now()
	result, err := archive.Create(resolved.Input, resolved.Output, opts)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("entries", result.Entries).
		Int64("size", result.Size).
		Str("checksum", result.Checksum).
		Dur("duration", time.Since(start)).
		Msg("archive written")

	return result, nil
}
