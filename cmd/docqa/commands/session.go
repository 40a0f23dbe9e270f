package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/54b3r/docqa-go/internal/audit"
	"github.com/54b3r/docqa-go/internal/config"
	"github.com/54b3r/docqa-go/internal/logging"
	"github.com/54b3r/docqa-go/internal/metrics"
)

// session is the per-invocation state shared by the subcommands: the
// resolved settings, the tagged logger and the metrics registry.
type session struct {
	ctx      context.Context
	log      *slog.Logger
	command  string
	runID    string
	settings config.Settings
	registry *prometheus.Registry
	metrics  *metrics.Observer
	started  time.Time
}

// startSession resolves settings for cmd and emits the audit start record.
func startSession(cmd *cobra.Command, flags *rootFlags, extra ...slog.Attr) *session {
	ctx := cmd.Context()
	settings := config.SettingsFromEnv()
	if flags.metricsFile != "" {
		settings.MetricsFile = flags.metricsFile
	}

	reg := prometheus.NewRegistry()
	s := &session{
		ctx:      ctx,
		log:      logging.FromContext(ctx),
		command:  cmd.Name(),
		runID:    logging.RunID(ctx),
		settings: settings,
		registry: reg,
		metrics:  metrics.New(reg),
		started:  time.Now(),
	}
	audit.LogCommandStart(ctx, s.log, s.command, s.runID, flags.loadedConfigPath, extra...)
	return s
}

// finish exports metrics when a textfile is configured and emits the audit
// end record. It returns err, joined with any export failure.
func (s *session) finish(err error) error {
	if path := s.settings.MetricsFile; path != "" {
		if werr := metrics.WriteTextfile(path, s.registry); werr != nil {
			s.log.Warn("metrics: textfile export failed", slog.String("path", path), slog.String("error", werr.Error()))
			if err == nil {
				err = fmt.Errorf("%s: %w", s.command, werr)
			}
		}
	}
	audit.LogCommandEnd(s.ctx, s.log, s.command, s.runID, time.Since(s.started), err)
	return err
}
