// Command simulate runs the validation engine against a stream of
// synthetic submissions, printing the verdict and anomaly report for
// each cycle.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/OracleGuard/internal/agent"
	"github.com/Alias1177/OracleGuard/internal/config"
	"github.com/Alias1177/OracleGuard/internal/detector"
	"github.com/Alias1177/OracleGuard/internal/simulator"
	"github.com/Alias1177/OracleGuard/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg.LogLevel)
	log.Info().Int("cycles", cfg.SimCycles).Dur("interval", cfg.SimInterval).Msg("Starting simulation")

	d, err := detector.New(cfg.Engine)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create anomaly detector")
	}
	a, err := agent.New(cfg.Engine)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create decision agent")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	sim := simulator.New(time.Now().UnixNano())

	var priceHistory, metricHistory []models.HistoricalRecord
	ticker := time.NewTicker(cfg.SimInterval)
	defer ticker.Stop()

	for cycle := 0; cycle < cfg.SimCycles; cycle++ {
		select {
		case <-ctx.Done():
			log.Info().Msg("Simulation interrupted")
			return
		case <-ticker.C:
		}

		priceHistory = runCycle(d, a, sim.NextAssetPrices(), priceHistory)
		metricHistory = runCycle(d, a, sim.NextMarketMetrics(), metricHistory)
	}

	summarize(a)
}

// runCycle validates one submission against its accumulated history and
// returns the history with the submission appended.
func runCycle(d *detector.Detector, a *agent.Agent, sub models.Submission, hist []models.HistoricalRecord) []models.HistoricalRecord {
	decision := a.AnalyzeSubmission(sub, hist)
	report := d.DetectAnomalies(sub, hist)

	event := log.Info().
		Int64("submission_id", sub.ID).
		Str("data_type", sub.DataType).
		Str("verdict", string(decision.Result)).
		Float64("confidence", decision.Confidence)
	if report.HasAnomalies {
		event = event.Int("anomalies", len(report.Anomalies))
	}
	event.Msg("Cycle complete")

	for _, anomaly := range report.Anomalies {
		log.Warn().
			Str("kind", string(anomaly.Kind)).
			Str("subject", anomaly.Subject).
			Str("severity", string(anomaly.Severity)).
			Msg(anomaly.Message)
	}

	return append(hist, models.HistoricalRecord{
		Data:      sub.DataValue,
		Timestamp: sub.Timestamp,
	})
}

func summarize(a *agent.Agent) {
	counts := make(map[models.Verdict]int)
	for _, decision := range a.Decisions() {
		counts[decision.Result]++
	}
	log.Info().
		Int("valid", counts[models.VerdictValid]).
		Int("invalid", counts[models.VerdictInvalid]).
		Int("uncertain", counts[models.VerdictUncertain]).
		Int("error", counts[models.VerdictError]).
		Msg("Simulation finished")
}

func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
	}()
}

func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
