// Package notify pushes high-severity anomaly alerts to an ops Telegram
// channel.
package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/OracleGuard/models"
)

// Notifier sends anomaly alerts through a Telegram bot.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// New creates a notifier from a bot token and target chat.
func New(token string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("initializing telegram bot: %w", err)
	}
	return &Notifier{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "notifier").Logger(),
	}, nil
}

// AnomalyAlert sends a message for every HIGH-severity anomaly in the
// report. Reports without HIGH anomalies are skipped.
func (n *Notifier) AnomalyAlert(report models.AnomalyReport) error {
	var lines []string
	for _, a := range report.Anomalies {
		if a.Severity != models.SeverityHigh {
			continue
		}
		lines = append(lines, fmt.Sprintf(
			"• %s on %s: current %.4f vs reference %.4f (metric %.2f, threshold %.2f)",
			a.Kind, a.Subject, a.CurrentValue, a.ReferenceValue, a.MetricValue, a.Threshold,
		))
	}
	if len(lines) == 0 {
		return nil
	}

	text := fmt.Sprintf(
		"⚠️ HIGH severity anomalies in submission %d:\n%s",
		report.SubmissionID,
		strings.Join(lines, "\n"),
	)

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Int64("submission_id", report.SubmissionID).Msg("Failed to send anomaly alert")
		return err
	}

	n.logger.Info().Int64("submission_id", report.SubmissionID).Int("count", len(lines)).Msg("Anomaly alert sent")
	return nil
}
