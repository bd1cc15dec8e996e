package reporter

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go-applyflow-automation/internal/models"
)

// TelegramReporter pushes outcomes that need a human into the operator chat.
type TelegramReporter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *slog.Logger
}

func NewTelegramReporter(token string, chatID int64, log *slog.Logger) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	//turn this on in case of debug
	//bot.Debug = true

	return &TelegramReporter{bot: bot, chatID: chatID, log: log}, nil
}

func (t *TelegramReporter) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML" //use HTML for bold/italic
	_, err := t.bot.Send(msg)
	return err
}

// TaskNeedsAttention is called by the dispatcher for manual_required and
// failed outcomes. Delivery failures only get logged, the task row already
// has the truth.
func (t *TelegramReporter) TaskNeedsAttention(task *models.ApplicationTask, status models.Status, message string) {
	icon := "⚠️"
	if status == models.StatusManualRequired {
		icon = "✋"
	}

	text := fmt.Sprintf(
		"%s <b>Application #%d: %s</b>\n"+
			"👤 user %d, job %d\n"+
			"📝 %s",
		icon, task.ID, status, task.UserID, task.JobID, message,
	)
	if task.ResumeURL != "" {
		text += fmt.Sprintf("\n📄 <a href=\"%s\">Generated CV</a>", task.ResumeURL)
	}

	if err := t.SendMessage(text); err != nil {
		t.log.Warn("telegram notification failed", "task_id", task.ID, "error", err)
	}
}
