package notifications

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	guarderrors "github.com/ducminhle1904/strategy-guard/internal/errors"
)

const telegramAPI = "https://api.telegram.org"

type TelegramNotifier struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
}

func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		baseURL: telegramAPI,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the notifier at another Bot API endpoint
func (t *TelegramNotifier) WithBaseURL(baseURL string) *TelegramNotifier {
	t.baseURL = strings.TrimRight(baseURL, "/")
	return t
}

func (t *TelegramNotifier) SendAlert(level, message string) error {
	emoji := "ℹ️"
	switch level {
	case LevelWarning:
		emoji = "⚠️"
	case LevelError:
		emoji = "🚨"
	case LevelSuccess:
		emoji = "✅"
	}

	text := fmt.Sprintf("%s *Strategy Guard Alert*\n\n%s", emoji, message)

	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)

	data := url.Values{}
	data.Set("chat_id", t.chatID)
	data.Set("text", text)
	data.Set("parse_mode", "Markdown")

	resp, err := t.client.Post(apiURL, "application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()))
	if err != nil {
		return guarderrors.WrapError(err, guarderrors.ErrorCategoryNetwork, "notifications", "SendAlert")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return guarderrors.NewGuardError(guarderrors.ErrorCategoryNetwork, "notifications", "SendAlert",
			fmt.Sprintf("telegram API returned status %d", resp.StatusCode))
	}

	return nil
}
