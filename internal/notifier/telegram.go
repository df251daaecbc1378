package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"LevelScan/internal/model"
)

// TelegramNotifier sends scan alerts via the Telegram Bot API. It is
// optional: a nil notifier is valid and every method is a no-op.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	Client   *http.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// NotifyScan sends a compact summary of one scan result.
func (t *TelegramNotifier) NotifyScan(a *model.Analysis) error {
	if t == nil {
		return nil
	}
	return t.Send(formatAlert(a))
}

// Send sends a plain-text message to the configured chat.
func (t *TelegramNotifier) Send(text string) error {
	if t == nil {
		return nil
	}
	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.BotToken)
	payload := map[string]string{
		"chat_id": t.ChatID,
		"text":    text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	resp, err := t.Client.Post(apiURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func formatAlert(a *model.Analysis) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s\n", a.Symbol, a.ScannedAt.Format("2006-01-02"))
	fmt.Fprintf(&b, "Close %.2f | %d supports, %d resistances\n",
		a.Series.CurrentPrice, len(a.Supports), len(a.Resistances))
	if a.FinalSupport != nil {
		fmt.Fprintf(&b, "Final support %.2f\n", a.FinalSupport.Price)
	}
	if a.FinalResistance != nil {
		fmt.Fprintf(&b, "Final resistance %.2f\n", a.FinalResistance.Price)
	}
	if a.RangeBound {
		fmt.Fprintf(&b, "Range-bound, width %.2f\n", a.RangeWidth)
	}
	return b.String()
}
