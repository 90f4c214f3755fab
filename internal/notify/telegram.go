package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"partyflow/internal/status"
	"partyflow/utils"
)

// Telegram talks to the Telegram Bot API directly. A circuit breaker keeps
// broadcast fan-outs from hammering the API while it is down.
type Telegram struct {
	// baseURL is the Bot API host, overridable for tests.
	baseURL string

	// token is the bot token.
	token string

	// breaker guards the upstream.
	breaker *utils.CircuitBreaker

	// hc is the http client.
	hc *http.Client
}

func NewTelegram(token, baseURL string) *Telegram {
	return &Telegram{
		baseURL: baseURL,
		token:   token,
		breaker: utils.NewCircuitBreaker("telegram", 5, 30*time.Second),

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (t *Telegram) SendText(ctx context.Context, chatID int64, text string) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sendMessage: marshal: %w", err)
	}

	return t.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL("sendMessage"), bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("sendMessage: http.NewReq: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		return t.do(req, "sendMessage")
	})
}

func (t *Telegram) SendKeyboard(ctx context.Context, chatID int64, text string, rows [][]Button) error {
	keyboard := make([][]map[string]string, 0, len(rows))
	for _, row := range rows {
		buttons := make([]map[string]string, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, map[string]string{
				"text":          b.Text,
				"callback_data": b.Data,
			})
		}
		keyboard = append(keyboard, buttons)
	}

	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
		"reply_markup": map[string]any{
			"inline_keyboard": keyboard,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sendMessage: marshal: %w", err)
	}

	return t.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL("sendMessage"), bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("sendMessage: http.NewReq: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		return t.do(req, "sendMessage")
	})
}

func (t *Telegram) SendPhoto(ctx context.Context, chatID int64, png []byte, caption string) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("sendPhoto: write field: %w", err)
	}
	if err := w.WriteField("caption", caption); err != nil {
		return fmt.Errorf("sendPhoto: write field: %w", err)
	}
	part, err := w.CreateFormFile("photo", "ticket.png")
	if err != nil {
		return fmt.Errorf("sendPhoto: create form file: %w", err)
	}
	if _, err := part.Write(png); err != nil {
		return fmt.Errorf("sendPhoto: write png: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("sendPhoto: close writer: %w", err)
	}

	return t.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL("sendPhoto"), bytes.NewReader(buf.Bytes()))
		if err != nil {
			return fmt.Errorf("sendPhoto: http.NewReq: %w", err)
		}
		req.Header.Set("Content-Type", w.FormDataContentType())

		return t.do(req, "sendPhoto")
	})
}

func (t *Telegram) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
}

func (t *Telegram) do(req *http.Request, method string) error {
	resp, err := t.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: http.Do: %w (%w)", method, err, status.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	var reply struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &reply); err != nil {
		return fmt.Errorf("%s: json.Decode: %w (%w)", method, err, status.ErrUpstreamUnavailable)
	}
	if !reply.OK {
		return fmt.Errorf("%s: api: %s", method, reply.Description)
	}
	return nil
}
