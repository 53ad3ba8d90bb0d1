package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"postrelay/internal/config"
	"postrelay/internal/routing"
)

const defaultAPIBaseURL = "https://api.telegram.org"

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	MessageThreadID       *int64 `json:"message_thread_id,omitempty"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// TelegramSink delivers rendered messages through the Telegram Bot API.
type TelegramSink struct {
	client   *http.Client
	botToken string
	baseURL  string
}

func NewTelegramSink(cfg config.DeliveryConfig) *TelegramSink {
	baseURL := cfg.APIBaseURL
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramSink{
		client:   &http.Client{Timeout: timeout},
		botToken: cfg.BotToken,
		baseURL:  baseURL,
	}
}

func (s *TelegramSink) SendMessage(ctx context.Context, dest routing.Destination, text string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:                dest.ChatID,
		MessageThreadID:       dest.TopicID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sendMessage request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("failed to read telegram response: %w", err)
	}

	var apiResp sendMessageResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return fmt.Errorf("unexpected telegram response (status %d): %w", resp.StatusCode, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram sendMessage failed (code %d): %s", apiResp.ErrorCode, apiResp.Description)
	}

	return nil
}
