// Package telegram provides Telegram bot notifications for the complaint register.
//
// This package handles:
//   - Announcing every saved complaint to a chat
//   - Critical alerts when the backing workbook cannot be read or written
//   - Posting the summary image of the complaint table
//
// A nil *Client is valid and silently skips every call, so callers do not
// need to check whether Telegram is configured.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cadastro/internal/complaint"

	"go.uber.org/zap"
)

// Client represents a Telegram bot client.
type Client struct {
	BotToken  string
	ChatID    string
	APIURL    string
	DebugMode bool

	http   *http.Client
	logger *zap.Logger
	now    func() time.Time
}

// Config carries what NewClient needs.
type Config struct {
	BotToken  string
	ChatID    string
	APIURL    string
	Timeout   time.Duration
	DebugMode bool
}

// Message represents a Telegram message for sending.
type Message struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// apiResponse is the envelope of every Bot API reply.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type sentMessage struct {
	MessageID int64 `json:"message_id"`
}

// NewClient creates a Telegram client.
//
// Returns nil when the token or chat ID is missing, which disables
// notifications.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BotToken == "" || cfg.ChatID == "" {
		logger.Info("telegram notifications disabled",
			zap.Bool("missing_token", cfg.BotToken == ""),
			zap.Bool("missing_chat_id", cfg.ChatID == ""))
		return nil
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.telegram.org"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.DebugMode {
		logger.Info("telegram debug mode enabled, API calls will be simulated")
	}

	return &Client{
		BotToken:  cfg.BotToken,
		ChatID:    cfg.ChatID,
		APIURL:    strings.TrimRight(cfg.APIURL, "/"),
		DebugMode: cfg.DebugMode,
		http:      newHTTPClient(cfg.Timeout),
		logger:    logger,
		now:       time.Now,
	}
}

// newHTTPClient returns a client with a small keep-alive pool; the bot only
// talks to one host.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.APIURL, c.BotToken, method)
}

// doRequest posts a JSON payload to a Bot API method and returns its result.
func (c *Client) doRequest(ctx context.Context, method string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req)
}

func (c *Client) send(req *http.Request) (json.RawMessage, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result apiResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if !result.OK {
		return nil, fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, result.Description)
	}
	return result.Result, nil
}

// SendComplaintMessage announces a saved complaint and returns the Telegram
// message ID.
//
// Message format:
//
//	📋 Reclamação Nº 12
//	👤 Maria Silva
//	📞 11987654321 · ✉️ maria@example.com
//	📅 15/10/2026 · Maria Fumaça · Atraso / Horários
//	💬 Descrição:
//	[complaint description]
//	📌 Status: Em Andamento
func (c *Client) SendComplaintMessage(ctx context.Context, rec complaint.Record) (string, error) {
	if c == nil {
		return "", nil
	}

	text := fmt.Sprintf(
		"📋 <b>Reclamação Nº %d</b>\n\n"+
			"👤 %s\n"+
			"📞 %s · ✉️ %s\n"+
			"📅 %s · %s · %s\n\n"+
			"💬 <b>Descrição:</b>\n%s\n\n"+
			"📌 Status: %s",
		rec.Number,
		html.EscapeString(rec.Name),
		html.EscapeString(rec.Phone),
		html.EscapeString(rec.Email),
		complaint.FormatDisplayDate(rec.ReceivedDate),
		html.EscapeString(string(rec.Process)),
		html.EscapeString(string(rec.Channel)),
		html.EscapeString(orDash(rec.Description)),
		html.EscapeString(string(rec.ReturnStatus)),
	)

	if c.DebugMode {
		c.logger.Debug("simulated telegram message", zap.Int("complaint_number", rec.Number))
		return "debug", nil
	}

	result, err := c.doRequest(ctx, "sendMessage", Message{
		ChatID:                c.ChatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send Telegram message: %w", err)
	}

	var sent sentMessage
	if err := json.Unmarshal(result, &sent); err != nil {
		return "", fmt.Errorf("failed to parse sent message: %w", err)
	}

	c.logger.Info("complaint sent to telegram",
		zap.Int("complaint_number", rec.Number),
		zap.Int64("message_id", sent.MessageID))
	return strconv.FormatInt(sent.MessageID, 10), nil
}

// SendCriticalAlert reports a failure that needs manual intervention, such
// as a locked or corrupted workbook.
func (c *Client) SendCriticalAlert(ctx context.Context, errorType, errorMsg string) error {
	if c == nil {
		return nil
	}

	text := fmt.Sprintf(
		"🚨 <b>ALERTA - CADASTRO DE RECLAMAÇÕES</b>\n\n"+
			"<b>Tipo:</b> %s\n"+
			"<b>Erro:</b> %s\n"+
			"<b>Horário:</b> %s\n\n"+
			"⚠️ Verifique a planilha de cadastros.",
		html.EscapeString(errorType),
		html.EscapeString(errorMsg),
		c.now().Format("2006-01-02 15:04:05"),
	)

	if c.DebugMode {
		c.logger.Debug("simulated telegram alert", zap.String("type", errorType))
		return nil
	}

	if _, err := c.doRequest(ctx, "sendMessage", Message{
		ChatID:                c.ChatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}); err != nil {
		return fmt.Errorf("failed to send Telegram alert: %w", err)
	}
	c.logger.Info("critical alert sent to telegram", zap.String("type", errorType))
	return nil
}

// SendPhoto uploads a PNG with a caption.
func (c *Client) SendPhoto(ctx context.Context, png []byte, caption string) error {
	if c == nil {
		return nil
	}
	if c.DebugMode {
		c.logger.Debug("simulated telegram photo", zap.Int("bytes", len(png)))
		return nil
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("chat_id", c.ChatID); err != nil {
		return err
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return err
		}
	}
	part, err := w.CreateFormFile("photo", "relatorio.png")
	if err != nil {
		return err
	}
	if _, err := part.Write(png); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("sendPhoto"), &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	if _, err := c.send(req); err != nil {
		return fmt.Errorf("failed to send Telegram photo: %w", err)
	}
	return nil
}

// NotifyComplaint implements complaint.Notifier.
func (c *Client) NotifyComplaint(ctx context.Context, rec complaint.Record) error {
	_, err := c.SendComplaintMessage(ctx, rec)
	return err
}

// NotifyFailure implements complaint.Notifier.
func (c *Client) NotifyFailure(ctx context.Context, operation string, err error) error {
	return c.SendCriticalAlert(ctx, "Falha na planilha ("+operation+")", err.Error())
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
