// Package webhook talks to the external automations that answer chat
// messages and parse supplier invoices.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultReply  = "I received your message!"
	FallbackReply = "Sorry, I'm having trouble connecting right now. Please try again in a moment."

	// MaxInvoiceSize is the largest invoice file forwarded.
	MaxInvoiceSize = 10 << 20
)

var (
	ErrNotConfigured   = errors.New("webhook is not configured")
	ErrUnsupportedFile = errors.New("unsupported file type: upload a .pdf, .xlsx or .xls invoice")
	ErrFileTooLarge    = errors.New("invoice file is larger than 10MB")
)

var invoiceExtensions = map[string]bool{".pdf": true, ".xlsx": true, ".xls": true}

// StatusError is returned when the webhook answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d: %s", e.Code, e.Body)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call webhook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// AssistantClient forwards chat messages.
type AssistantClient struct {
	url    string
	client *http.Client
	now    func() time.Time
	log    *logrus.Entry
}

func NewAssistantClient(url string, timeout time.Duration, log *logrus.Entry) *AssistantClient {
	return &AssistantClient{url: url, client: newHTTPClient(timeout), now: time.Now, log: log}
}

type assistantRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type assistantResponse struct {
	Data    json.RawMessage `json:"data"`
	Message json.RawMessage `json:"message"`
}

// Ask sends one message for sessionID and returns the assistant's reply.
func (c *AssistantClient) Ask(ctx context.Context, sessionID, message string) (string, error) {
	if c == nil || c.url == "" {
		return "", ErrNotConfigured
	}
	payload, err := json.Marshal(assistantRequest{
		SessionID: sessionID,
		Message:   message,
		Timestamp: c.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build assistant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	body, err := do(c.client, req)
	if err != nil {
		c.log.WithError(err).WithField("session_id", sessionID).Warn("Assistant webhook failed")
		return "", err
	}
	c.log.WithFields(logrus.Fields{"session_id": sessionID, "took": time.Since(start)}).Debug("Assistant replied")
	return replyFrom(body), nil
}

// replyFrom picks data, then message, then the default reply.
func replyFrom(body []byte) string {
	var resp assistantResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return DefaultReply
	}
	if s := textOf(resp.Data); s != "" {
		return s
	}
	if s := textOf(resp.Message); s != "" {
		return s
	}
	return DefaultReply
}

func textOf(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	if bytes.Equal(trimmed, []byte("false")) || bytes.Equal(trimmed, []byte("0")) {
		return ""
	}
	return string(trimmed)
}

// InvoiceClient forwards invoice uploads as multipart forms.
type InvoiceClient struct {
	url    string
	client *http.Client
	log    *logrus.Entry
}

func NewInvoiceClient(url string, timeout time.Duration, log *logrus.Entry) *InvoiceClient {
	return &InvoiceClient{url: url, client: newHTTPClient(timeout), log: log}
}

// CheckInvoiceFile validates the name and size of an upload.
func CheckInvoiceFile(filename string, size int64) error {
	if !invoiceExtensions[strings.ToLower(filepath.Ext(filename))] {
		return ErrUnsupportedFile
	}
	if size > MaxInvoiceSize {
		return ErrFileTooLarge
	}
	return nil
}

// Upload posts the file in field "file" and returns the webhook's JSON reply.
func (c *InvoiceClient) Upload(ctx context.Context, filename string, size int64, file io.Reader) (json.RawMessage, error) {
	if c == nil || c.url == "" {
		return nil, ErrNotConfigured
	}
	if err := CheckInvoiceFile(filename, size); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, err
	}
	n, err := io.Copy(part, io.LimitReader(file, MaxInvoiceSize+1))
	if err != nil {
		return nil, fmt.Errorf("copy invoice: %w", err)
	}
	if n > MaxInvoiceSize {
		return nil, ErrFileTooLarge
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &buf)
	if err != nil {
		return nil, fmt.Errorf("build invoice request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	body, err := do(c.client, req)
	if err != nil {
		c.log.WithError(err).WithField("file", filename).Warn("Invoice webhook failed")
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"file": filename, "bytes": n}).Info("Invoice forwarded")
	if !json.Valid(body) {
		return json.RawMessage(`{}`), nil
	}
	return json.RawMessage(body), nil
}
