package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"cloud-kitchen/services"
	"cloud-kitchen/webhook"

	"github.com/sirupsen/logrus"
)

// assistantTimeout covers the slow automation behind the chat webhook.
const assistantTimeout = 60 * time.Second

// AssistantController relays chat messages and invoice uploads to the webhooks
type AssistantController struct {
	Assistant *webhook.AssistantClient
	Invoices  *webhook.InvoiceClient
	Log       *logrus.Entry
}

func NewAssistantController(assistant *webhook.AssistantClient, invoices *webhook.InvoiceClient, log *logrus.Entry) *AssistantController {
	return &AssistantController{Assistant: assistant, Invoices: invoices, Log: log}
}

type chatReply struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
}

// SendMessage forwards a chat message under the caller's user or guest session id.
func (ac *AssistantController) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	sess, err := sessionFrom(r)
	if err != nil {
		respondError(w, r, ac.Log, err)
		return
	}
	chatID := sess.ChatID()
	if chatID == "" {
		respondError(w, r, ac.Log, services.ErrNoSession)
		return
	}

	ctx, cancel := withTimeoutOf(r, assistantTimeout)
	defer cancel()

	reply, err := ac.Assistant.Ask(ctx, chatID, message)
	switch {
	case errors.Is(err, webhook.ErrNotConfigured):
		respondJSON(w, http.StatusServiceUnavailable, chatReply{Reply: webhook.FallbackReply, SessionID: chatID})
	case err != nil:
		respondJSON(w, http.StatusBadGateway, chatReply{Reply: webhook.FallbackReply, SessionID: chatID})
	default:
		respondJSON(w, http.StatusOK, chatReply{Reply: reply, SessionID: chatID})
	}
}

// UploadInvoice forwards a PDF or Excel invoice to the invoice webhook (Admin only)
func (ac *AssistantController) UploadInvoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, webhook.MaxInvoiceSize+(1<<20))
	if err := r.ParseMultipartForm(webhook.MaxInvoiceSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, webhook.ErrFileTooLarge.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Please select a file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := webhook.CheckInvoiceFile(header.Filename, header.Size); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, webhook.ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, err.Error(), status)
		return
	}

	ctx, cancel := withTimeoutOf(r, assistantTimeout)
	defer cancel()

	result, err := ac.Invoices.Upload(ctx, header.Filename, header.Size, file)
	switch {
	case errors.Is(err, webhook.ErrNotConfigured):
		http.Error(w, "Invoice processing is not configured", http.StatusServiceUnavailable)
	case err != nil:
		http.Error(w, "Failed to process invoice. Please try again.", http.StatusBadGateway)
	default:
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Invoice processed successfully! Items will be added to inventory.",
			"result":  result,
		})
	}
}
