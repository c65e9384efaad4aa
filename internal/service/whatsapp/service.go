package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/config"
	"github.com/mamadbah2/agritrade/internal/domain/models"
	client "github.com/mamadbah2/agritrade/pkg/clients/whatsapp"
)

// ErrNotConfigured is returned when no WhatsApp credentials were provided.
var ErrNotConfigured = errors.New("whatsapp notifications are not configured")

const sendTimeout = 10 * time.Second

// MessagingService pushes operator notifications.
type MessagingService interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg    config.WhatsAppConfig
	client client.Client
	logger *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// SendOutbound sends a text message. An empty recipient falls back to the
// configured report recipient.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	to := strings.TrimSpace(req.To)
	if to == "" {
		to = s.cfg.ReportRecipient
	}
	if to == "" {
		return fmt.Errorf("%w: no recipient given and WHATSAPP_REPORT_RECIPIENT is unset", models.ErrValidation)
	}
	if strings.TrimSpace(req.Message) == "" {
		return fmt.Errorf("%w: message is required", models.ErrValidation)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	resp, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         to,
		Body:       req.Message,
		PreviewURL: req.PreviewURL,
	})
	if err != nil {
		if errors.Is(err, client.ErrNoRecipient) {
			return fmt.Errorf("%w: recipient %q has no digits", models.ErrValidation, to)
		}
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			s.logger.Warn("whatsapp api rejected message",
				zap.Int("status", apiErr.Status),
				zap.Int("code", apiErr.Code),
				zap.String("trace_id", apiErr.TraceID))
		}
		return err
	}
	s.logger.Info("whatsapp message sent",
		zap.String("to", to),
		zap.String("message_id", resp.MessageID()),
		zap.Int("parts", len(resp.Messages)))
	return nil
}

// DisabledService stands in when WhatsApp is not configured.
type DisabledService struct{}

// SendOutbound always fails with ErrNotConfigured.
func (DisabledService) SendOutbound(context.Context, models.OutboundMessageRequest) error {
	return ErrNotConfigured
}

// New returns a Cloud API backed service when cfg is complete and a
// DisabledService otherwise.
func New(cfg config.WhatsAppConfig, logger *zap.Logger) MessagingService {
	if !cfg.Enabled() {
		return DisabledService{}
	}
	return NewMetaWhatsAppService(cfg, client.NewClient(cfg), logger)
}
