package whatsapp

import (
	"context"
	"errors"
	"testing"

	"github.com/mamadbah2/agritrade/internal/config"
	"github.com/mamadbah2/agritrade/internal/domain/models"
	client "github.com/mamadbah2/agritrade/pkg/clients/whatsapp"
)

type recordingClient struct {
	sent []client.SendTextMessageRequest
	err  error
}

func (r *recordingClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.sent = append(r.sent, req)
	return &client.SendTextMessageResponse{}, nil
}

func TestSendOutbound(t *testing.T) {
	rec := &recordingClient{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{ReportRecipient: "919811111111"}, rec, nil)
	ctx := context.Background()

	if err := svc.SendOutbound(ctx, models.OutboundMessageRequest{Message: "stock ok"}); err != nil {
		t.Fatalf("SendOutbound: %v", err)
	}
	if err := svc.SendOutbound(ctx, models.OutboundMessageRequest{To: "919822222222", Message: "hi"}); err != nil {
		t.Fatalf("SendOutbound: %v", err)
	}
	if len(rec.sent) != 2 || rec.sent[0].To != "919811111111" || rec.sent[1].To != "919822222222" {
		t.Errorf("sent = %+v", rec.sent)
	}

	if err := svc.SendOutbound(ctx, models.OutboundMessageRequest{Message: "  "}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("blank message = %v", err)
	}

	noRecipient := NewMetaWhatsAppService(config.WhatsAppConfig{}, rec, nil)
	if err := noRecipient.SendOutbound(ctx, models.OutboundMessageRequest{Message: "x"}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("missing recipient = %v", err)
	}
}

func TestNewDisabledWithoutCredentials(t *testing.T) {
	svc := New(config.WhatsAppConfig{}, nil)
	if err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{Message: "x"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("error = %v, want ErrNotConfigured", err)
	}
}

func TestSendOutboundClientErrors(t *testing.T) {
	ctx := context.Background()
	cfg := config.WhatsAppConfig{ReportRecipient: "919811111111"}

	invalid := NewMetaWhatsAppService(cfg, &recordingClient{err: client.ErrNoRecipient}, nil)
	if err := invalid.SendOutbound(ctx, models.OutboundMessageRequest{To: "--", Message: "x"}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("undialable recipient = %v, want ErrValidation", err)
	}

	rejected := NewMetaWhatsAppService(cfg, &recordingClient{err: &client.APIError{Status: 401, Code: 190, Message: "token expired"}}, nil)
	err := rejected.SendOutbound(ctx, models.OutboundMessageRequest{Message: "x"})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 190 {
		t.Errorf("api rejection = %v", err)
	}
	if errors.Is(err, models.ErrValidation) {
		t.Error("api rejection reported as validation error")
	}
}
