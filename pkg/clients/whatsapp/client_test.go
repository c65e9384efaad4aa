package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mamadbah2/agritrade/internal/config"
)

func TestSendTextMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v20.0/12345/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer token" {
			t.Errorf("Authorization = %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{
		AccessToken:   "token",
		PhoneNumberID: "12345",
		BaseURL:       srv.URL + "/",
		APIVersion:    "v20.0",
	})

	resp, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "+91 98000-00000", Body: "hello"})
	if err != nil {
		t.Fatalf("SendTextMessage: %v", err)
	}
	if resp.MessageID() != "wamid.1" {
		t.Errorf("message id = %q", resp.MessageID())
	}
	if got["to"] != "919800000000" || got["type"] != "text" || got["recipient_type"] != "individual" {
		t.Errorf("payload = %v", got)
	}
	if text, _ := got["text"].(map[string]any); text["body"] != "hello" {
		t.Errorf("text = %v", got["text"])
	}
}

func TestSendTextMessageAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","code":100}}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "t", PhoneNumberID: "1", BaseURL: srv.URL, APIVersion: "v20.0"})
	_, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "1", Body: "x"})
	if err == nil || !strings.Contains(err.Error(), "code=100") || !strings.Contains(err.Error(), "Invalid parameter") {
		t.Fatalf("error = %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Code != 100 {
		t.Errorf("api error = %+v", apiErr)
	}
}

func TestSendTextMessageRejectsEmptyRecipient(t *testing.T) {
	client := NewClient(config.WhatsAppConfig{AccessToken: "t", PhoneNumberID: "1", BaseURL: "http://127.0.0.1:1", APIVersion: "v20.0"})
	if _, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: " + ", Body: "x"}); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("error = %v, want ErrNoRecipient", err)
	}
}

func TestSendTextMessageSplitsLongSummaries(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg struct {
			Text struct {
				Body string `json:"body"`
			} `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&msg)
		bodies = append(bodies, msg.Text.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.part"}]}`))
	}))
	defer srv.Close()

	line := strings.Repeat("x", 99) + "\n"
	body := strings.Repeat(line, 50)

	client := NewClient(config.WhatsAppConfig{AccessToken: "t", PhoneNumberID: "1", BaseURL: srv.URL, APIVersion: "v20.0"})
	resp, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "919800000000", Body: body})
	if err != nil {
		t.Fatalf("SendTextMessage: %v", err)
	}
	if len(bodies) != 2 || len(resp.Messages) != 2 {
		t.Fatalf("parts sent = %d, ids = %d, want 2", len(bodies), len(resp.Messages))
	}
	for _, b := range bodies {
		if len(b) > MaxTextLength {
			t.Errorf("part length %d exceeds limit", len(b))
		}
	}
}

func TestSendTextMessageRetriesRateLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited","code":130429}}`))
			return
		}
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.2"}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{AccessToken: "t", PhoneNumberID: "1", BaseURL: srv.URL, APIVersion: "v20.0"})
	resp, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "919800000000", Body: "stock"})
	if err != nil {
		t.Fatalf("SendTextMessage: %v", err)
	}
	if calls != 2 || resp.MessageID() != "wamid.2" {
		t.Errorf("calls = %d, id = %q", calls, resp.MessageID())
	}
}

func TestSplitText(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		limit int
		want  []string
	}{
		{name: "short body", body: "MAIZE: 5", limit: 20, want: []string{"MAIZE: 5"}},
		{name: "breaks on lines", body: "MAIZE: 5\nWHEAT: 7\nRICE: 9", limit: 18, want: []string{"MAIZE: 5\nWHEAT: 7", "RICE: 9"}},
		{name: "hard splits long line", body: "abcdefgh", limit: 3, want: []string{"abc", "def", "gh"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitText(tt.body, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("parts = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("part %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
