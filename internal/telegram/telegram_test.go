package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pfrederiksen/campus-events/internal/event"
)

func TestNewClient(t *testing.T) {
	if _, err := NewClient("", "123"); err == nil {
		t.Error("Expected error for missing bot token")
	}
	if _, err := NewClient("token", ""); err == nil {
		t.Error("Expected error for missing chat ID")
	}
	if _, err := NewClient("token", "123"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestSendMessage_Success(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("Failed to decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"result":{"message_id":123}}`))
	}))
	defer server.Close()

	client, _ := NewClient("test-token", "12345")
	client.WithBaseURL(server.URL + "/bot")

	if err := client.SendMessage(context.Background(), "Test message"); err != nil {
		t.Fatalf("SendMessage() unexpected error: %v", err)
	}
	if payload["chat_id"] != "12345" || payload["text"] != "Test message" || payload["parse_mode"] != "HTML" {
		t.Errorf("Unexpected payload: %v", payload)
	}
}

func TestSendMessage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"api error", http.StatusOK, `{"ok":false,"description":"Bad Request: chat not found"}`, "chat not found"},
		{"http status", http.StatusUnauthorized, `{"ok":false}`, "status 401"},
		{"bad json", http.StatusOK, `not json`, "parsing response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, _ := NewClient("test-token", "12345")
			client.WithBaseURL(server.URL + "/bot")

			err := client.SendMessage(context.Background(), "hello")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	client, _ := NewClient("test-token", "12345")
	if err := client.SendMessage(context.Background(), ""); err == nil {
		t.Error("Expected error for empty message")
	}
}

func sampleRecord() *event.Record {
	r := event.NewRecord("Protein <Folding> & Scale", "2025-03-05", "https://www.mit.edu/events")
	r.Time = "2:00 PM"
	r.Institution = "MIT"
	r.Location = "Building 10"
	r.Categories = []string{"biology"}
	r.RequiresRegistration = true
	return r
}

func TestFormatRecord(t *testing.T) {
	msg := FormatRecord(sampleRecord())

	for _, want := range []string{
		"<b>Protein &lt;Folding&gt; &amp; Scale</b>",
		"🏛 MIT",
		"📅 Wed, Mar 5, 2025 at 2:00 PM",
		"📍 Building 10",
		"Registration required",
		"🏷 biology",
		`<a href="https://www.mit.edu/events">`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected %q in message:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "Virtual") {
		t.Errorf("Unexpected virtual marker:\n%s", msg)
	}
}

func TestFormatDigest(t *testing.T) {
	if got := FormatDigest(nil); got != "No new events." {
		t.Errorf("FormatDigest(nil) = %q", got)
	}

	other := event.NewRecord("Robotics in the Wild", "2025-03-12", "https://seas.harvard.edu/events")
	other.Institution = "Harvard"

	msg := FormatDigest([]*event.Record{sampleRecord(), other})
	if !strings.Contains(msg, "2 new campus events") {
		t.Errorf("Missing header:\n%s", msg)
	}
	if !strings.Contains(msg, "<b>Harvard</b> (1)") || strings.Index(msg, "<b>Harvard</b>") > strings.Index(msg, "<b>MIT</b>") {
		t.Errorf("Institutions should be sorted:\n%s", msg)
	}
	if !strings.Contains(msg, "Robotics in the Wild</a>, Wed, Mar 12, 2025") {
		t.Errorf("Missing digest line:\n%s", msg)
	}
}

func TestSplitMessage(t *testing.T) {
	if got := SplitMessage("short", 100); len(got) != 1 || got[0] != "short" {
		t.Errorf("SplitMessage short = %q", got)
	}

	text := strings.Repeat("line of text\n", 10)
	chunks := SplitMessage(text, 30)
	if len(chunks) != 5 {
		t.Fatalf("Expected 5 chunks, got %d: %q", len(chunks), chunks)
	}
	for _, c := range chunks {
		if utf8.RuneCountInString(c) > 30 {
			t.Errorf("Chunk too long: %q", c)
		}
		if strings.HasSuffix(c, "\n") {
			t.Errorf("Chunk keeps trailing newline: %q", c)
		}
	}

	long := strings.Repeat("é", 25)
	chunks = SplitMessage(long, 10)
	if len(chunks) != 3 || chunks[2] != strings.Repeat("é", 5) {
		t.Errorf("Unexpected rune split: %q", chunks)
	}
}
