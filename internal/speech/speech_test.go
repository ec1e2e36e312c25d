package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harish-arikkara/learning-platform/internal/config"
)

func testClient(baseURL string) *Client {
	return NewClient(config.SpeechConfig{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Voice:          "en-US-Neural2-F",
		LanguageCode:   "en-US",
		AudioEncoding:  "MP3",
		TimeoutSeconds: 5,
	})
}

func TestNewClientDisabledWithoutKey(t *testing.T) {
	if c := NewClient(config.SpeechConfig{}); c != nil {
		t.Error("NewClient without api key should return nil")
	}
}

func TestSynthesize(t *testing.T) {
	var gotReq synthesizeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text:synthesize" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"audioContent": "bW9jayBhdWRpbw=="}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	audio, err := c.Synthesize(context.Background(), "  Hello there  ")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if audio != "bW9jayBhdWRpbw==" {
		t.Errorf("audio = %q", audio)
	}
	if gotReq.Input.Text != "Hello there" {
		t.Errorf("text = %q, want trimmed", gotReq.Input.Text)
	}
	if gotReq.Voice.LanguageCode != "en-US" || gotReq.Voice.Name != "en-US-Neural2-F" {
		t.Errorf("voice = %+v", gotReq.Voice)
	}
	if gotReq.AudioConfig.AudioEncoding != "MP3" {
		t.Errorf("encoding = %q", gotReq.AudioConfig.AudioEncoding)
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	c := testClient("http://unused")
	if _, err := c.Synthesize(context.Background(), "   "); err == nil {
		t.Error("want error for blank text")
	}
}

func TestSynthesizeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"code": 403, "message": "key invalid"}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Synthesize(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "key invalid") {
		t.Errorf("err = %v", err)
	}
}

func TestSynthesizeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if _, err := c.Synthesize(context.Background(), "hi"); err == nil {
		t.Error("want error for 400 response")
	}
}

func TestMimeType(t *testing.T) {
	tests := []struct {
		encoding string
		want     string
	}{
		{"MP3", "audio/mpeg"},
		{"OGG_OPUS", "audio/ogg"},
		{"LINEAR16", "audio/wav"},
		{"", "audio/mpeg"},
	}
	for _, tt := range tests {
		c := &Client{encoding: tt.encoding}
		if got := c.MimeType(); got != tt.want {
			t.Errorf("MimeType(%q) = %q, want %q", tt.encoding, got, tt.want)
		}
	}
}
