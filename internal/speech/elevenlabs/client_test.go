package elevenlabs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"newsreel/internal/speech"
)

func newTestClient(serverURL string) *Client {
	return newClient(Config{
		APIKey:     "test-key",
		VoiceID:    "test-voice",
		Model:      "eleven_flash_v2_5",
		Stability:  0.5,
		Similarity: 0.75,
	}, withBaseURL(serverURL), withHTTPClient(http.DefaultClient))
}

func TestNewClient(t *testing.T) {
	client := NewClient(Config{APIKey: "test-key", VoiceID: "test-voice"})

	if client.apiKey != "test-key" {
		t.Errorf("apiKey = %q, want test-key", client.apiKey)
	}
	if client.voiceID != "test-voice" {
		t.Errorf("voiceID = %q, want test-voice", client.voiceID)
	}
	if client.baseURL != baseURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL, baseURL)
	}
}

func TestSynthesize(t *testing.T) {
	fakeAudio := []byte("fake mpeg data")
	var got ttsRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "test-key" {
			t.Error("missing or incorrect API key header")
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Error("missing Content-Type header")
		}
		if r.URL.Path != "/text-to-speech/test-voice" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("output_format") != outputFormat {
			t.Errorf("output_format = %q", r.URL.Query().Get("output_format"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(fakeAudio)
	}))
	defer server.Close()

	audio, err := newTestClient(server.URL).Synthesize(context.Background(), "Hello world")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if string(audio.Data) != string(fakeAudio) {
		t.Errorf("Data = %q, want %q", audio.Data, fakeAudio)
	}
	if audio.MIMEType != speech.MIMETypeMPEG {
		t.Errorf("MIMEType = %q, want %q", audio.MIMEType, speech.MIMETypeMPEG)
	}
	if got.Text != "Hello world" || got.ModelID != "eleven_flash_v2_5" {
		t.Errorf("request = %+v", got)
	}
	if got.VoiceSettings.SimilarityBoost != 0.75 {
		t.Errorf("similarity_boost = %v, want 0.75", got.VoiceSettings.SimilarityBoost)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		body        string
		wantContain string
	}{
		{
			name:        "quotaExceeded",
			statusCode:  http.StatusUnauthorized,
			body:        `{"detail":{"status":"quota_exceeded","message":"This request exceeds your quota."}}`,
			wantContain: "exceeds your quota",
		},
		{
			name:        "plainError",
			statusCode:  http.StatusInternalServerError,
			body:        "internal error",
			wantContain: "internal error",
		},
		{
			name:        "emptyBody",
			statusCode:  http.StatusOK,
			body:        "",
			wantContain: "empty response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Synthesize(context.Background(), "text")
			if err == nil {
				t.Fatal("Synthesize() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantContain) {
				t.Errorf("Synthesize() error = %v, want containing %q", err, tt.wantContain)
			}
		})
	}
}
