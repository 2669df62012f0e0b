package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultCloudURL is the Google text-to-speech REST endpoint
const DefaultCloudURL = "https://texttospeech.googleapis.com/v1/text:synthesize"

// CloudTTS calls a Google-style text:synthesize endpoint
type CloudTTS struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// NewCloudTTS returns nil when no API key is configured
func NewCloudTTS(apiKey, apiURL string) *CloudTTS {
	if apiKey == "" {
		return nil
	}
	if apiURL == "" {
		apiURL = DefaultCloudURL
	}
	return &CloudTTS{
		apiKey:     apiKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
		SSMLGender   string `json:"ssmlGender"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate"`
		Pitch         float64 `json:"pitch"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

func (c *CloudTTS) Name() string { return "cloud" }

// Synthesize returns MP3 audio spoken slightly slower than normal for learners
func (c *CloudTTS) Synthesize(ctx context.Context, text string) (*Audio, error) {
	var body synthesizeRequest
	body.Input.Text = text
	body.Voice.LanguageCode = "en-US"
	body.Voice.Name = "en-US-Neural2-F"
	body.Voice.SSMLGender = "FEMALE"
	body.AudioConfig.AudioEncoding = "MP3"
	body.AudioConfig.SpeakingRate = 0.9

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid TTS URL: %w", err)
	}
	q := endpoint.Query()
	q.Set("key", c.apiKey)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS API returned status %d", resp.StatusCode)
	}

	var out synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.AudioContent == "" {
		return nil, fmt.Errorf("TTS API returned no audio")
	}
	audio, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio: %w", err)
	}
	return &Audio{Data: audio, ContentType: "audio/mpeg", Source: c.Name()}, nil
}
