package client

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/windfall/recap_client/internal/errors"
)

// neuralVoices maps translation language codes to an Azure neural voice.
var neuralVoices = map[string]string{
	"en": "en-US-JennyNeural",
	"es": "es-ES-ElviraNeural",
	"fr": "fr-FR-DeniseNeural",
	"de": "de-DE-KatjaNeural",
	"it": "it-IT-ElsaNeural",
	"pt": "pt-BR-FranciscaNeural",
	"ru": "ru-RU-SvetlanaNeural",
	"ja": "ja-JP-NanamiNeural",
	"ko": "ko-KR-SunHiNeural",
	"hi": "hi-IN-SwaraNeural",
	"ar": "ar-SA-ZariyahNeural",
}

// VoiceFor picks the voice whose locale starts with the language code,
// falling back to the given default.
func VoiceFor(language, fallback string) string {
	lang := strings.ToLower(language)
	if v, ok := neuralVoices[lang]; ok {
		return v
	}
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		if v, ok := neuralVoices[lang[:i]]; ok {
			return v
		}
	}
	return fallback
}

// SynthesisRequest describes one utterance to render.
type SynthesisRequest struct {
	Text     string
	Language string
	Voice    string
	Rate     float64
	Volume   float64
	Pitch    float64
}

// AzureSpeechClient wraps the Azure AI Speech text-to-speech REST API.
type AzureSpeechClient struct {
	apiKey   string
	region   string
	endpoint string
	client   *http.Client
}

// NewAzureSpeechClient creates a new Azure Speech client.
func NewAzureSpeechClient(apiKey, region string) *AzureSpeechClient {
	return &AzureSpeechClient{
		apiKey:   apiKey,
		region:   region,
		endpoint: fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithEndpoint overrides the synthesis URL.
func (c *AzureSpeechClient) WithEndpoint(endpoint string) *AzureSpeechClient {
	c.endpoint = endpoint
	return c
}

// Synthesize renders the request to MP3 audio.
func (c *AzureSpeechClient) Synthesize(ctx context.Context, in SynthesisRequest) ([]byte, error) {
	if c.apiKey == "" || c.region == "" {
		return nil, errors.New(errors.ErrSpeech, "Azure Speech credentials not configured")
	}

	ssml, err := buildSSML(in)
	if err != nil {
		return nil, fmt.Errorf("failed to build ssml: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", "audio-24khz-48kbitrate-mono-mp3")
	req.Header.Set("User-Agent", "recap_client")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("azure tts api error %d: %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	return audio, nil
}

// buildSSML wraps the text in voice and prosody elements. Rate is a multiplier,
// volume is scaled to Azure's 0-100 range and pitch becomes a relative percentage.
func buildSSML(in SynthesisRequest) ([]byte, error) {
	var text bytes.Buffer
	if err := xml.EscapeText(&text, []byte(in.Text)); err != nil {
		return nil, err
	}

	lang := in.Language
	if lang == "" {
		lang = "en"
	}
	pitch := int(math.Round((in.Pitch - 1) * 100))

	var b bytes.Buffer
	fmt.Fprintf(&b, `<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s">`, lang)
	fmt.Fprintf(&b, `<voice name="%s">`, in.Voice)
	fmt.Fprintf(&b, `<prosody rate="%.2f" volume="%.1f" pitch="%+d%%">`, in.Rate, in.Volume*100, pitch)
	b.Write(text.Bytes())
	b.WriteString(`</prosody></voice></speak>`)
	return b.Bytes(), nil
}
