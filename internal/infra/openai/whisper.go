package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"voice-notes/internal/domain"
	"voice-notes/internal/infra"
)

type WhisperClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	language   string
	retry      infra.RetryConfig
}

// NewWhisperClient talks to an OpenAI-compatible transcription endpoint.
// language may be a BCP-47 tag; only its primary subtag is sent.
func NewWhisperClient(apiKey, baseURL, model, language string, maxAttempts int) *WhisperClient {
	return &WhisperClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		language:   primaryLanguage(language),
		retry:      infra.NewRetryConfig(maxAttempts),
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var result transcriptionResponse

	retryErr := infra.WithRetry(ctx, c.retry, func() error {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)

		part, err := writer.CreateFormFile("file", "audio.wav")
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating form file: %w", err))
		}

		if _, err = part.Write(audio); err != nil {
			return infra.Permanent(fmt.Errorf("writing audio: %w", err))
		}

		if err = writer.WriteField("model", c.model); err != nil {
			return infra.Permanent(fmt.Errorf("writing model field: %w", err))
		}

		if c.language != "" {
			if err = writer.WriteField("language", c.language); err != nil {
				return infra.Permanent(fmt.Errorf("writing language field: %w", err))
			}
		}

		if err = writer.Close(); err != nil {
			return infra.Permanent(fmt.Errorf("closing writer: %w", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", body)
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}

		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			apiErr := fmt.Errorf("whisper API error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return apiErr
			}
			return infra.Permanent(apiErr)
		}

		if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return infra.Permanent(fmt.Errorf("decoding response: %w", err))
		}

		return nil
	})

	if retryErr != nil {
		if errors.Is(retryErr, context.Canceled) || errors.Is(retryErr, context.DeadlineExceeded) {
			return "", retryErr
		}
		return "", fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, retryErr)
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return "", domain.ErrNoSpeech
	}

	return text, nil
}

func primaryLanguage(tag string) string {
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
