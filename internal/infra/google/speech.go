// Package google transcribes audio with the Cloud Speech-to-Text v1 API.
package google

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"voice-notes/internal/domain"
	"voice-notes/internal/infra"
)

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

type Client struct {
	client     *speech.Client
	recognize  recognizeFunc
	language   string
	sampleRate int
	retry      infra.RetryConfig
}

// NewClient dials the speech service. With an empty credentialsFile the
// application default credentials are used.
func NewClient(ctx context.Context, credentialsFile, language string, sampleRate, maxAttempts int) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	sc, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating speech client: %w", err)
	}

	c := newClient(nil, language, sampleRate, maxAttempts)
	c.client = sc
	c.recognize = func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return sc.Recognize(ctx, req)
	}
	return c, nil
}

func newClient(recognize recognizeFunc, language string, sampleRate, maxAttempts int) *Client {
	return &Client{
		recognize:  recognize,
		language:   language,
		sampleRate: sampleRate,
		retry:      infra.NewRetryConfig(maxAttempts),
	}
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	req := c.buildRequest(audio)

	var resp *speechpb.RecognizeResponse
	retryErr := infra.WithRetry(ctx, c.retry, func() error {
		var err error
		resp, err = c.recognize(ctx, req)
		if err == nil {
			return nil
		}
		if isRetryableCode(status.Code(err)) {
			return err
		}
		return infra.Permanent(err)
	})

	if retryErr != nil {
		if errors.Is(retryErr, context.Canceled) || errors.Is(retryErr, context.DeadlineExceeded) {
			return "", retryErr
		}
		return "", fmt.Errorf("%w: recognize: %w", domain.ErrServiceUnavailable, retryErr)
	}

	text := transcriptFromResponse(resp)
	if text == "" {
		return "", domain.ErrNoSpeech
	}
	return text, nil
}

// buildRequest leaves encoding and sample rate unset for WAV and FLAC so the
// service reads them from the file header; anything else is sent as raw
// 16-bit PCM at the configured rate.
func (c *Client) buildRequest(audio []byte) *speechpb.RecognizeRequest {
	cfg := &speechpb.RecognitionConfig{
		LanguageCode:               c.language,
		EnableAutomaticPunctuation: true,
	}

	if !hasContainerHeader(audio) {
		cfg.Encoding = speechpb.RecognitionConfig_LINEAR16
		cfg.SampleRateHertz = int32(c.sampleRate)
	}

	return &speechpb.RecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}
}

func hasContainerHeader(audio []byte) bool {
	return bytes.HasPrefix(audio, []byte("RIFF")) || bytes.HasPrefix(audio, []byte("fLaC"))
}

// transcriptFromResponse joins the top alternative of every result.
func transcriptFromResponse(resp *speechpb.RecognizeResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func isRetryableCode(code codes.Code) bool {
	switch code {
	case codes.Unavailable, codes.ResourceExhausted, codes.Internal, codes.Aborted:
		return true
	default:
		return false
	}
}
