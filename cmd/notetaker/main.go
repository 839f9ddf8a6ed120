package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"voice-notes/config"
	"voice-notes/internal/application"
	"voice-notes/internal/infra/audio"
	"voice-notes/internal/infra/google"
	"voice-notes/internal/infra/openai"
	"voice-notes/internal/infra/pushover"
)

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stt, closeSTT, err := createTranscriber(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSTT()

	var notifier application.Notifier
	if cfg.Pushover.Enabled {
		notifier = pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey)
	} else {
		notifier = &application.NoopNotifier{}
	}

	source := createAudioSource(cfg.Audio, logger)
	listener := application.NewVoiceListener(source, stt, logger)
	if err := listener.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := listener.Stop(); err != nil {
			logger.Warn("stopping audio source", "error", err)
		}
	}()

	session := application.NewSession(
		cfg.Notes.Dir,
		cfg.Notes.Page,
		listener,
		notifier,
		os.Stdin,
		os.Stdout,
		logger,
	)

	logger.Info("starting note taker",
		"audio_source", source.Name(),
		"speech_provider", cfg.Speech.Provider,
		"notes", session.TargetPath(),
	)

	if err := session.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("shutting down")
			return nil
		}
		return fmt.Errorf("note session: %w", err)
	}
	return nil
}

// loadConfig reads the config file, falling back to defaults when the
// default path does not exist, then applies command line overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !cmd.IsSet("config"):
		cfg = config.Default()
	default:
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("page") {
		cfg.Notes.Page = cmd.String("page")
	}
	if cmd.IsSet("source") {
		cfg.Audio.Source = cmd.String("source")
	}
	if cmd.IsSet("provider") {
		cfg.Speech.Provider = cmd.String("provider")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func createTranscriber(ctx context.Context, cfg *config.Config) (application.SpeechToText, func(), error) {
	switch cfg.Speech.Provider {
	case config.ProviderWhisper:
		client := openai.NewWhisperClient(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.BaseURL,
			cfg.OpenAI.Model,
			cfg.Speech.Language,
			cfg.Speech.MaxAttempts,
		)
		return client, func() {}, nil
	case config.ProviderNone:
		return &application.NoopSTT{}, func() {}, nil
	default:
		client, err := google.NewClient(
			ctx,
			cfg.Google.CredentialsFile,
			cfg.Speech.Language,
			cfg.Audio.SampleRate,
			cfg.Speech.MaxAttempts,
		)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	}
}

func createAudioSource(cfg config.AudioConfig, logger *slog.Logger) application.AudioSource {
	switch cfg.Source {
	case config.SourceHTTP:
		return audio.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, logger)
	case config.SourceFile:
		return audio.NewFileSource(cfg.FileDir, logger)
	default:
		calibration, pause, maxDuration := cfg.Durations()
		return audio.NewMicrophoneSource(audio.CaptureConfig{
			SampleRate:       cfg.SampleRate,
			Calibration:      calibration,
			Pause:            pause,
			MaxDuration:      maxDuration,
			SilenceThreshold: cfg.SilenceThreshold,
		}, logger)
	}
}

// setupLogger writes to w rather than stdout, which belongs to the menu.
func setupLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:   "notetaker",
		Usage:  "Voice-driven note taker that appends spoken notes to dated text pages",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config.yaml",
				Value:       "config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:  "page",
				Usage: "Notes page to open, without the .txt extension",
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Audio source: microphone, http or file",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Speech provider: google, whisper or none",
			},
		},
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
