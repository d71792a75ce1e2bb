package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alkime/liftlog/internal/audio"
	"github.com/alkime/liftlog/internal/audiolock"
	"github.com/alkime/liftlog/internal/config"
	"github.com/alkime/liftlog/internal/keyring"
	"github.com/alkime/liftlog/internal/listen"
	"github.com/alkime/liftlog/internal/logger"
	"github.com/alkime/liftlog/internal/parse"
	"github.com/alkime/liftlog/internal/session"
	"github.com/alkime/liftlog/internal/speech"
	"github.com/alkime/liftlog/internal/telemetry"
	"github.com/alkime/liftlog/internal/transcription"
	"github.com/alkime/liftlog/internal/tui"
	"github.com/alkime/liftlog/internal/workdir"
	"github.com/alkime/liftlog/pkg/channels"
	tea "github.com/charmbracelet/bubbletea"
)

var timeNow = time.Now

// SessionCmd is the default command that runs the voice session TUI.
type SessionCmd struct {
	Quiet       bool   `flag:"" help:"Log prompts instead of speaking them"`
	LogFile     string `flag:"" optional:"" help:"Log file (default ~/.liftlog/liftlog.log)"`
	MetricsAddr string `flag:"" optional:"" help:"Serve Prometheus metrics on this address, e.g. :9464"`
}

// Run executes the session command.
//
//nolint:funlen // CLI command with multiple setup steps
func (c *SessionCmd) Run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workdir.Prep(); err != nil {
		return fmt.Errorf("failed to prepare working directory: %w", err)
	}

	// The TUI owns the terminal, so logs go to a file.
	logPath, err := workdir.Resolve(c.LogFile, workdir.LogFile)
	if err != nil {
		return err
	}
	//nolint:gosec // Log file is user-owned
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	log := logger.SetupCLILogger(cfg, logFile)

	// Resolve API keys: environment variables take priority, fallback to keychain
	openAIKey, err := keyring.Resolve(keyring.OpenAI, cfg.OpenAIAPIKey)
	if err != nil {
		return fmt.Errorf("%w. Set LIFTLOG_OPENAI_API_KEY or run 'liftlog config set-key openai <key>'", err)
	}

	var extractor parse.Extractor
	if key, err := keyring.Resolve(keyring.Anthropic, cfg.AnthropicAPIKey); err == nil {
		extractor = newExtractor(cfg, key)
	} else {
		log.Warn("extractor disabled, only the set grammar will be used", "error", err)
	}

	shutdown, metricsHandler, err := telemetry.Setup(ctx, cfg.Env, log)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("failed to shut down telemetry", "error", err)
		}
	}()
	if c.MetricsAddr != "" {
		serveMetrics(ctx, c.MetricsAddr, metricsHandler, log)
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	// audio in
	chunkDir, err := workdir.Resolve(cfg.WorkDir, "chunks")
	if err != nil {
		return err
	}
	devConf := audio.DefaultDeviceConfig()
	devConf.SampleRate = cfg.SampleRate
	devConf.DeviceName = cfg.InputDevice
	mic := audio.NewMic(audio.MicConfig{Device: devConf, WorkDir: chunkDir}, log)

	tr := transcription.NewTranscriber(openAIKey, cfg.TranscriptionModel)
	parser := parse.NewParser(extractor, log)

	// audio out
	var speaker session.Speaker = speech.LogSpeaker{Log: log}
	if !c.Quiet {
		player, err := speech.NewPlayer(log)
		if err != nil {
			log.Warn("audio output unavailable, prompts will only be logged", "error", err)
		} else {
			synth := speech.NewOpenAISynthesizer(openAIKey, cfg.SpeechModel, cfg.SpeechVoice)
			speaker = speech.NewSpeaker(synth, player, log)
		}
	}

	// events fan out to the screen and the log
	uiC := make(chan session.Event, 32)
	logC := make(chan session.Event, 32)
	events := channels.NewBroadcaster[session.Event]()
	if err := events.Subscribe(uiC); err != nil {
		return err
	}
	if err := events.SubscribeWithTimeout(logC, 50*time.Millisecond); err != nil {
		return err
	}
	input, err := events.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to start event broadcaster: %w", err)
	}
	go session.LogEvents(ctx, logC, log)

	orch := session.New(session.Deps{
		Sets:     listen.NewSetListener(mic, tr, parser, log),
		YesNo:    listen.NewYesNoListener(mic, tr, log),
		Speaker:  speaker,
		Store:    st,
		Recorder: mic,
	},
		session.WithPolicy(cfg.Policy()),
		session.WithGuard(audiolock.New(log)),
		session.WithEventSink(session.ChannelSink{Ch: input, Timeout: 100 * time.Millisecond}),
		session.WithUserID(cfg.UserID),
		session.WithLogger(log),
		session.WithMetrics(telemetry.Default()),
	)

	if err := orch.Refresh(ctx); err != nil {
		log.Warn("failed to load today's sets", "error", err)
	}

	p := tea.NewProgram(tui.New(ctx, cancel, orch, uiC))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to start TUI: %w", err)
	}

	cancel()
	events.Wait()
	for i, s := range events.Stats() {
		if s.Dropped > 0 {
			log.Debug("dropped session events", "subscriber", i, "count", s.Dropped)
		}
	}

	fmt.Println("\nfinished. bye!")

	return nil
}

func serveMetrics(ctx context.Context, addr string, h http.Handler, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
}

// DevicesCmd lists available audio devices.
type DevicesCmd struct{}

// Run executes the devices command.
func (dcmd *DevicesCmd) Run() error {
	slog.Info("Enumerating audio devices...")

	mic := audio.NewMic(audio.MicConfig{}, slog.Default())
	devices, err := mic.Devices(context.Background())
	if err != nil {
		return fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	for _, dev := range devices {
		slog.Info("Audio Device",
			"name", dev.Name,
			"isDefault", dev.IsDefault,
			"formatCount", dev.FormatCount,
			"formats", dev.Formats,
		)
	}

	return nil
}
