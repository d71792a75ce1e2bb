package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/alkime/liftlog/internal/config"
	"github.com/alkime/liftlog/internal/extract"
	"github.com/alkime/liftlog/internal/keyring"
	"github.com/alkime/liftlog/internal/parse"
	"github.com/alkime/liftlog/internal/store"
	"github.com/alkime/liftlog/internal/workdir"
	"github.com/alkime/liftlog/internal/workout"
)

// CLI defines the liftlog command structure.
type CLI struct {
	// Default command (runs when no subcommand given)
	Session SessionCmd `cmd:"" default:"withargs" help:"Start a voice logging session"`

	// Subcommands
	Parse   ParseCmd   `cmd:"" help:"Run the set parser on typed text"`
	History HistoryCmd `cmd:"" help:"Show the sets logged on a day"`
	Devices DevicesCmd `cmd:"" help:"List available audio devices"`
	Config  ConfigCmd  `cmd:"" help:"Manage configuration"`
}

// ParseCmd runs both parsing tiers without any audio.
type ParseCmd struct {
	Text string `arg:"" help:"Utterance, e.g. \"leg press 160 for 10\""`
	Date string `flag:"" optional:"" help:"Day whose last set resolves \"same weight\" (default today)"`
}

// Run executes the parse command.
func (c *ParseCmd) Run(cfg *config.Config) error {
	ctx := context.Background()

	st, err := openStore(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer st.Close()

	date := c.Date
	if date == "" {
		date = workout.DateOf(timeNow())
	}
	sets, err := st.SetsByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to load sets for %s: %w", date, err)
	}

	var extractor parse.Extractor
	if key, err := keyring.Resolve(keyring.Anthropic, cfg.AnthropicAPIKey); err == nil {
		extractor = newExtractor(cfg, key)
	} else {
		slog.Debug("extractor disabled", "error", err)
	}

	res, ok := parse.NewParser(extractor, slog.Default()).Parse(ctx, c.Text, workout.LastSet(sets))
	if !ok {
		fmt.Printf("no set: %s\n", res.Reason)
		return nil
	}

	fmt.Printf("%s (%s)\n", res.Set.Summary(), res.Tier)

	return nil
}

// HistoryCmd prints a day's sets.
type HistoryCmd struct {
	Date string `flag:"" optional:"" help:"Day to show as YYYY-MM-DD (default today)"`
}

// Run executes the history command.
func (c *HistoryCmd) Run(cfg *config.Config) error {
	ctx := context.Background()

	st, err := openStore(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer st.Close()

	date := c.Date
	if date == "" {
		date = workout.DateOf(timeNow())
	}

	sets, err := st.SetsByDate(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to load sets: %w", err)
	}

	fmt.Println(date)
	if len(sets) == 0 {
		fmt.Println("  nothing logged")
	}
	for _, s := range sets {
		fmt.Printf("  %-24s %6s lb x %-3d set %d\n", s.ExerciseName, workout.FormatWeight(s.Weight), s.Reps, s.SetNumber)
	}
	if len(sets) > 0 {
		fmt.Printf("  volume %s lb\n", workout.FormatWeight(workout.Volume(sets)))
	}

	prev, ok, err := st.MostRecentDateBefore(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to find previous workout: %w", err)
	}
	if ok {
		fmt.Printf("\nprevious workout: %s\n", prev)
	}

	return nil
}

// ConfigCmd groups configuration-related subcommands.
type ConfigCmd struct {
	SetKey    SetKeyCmd    `cmd:"" help:"Store an API key in system keychain"`
	DeleteKey DeleteKeyCmd `cmd:"" help:"Remove an API key from system keychain"`
	ListKeys  ListKeysCmd  `cmd:"" name:"list-keys" help:"Show which API keys are configured"`
}

// SetKeyCmd stores an API key in the system keychain.
type SetKeyCmd struct {
	Service string `arg:"" enum:"openai,anthropic" help:"Service name (openai or anthropic)"`
	Secret  string `arg:"" help:"API key value"`
}

// Run executes the set-key command.
func (c *SetKeyCmd) Run() error {
	if strings.TrimSpace(c.Secret) == "" {
		return errors.New("API key cannot be empty")
	}

	apiKey, err := keyring.APIKeyFromServiceName(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	if err := keyring.Set(apiKey, c.Secret); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	fmt.Printf("%s API key stored in keychain\n", c.Service)

	return nil
}

// DeleteKeyCmd removes an API key from the system keychain.
type DeleteKeyCmd struct {
	Service string `arg:"" enum:"openai,anthropic" help:"Service name (openai or anthropic)"`
}

// Run executes the delete-key command.
func (c *DeleteKeyCmd) Run() error {
	apiKey, err := keyring.APIKeyFromServiceName(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	if err := keyring.Delete(apiKey); err != nil {
		return err
	}

	fmt.Printf("%s API key removed from keychain\n", c.Service)

	return nil
}

// ListKeysCmd shows which API keys are configured.
type ListKeysCmd struct{}

// Run executes the list-keys command.
//
//nolint:unparam // error return required by Kong interface
func (c *ListKeysCmd) Run() error {
	allSet := true

	for _, apiKey := range keyring.AllAPIKeys() {
		if keyring.IsSet(apiKey) {
			fmt.Printf("%s: configured\n", apiKey.DisplayName())
		} else {
			fmt.Printf("%s: not set\n", apiKey.DisplayName())
			allSet = false
		}
	}

	if !allSet {
		fmt.Println("\nRun 'liftlog config set-key <service> <key>' to configure.")
	}

	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.Store, error) {
	path, err := workdir.Resolve(cfg.DBPath, workdir.DBFile)
	if err != nil {
		return nil, fmt.Errorf("failed to locate database: %w", err)
	}

	st, err := store.Open(ctx, store.Config{Path: path, UserID: cfg.UserID}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open set log: %w", err)
	}

	return st, nil
}

func newExtractor(cfg *config.Config, apiKey string) *extract.Extractor {
	opts := []extract.Option{extract.WithTimeout(cfg.ExtractTimeout)}
	if cfg.AnthropicModel != "" {
		opts = append(opts, extract.WithModel(cfg.AnthropicModel))
	}
	return extract.NewExtractor(apiKey, opts)
}

func main() {
	// Set up text-based logger for CLI output
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "liftlog: %v\n", err)
		os.Exit(1)
	}

	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli,
		kong.Name("liftlog"),
		kong.Description("Log workout sets by voice."),
		kong.Bind(cfg),
	)
	err = ctx.Run()
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}
