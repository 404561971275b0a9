// ABOUTME: Entry point for the promptgate CLI
// ABOUTME: Dispatches serve, init, bootstrap, and version subcommands

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/2389/promptgate/internal/access"
	"github.com/2389/promptgate/internal/config"
	"github.com/2389/promptgate/internal/conversation"
	"github.com/2389/promptgate/internal/prompt"
	"github.com/2389/promptgate/internal/provider"
	"github.com/2389/promptgate/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
                                 _              _
 _ __  _ __ ___  _ __ ___  _ __ | |_ __ _  __ _| |_ ___
| '_ \| '__/ _ \| '_ ' _ \| '_ \| __/ _' |/ _' | __/ _ \
| |_) | | | (_) | | | | | | |_) | || (_| | (_| | ||  __/
| .__/|_|  \___/|_| |_| |_| .__/ \__\__, |\__,_|\__\___|
|_|                       |_|       |___/
`

// getConfigPath returns the path to the promptgate config file.
// Priority: PROMPTGATE_CONFIG env var > XDG_CONFIG_HOME/promptgate/config.yaml > ~/.config/promptgate/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("PROMPTGATE_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "promptgate", "config.yaml")
}

// getDataPath returns the path to the promptgate data directory.
// Priority: XDG_DATA_HOME/promptgate > ~/.local/share/promptgate
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "promptgate")
}

func main() {
	// Load .env before anything reads the environment; missing file is fine
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "bootstrap":
		err = runBootstrap(ctx)
	case "version":
		fmt.Printf("promptgate %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: promptgate <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  serve --user ID        Start an interactive session as the given user")
	fmt.Println("  init                   Create a new config file interactively")
	fmt.Println("  bootstrap --admin ID   Create config, database, and the first admin")
	fmt.Println("  version                Print the version")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  PROMPTGATE_CONFIG      Config file path (default: ~/.config/promptgate/config.yaml)")
	fmt.Println("  PROMPTGATE_ADMIN_IDS   Extra admin user ids, comma-separated")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  promptgate bootstrap --admin alice")
	fmt.Println("  promptgate serve --user alice")
	fmt.Println()
}

func runServe(ctx context.Context) error {
	userID, err := parseUserFlag(os.Args[2:])
	if err != nil {
		return err
	}

	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	// The static default prompt is loaded exactly once; a missing or
	// unreadable file aborts startup rather than serving without it.
	defaultPrompt, err := os.ReadFile(cfg.DefaultPrompt.Path)
	if err != nil {
		return fmt.Errorf("loading default prompt: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	gate := access.NewGate(st, cfg.AdminIDs())
	resolver := prompt.NewResolver(st, gate, strings.TrimSpace(string(defaultPrompt)))

	registry, err := provider.RegistryFromConfig(&cfg.Providers)
	if err != nil {
		return fmt.Errorf("building provider registry: %w", err)
	}

	clients, err := provider.ClientsFromConfig(ctx, &cfg.Providers)
	if err != nil {
		return fmt.Errorf("building provider clients: %w", err)
	}

	svc := conversation.NewService(registry, resolver, gate, clients)

	// First interaction registers the user with standard access unless
	// they were previously revoked
	if _, err := st.EnsureUser(ctx, userID); err != nil {
		return fmt.Errorf("registering user: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Provider: %s\n", registry.Active().DisplayName)
	green.Print("    ▶ ")
	fmt.Printf("User:     %s\n", userID)
	fmt.Println()

	logger.Info("starting promptgate session",
		"config", configPath,
		"user_id", userID,
		"provider", registry.Active().Provider,
	)

	r := &repl{
		userID:   userID,
		svc:      svc,
		resolver: resolver,
		registry: registry,
		gate:     gate,
		store:    st,
	}
	return r.run(ctx)
}

// parseUserFlag extracts --user from serve arguments.
// Supports both "--user value" and "--user=value" formats.
func parseUserFlag(args []string) (string, error) {
	var userID string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--user" || arg == "-u":
			if i+1 >= len(args) {
				return "", fmt.Errorf("--user requires a value")
			}
			userID = args[i+1]
			i++
		case strings.HasPrefix(arg, "--user="):
			userID = strings.TrimPrefix(arg, "--user=")
		case strings.HasPrefix(arg, "-u="):
			userID = strings.TrimPrefix(arg, "-u=")
		case strings.HasPrefix(arg, "-"):
			return "", fmt.Errorf("unknown flag: %s", arg)
		default:
			return "", fmt.Errorf("unexpected argument: %s", arg)
		}
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("--user flag is required")
	}
	return userID, nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

// runBootstrap performs first-time setup:
// 1. Creates config file and default prompt file (if not exists)
// 2. Creates the database
// 3. Grants the admin permission level to the given user
//
// This is a one-command setup: promptgate bootstrap --admin alice
func runBootstrap(ctx context.Context) error {
	// Supports both "--admin value" and "--admin=value" formats
	var adminID string
	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--admin" || arg == "-a":
			if i+1 >= len(args) {
				return fmt.Errorf("--admin requires a value")
			}
			adminID = args[i+1]
			i++
		case strings.HasPrefix(arg, "--admin="):
			adminID = strings.TrimPrefix(arg, "--admin=")
		case strings.HasPrefix(arg, "-a="):
			adminID = strings.TrimPrefix(arg, "-a=")
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			return fmt.Errorf("unexpected argument: %s", arg)
		}
	}

	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return fmt.Errorf("--admin flag is required")
	}

	configPath := getConfigPath()
	dataPath := getDataPath()
	dbPath := filepath.Join(dataPath, "promptgate.db")
	promptPath := filepath.Join(dataPath, "default_prompt.txt")

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	var cfg *config.Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		if err := os.MkdirAll(dataPath, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}

		if err := os.WriteFile(promptPath, []byte(defaultPromptText), 0644); err != nil {
			return fmt.Errorf("writing default prompt file: %w", err)
		}
		green.Printf("  ✓ Created default prompt: %s\n", promptPath)

		configContent := fmt.Sprintf(`# promptgate configuration
# Generated by promptgate bootstrap

database:
  path: "%s"

default_prompt:
  path: "%s"

admin:
  user_ids:
    - "%s"

providers:
  default: "openai"
  openai:
    enabled: true
    api_key: "${OPENAI_API_KEY}"
    model: "gpt-4o"
    max_tokens: 1024
  anthropic:
    enabled: false
    api_key: "${ANTHROPIC_API_KEY}"
    model: "claude-sonnet-4-20250514"
    max_tokens: 1024
  gemini:
    enabled: false
    api_key: "${GEMINI_API_KEY}"
    model: "gemini-2.0-flash"
    max_tokens: 1024

logging:
  level: "info"
  format: "text"
`, dbPath, promptPath, adminID)

		if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}

		green.Printf("  ✓ Created config: %s\n", configPath)

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	} else {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		cyan.Printf("  Using existing config: %s\n", configPath)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	green.Printf("  ✓ Database: %s\n", cfg.Database.Path)

	if err := s.SetPermission(ctx, adminID, store.PermissionAdmin); err != nil {
		return fmt.Errorf("granting admin: %w", err)
	}

	green.Printf("  ✓ Granted admin to: %s\n", adminID)

	allowListed := false
	for _, id := range cfg.AdminIDs() {
		if id == adminID {
			allowListed = true
			break
		}
	}

	fmt.Println()
	green.Println("  Bootstrap complete!")
	fmt.Println()

	if !allowListed {
		yellow.Printf("  Note: %q is not in the admin allow-list.\n", adminID)
		fmt.Printf("  Add it to admin.user_ids in %s\n", configPath)
		fmt.Printf("  or to the %s environment variable,\n", config.AdminUserIDsEnv)
		fmt.Println("  otherwise admin commands will be denied.")
		fmt.Println()
	}

	yellow.Println("  Ready to go:")
	fmt.Printf("    promptgate serve --user %s\n", adminID)
	fmt.Println()

	return nil
}

// defaultPromptText seeds the static default prompt file at bootstrap.
const defaultPromptText = `You are a helpful assistant. Answer clearly and concisely.
`

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("promptgate configuration setup")
	fmt.Println("==============================")
	fmt.Println()

	// Default paths
	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultDbPath := filepath.Join(defaultDataPath, "promptgate.db")
	defaultPromptPath := filepath.Join(defaultDataPath, "default_prompt.txt")

	// Output filename
	outputFile := promptLine(reader, "Config file path", defaultConfigPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := promptLine(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Database
	fmt.Println("\n--- Database Configuration ---")
	dbPath := promptLine(reader, "SQLite database path", defaultDbPath)

	// Default prompt
	fmt.Println("\n--- Default Prompt ---")
	promptPath := promptLine(reader, "Default prompt file path", defaultPromptPath)

	// Admin allow-list
	fmt.Println("\n--- Admin Allow-List ---")
	adminIDs := promptLine(reader, "Admin user ids (comma-separated)", "")

	// Providers
	fmt.Println("\n--- Provider Configuration ---")
	defaultProvider := promptLine(reader, "Default provider (openai/anthropic/gemini)", "openai")

	type providerAnswers struct {
		enabled bool
		model   string
		keyVar  string
	}
	answers := map[string]*providerAnswers{
		"openai":    {model: "gpt-4o", keyVar: "OPENAI_API_KEY"},
		"anthropic": {model: "claude-sonnet-4-20250514", keyVar: "ANTHROPIC_API_KEY"},
		"gemini":    {model: "gemini-2.0-flash", keyVar: "GEMINI_API_KEY"},
	}
	for _, name := range []string{"openai", "anthropic", "gemini"} {
		a := answers[name]
		def := "no"
		if name == defaultProvider {
			def = "yes"
		}
		enabledStr := promptLine(reader, fmt.Sprintf("Enable %s?", name), def)
		a.enabled = strings.ToLower(enabledStr) == "yes" || strings.ToLower(enabledStr) == "y"
		if a.enabled {
			a.model = promptLine(reader, fmt.Sprintf("%s model", name), a.model)
		}
	}

	// Logging
	fmt.Println("\n--- Logging Configuration ---")
	logLevel := promptLine(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := promptLine(reader, "Log format (text/json)", "text")

	// Generate config
	var cfg strings.Builder
	cfg.WriteString("# promptgate configuration\n")
	cfg.WriteString("# Generated by promptgate init\n\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("default_prompt:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", promptPath))
	cfg.WriteString("\n")

	cfg.WriteString("admin:\n")
	cfg.WriteString("  user_ids:\n")
	for _, id := range strings.Split(adminIDs, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			cfg.WriteString(fmt.Sprintf("    - \"%s\"\n", id))
		}
	}
	cfg.WriteString("\n")

	cfg.WriteString("providers:\n")
	cfg.WriteString(fmt.Sprintf("  default: \"%s\"\n", defaultProvider))
	for _, name := range []string{"openai", "anthropic", "gemini"} {
		a := answers[name]
		cfg.WriteString(fmt.Sprintf("  %s:\n", name))
		cfg.WriteString(fmt.Sprintf("    enabled: %t\n", a.enabled))
		if a.enabled {
			cfg.WriteString(fmt.Sprintf("    api_key: \"${%s}\"\n", a.keyVar))
			cfg.WriteString(fmt.Sprintf("    model: \"%s\"\n", a.model))
			cfg.WriteString("    max_tokens: 1024\n")
		}
	}
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	// Ensure config directory exists
	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Write config file
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	// Ensure data and prompt directories exist, seed the prompt file
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if _, err := os.Stat(promptPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(promptPath), 0755); err != nil {
			return fmt.Errorf("creating prompt directory: %w", err)
		}
		if err := os.WriteFile(promptPath, []byte(defaultPromptText), 0644); err != nil {
			return fmt.Errorf("writing default prompt file: %w", err)
		}
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Default prompt: %s\n", promptPath)
	fmt.Println("\nTo start a session:")
	fmt.Printf("  promptgate serve --user <id>\n")

	return nil
}

func promptLine(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}

// truncatePreview shortens prompt content for history listings
func truncatePreview(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// formatAge renders a timestamp as a rough relative age for listings
func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
