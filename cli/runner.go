// Command execution for CLI commands.
//
// Information Hiding:
// - Orchestrator/registry setup hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/avennor/trawl/agent"
	"github.com/avennor/trawl/config"
	"github.com/avennor/trawl/graphql"
	"github.com/avennor/trawl/mcp"
	"github.com/avennor/trawl/storage"
	"github.com/avennor/trawl/tools"
	"github.com/avennor/trawl/tracker"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	Verbose  bool
	Log      zerolog.Logger
}

// Chat starts an interactive chat session backed by persistent storage.
func Chat(ctx context.Context, sessionID, dbPath string, opts Options) error {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return err
	}

	if dbPath == "" {
		dbPath = settings.Storage.DBPath
	}
	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	if err := seedFromEnv(ctx, store, settings); err != nil {
		return err
	}

	// The store is both credential source (reads) and credential writer
	// (the configure tool persists new credentials).
	registry := tools.NewRegistry(tools.NewBackend(graphql.NewClient(store), store))

	orchestrator := agent.New(store, tracker.New(), registry,
		agent.WithMaxDepth(settings.Agent.MaxToolDepth),
		agent.WithLogger(opts.Log),
	)

	session, err := resolveSession(ctx, store, sessionID)
	if err != nil {
		return err
	}

	fmt.Printf("Chatting in session %q with %s. Type 'exit' to quit.\n\n", session.Name, settings.LLM.Model)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		answer, err := orchestrator.SendMessage(ctx, session.ID, line, settings.LLM.Model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n\n", agent.Describe(err))
			continue
		}
		fmt.Printf("%s\n\n", answer)
	}
	return scanner.Err()
}

// Serve runs the MCP bridge on stdin/stdout. The bridge has no database:
// credentials bootstrap from the environment and change through the
// configure tool.
func Serve(ctx context.Context, opts Options) error {
	proxy := config.ProxyFromEnv()
	credentials := graphql.NewConfigStore(proxy.BaseURL, proxy.Token)

	registry := tools.NewRegistry(tools.NewBackend(graphql.NewClient(credentials), credentials))

	server := mcp.NewServer(os.Stdin, os.Stdout, registry, opts.Log)
	return server.Run(ctx)
}

// ListTools prints the tool catalogue.
func ListTools() {
	for _, def := range tools.Definitions() {
		fmt.Printf("%-24s %s\n", def.Name, def.Description)
	}
}

// SetKey stores an LLM API key for a provider in the database.
func SetKey(ctx context.Context, providerName, key, dbPath string) error {
	pt, err := parseProviderName(providerName)
	if err != nil {
		return err
	}

	if dbPath == "" {
		dbPath = config.DBPath()
	}
	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	if err := store.SetKey(ctx, pt+"_api_key", key); err != nil {
		return err
	}
	fmt.Printf("Stored API key for %s\n", pt)
	return nil
}

// seedFromEnv copies bootstrap values from the environment into the
// database when the database has none. The database stays authoritative:
// existing rows are never overwritten.
func seedFromEnv(ctx context.Context, store *storage.SqliteStore, settings config.Settings) error {
	keyName := settings.LLM.Provider + "_api_key"
	stored, err := store.Key(ctx, keyName)
	if err != nil {
		return err
	}
	if stored == "" {
		envKey, err := config.APIKeyFor(settings.LLM.Provider)
		if err != nil {
			return err
		}
		if envKey != "" {
			if err := store.SetKey(ctx, keyName, envKey); err != nil {
				return err
			}
		}
	}

	if settings.Proxy.Token != "" {
		creds, err := store.Credentials(ctx)
		if err != nil {
			return err
		}
		if creds.Token == "" {
			if err := store.SetAuth(ctx, settings.Proxy.Token, settings.Proxy.BaseURL); err != nil {
				return err
			}
		}
	}
	return nil
}

func resolveSession(ctx context.Context, store *storage.SqliteStore, sessionID string) (storage.Session, error) {
	if sessionID == "" {
		return store.DefaultSession(ctx)
	}
	return store.Session(ctx, sessionID)
}

func parseProviderName(name string) (string, error) {
	switch strings.ToLower(name) {
	case "anthropic", "claude":
		return "anthropic", nil
	case "openai", "gpt":
		return "openai", nil
	case "deepseek":
		return "deepseek", nil
	case "gemini", "google":
		return "gemini", nil
	default:
		return "", fmt.Errorf("unknown provider: %q", name)
	}
}
