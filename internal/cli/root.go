// Package cli implements the neuromap CLI commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neuromap/cli/config"
	"github.com/neuromap/cli/internal/auth"
	"github.com/neuromap/cli/internal/chat"
	"github.com/neuromap/cli/internal/db"
	"github.com/neuromap/cli/internal/embeddings"
	"github.com/neuromap/cli/internal/history"
	"github.com/neuromap/cli/internal/llm"
	"github.com/neuromap/cli/internal/rag"
	"github.com/neuromap/cli/internal/todo"
)

var userFlag string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "neuromap",
	Short: "Voice notes to knowledge graph",
	Long:  "Capture notes, extract todos with a language model, and chat over your notes with semantic retrieval.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "User id (default: $NEUROMAP_USER or config user.id)")
}

// app bundles the long-lived client handles. They are constructed once per
// invocation and shared by whatever the command runs.
type app struct {
	cfg       *config.Config
	db        *db.DB
	retriever *rag.Retriever
	todos     *todo.Service
	agent     *chat.Agent
	history   *history.Store
}

// newApp wires the dependency graph from configuration.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	database, err := db.New(cfg.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	var (
		model    llm.Client
		embedder embeddings.Embedder
	)
	switch cfg.Provider {
	case "ollama":
		model = llm.NewOllamaClient(cfg.Ollama.BaseURL, cfg.Ollama.Model)
		embedder = embeddings.NewOllamaEmbedder(cfg.Ollama.BaseURL, cfg.Embeddings.OllamaModel)
	default:
		model = llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
		})
		embedder = embeddings.NewOpenAIEmbedder(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.Embeddings.OpenAIModel)
	}

	retriever := rag.NewRetriever(database, embedder,
		cfg.Processing.ChunkSize, cfg.Processing.ChunkOverlap, cfg.Processing.TopK)

	hist, err := history.Open(cfg.History.Path)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("open history: %w", err)
	}

	return &app{
		cfg:       cfg,
		db:        database,
		retriever: retriever,
		todos:     todo.NewService(database, todo.NewExtractor(model)),
		agent:     chat.NewAgent(retriever, model, rag.NewContextBuilder(2000)),
		history:   hist,
	}, nil
}

func (a *app) close() {
	a.history.Close()
	a.db.Close()
}

// userContext attaches the resolved user id to the command context.
// Operations refuse to run without one.
func (a *app) userContext(cmd *cobra.Command) context.Context {
	user := userFlag
	if user == "" {
		user = a.cfg.User.ID
	}
	if user == "" {
		return cmd.Context()
	}
	return auth.WithUser(cmd.Context(), user)
}

func (a *app) userID(cmd *cobra.Command) (string, error) {
	return auth.UserID(a.userContext(cmd))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
