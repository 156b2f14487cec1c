package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chris/schemascout/config"
	"github.com/chris/schemascout/internal/agent"
	"github.com/chris/schemascout/internal/catalog"
	"github.com/chris/schemascout/internal/db"
	"github.com/chris/schemascout/internal/discord"
	"github.com/chris/schemascout/internal/httpapi"
	"github.com/chris/schemascout/internal/llm"
	"github.com/chris/schemascout/internal/session"
	"github.com/chris/schemascout/internal/tools"
)

func main() {
	cfg := config.Load()

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	client, err := llm.NewClient(llm.ProviderConfig{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.APIKey(),
		Model:    cfg.LLMModel,
		BaseURL:  cfg.OllamaBaseURL,
	})
	if err != nil {
		log.Fatalf("failed to create LLM client: %v", err)
	}

	files, err := tools.NewFiles(cfg.SampleFilesDir)
	if err != nil {
		log.Fatalf("failed to open files directory: %v", err)
	}

	dispatcher, err := agent.NewDispatcher(tools.Registry(files, tools.NewAnalyzer(client))...)
	if err != nil {
		log.Fatalf("failed to register tools: %v", err)
	}

	ag := agent.New(client, dispatcher, agent.Options{
		MaxSteps:         cfg.MaxSteps,
		MaxContextTokens: cfg.MaxContextTokens,
	})

	switch {
	case cfg.HTTPAddr != "":
		runServices(cfg, files, database, func() func() {
			return runHTTP(cfg, ag, files, database)
		})
	case cfg.DiscordToken != "":
		runServices(cfg, files, database, func() func() {
			return runBot(cfg, ag, database)
		})
	default:
		runCLI(ag)
	}
}

// runServices starts the catalog sync and the given front end, then blocks
// until SIGINT or SIGTERM.
func runServices(cfg *config.Config, files *tools.Files, database *db.DB, start func() func()) {
	syncer := catalog.New(files.Root(), database)
	if err := syncer.Start(cfg.ScanCron); err != nil {
		log.Printf("catalog: %v", err)
	}
	defer syncer.Stop()

	stop := start()
	defer stop()

	log.Println("running. Press Ctrl+C to exit.")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down.")
}

func runHTTP(cfg *config.Config, ag *agent.Agent, files *tools.Files, database *db.DB) func() {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.New(ag, session.NewStore(llm.SystemPrompt), files, database, cfg.UploadDir),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("http: listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("http: shutdown: %v", err)
		}
	}
}

func runBot(cfg *config.Config, ag *agent.Agent, database *db.DB) func() {
	bot, err := discord.NewBot(cfg.DiscordToken, ag, session.NewStore(llm.SystemPrompt), database)
	if err != nil {
		log.Fatalf("failed to start Discord bot: %v", err)
	}
	return bot.Close
}

func runCLI(ag *agent.Agent) {
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	// Check if stdin is a pipe (non-interactive)
	stat, _ := os.Stdin.Stat()
	isPipe := (stat.Mode() & os.ModeCharDevice) == 0

	prompt := func() {
		if !isPipe {
			fmt.Print("> ")
		}
	}
	prompt()

	conv := agent.NewConversation(llm.SystemPrompt)
	reporter := agent.ReporterFunc(func(e agent.Event) {
		if e.Kind == agent.EventToolStart {
			fmt.Fprintf(os.Stderr, "  [%s]\n", e.Tool)
		}
	})

	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			prompt()
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		// While a question is pending, input is the answer to it.
		outcome, err := ag.Submit(ctx, conv, input, reporter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			fmt.Println(agent.ErrorReply)
		} else {
			fmt.Println(outcome.Reply())
		}

		if isPipe && !conv.AwaitingHuman() {
			break // single exchange in pipe mode
		}
		prompt()
	}
}
