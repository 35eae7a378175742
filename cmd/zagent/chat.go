package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"zagent/internal/config"
	"zagent/internal/conversation"
	"zagent/internal/perception"
	"zagent/internal/store"
)

// chatSession holds the state of one interactive run.
type chatSession struct {
	window    *conversation.Window
	persister *conversation.Persister
	compactor *conversation.Compactor
	archive   *store.Archive
	client    *perception.HTTPClient
	active    perception.ModelRef
	projectID string
	log       *zap.Logger
}

func runChat() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	runLog := logger.With(zap.String("run_id", uuid.NewString()))

	window := conversation.NewWindow(conversation.WindowConfig{
		MaxChars:        cfg.Memory.MaxChars,
		KeepRecentTurns: cfg.Memory.KeepRecentTurns,
	})
	window.SetProjectPath(cwd)

	persister := conversation.NewPersister(configDir, runLog)
	if err := persister.Load(window, cwd); err != nil {
		return fmt.Errorf("load saved context: %w", err)
	}

	s := &chatSession{
		window:    window,
		persister: persister,
		projectID: conversation.ProjectID(cwd),
		log:       runLog,
	}

	if cfg.Archive.Enabled {
		archive, err := store.Open(cfg.ResolveArchivePath(configDir), runLog)
		if err != nil {
			// Archive trouble should not block a chat session.
			fmt.Println(warningStyle.Render("archive unavailable: " + err.Error()))
			runLog.Warn("archive unavailable", zap.Error(err))
		} else {
			s.archive = archive
			defer archive.Close()
		}
	}

	if err := s.selectDefaultModel(); err != nil {
		fmt.Println(warningStyle.Render(err.Error()))
		fmt.Println(subtleStyle.Render("Use /model <provider>/<model> once credentials are configured."))
	}
	// The compactor falls back to a heuristic summary when no model is
	// available, so it is wired regardless.
	s.compactor = conversation.NewCompactor(modelClientOrNil(s.client), runLog)

	s.printBanner(cwd)
	return s.loop()
}

// modelClientOrNil avoids wrapping a nil *HTTPClient in a non-nil interface.
func modelClientOrNil(c *perception.HTTPClient) conversation.ModelClient {
	if c == nil {
		return nil
	}
	return c
}

// selectDefaultModel activates the first provider with a resolvable
// credential, using its first listed model.
func (s *chatSession) selectDefaultModel() error {
	for i := range settings.Providers {
		p := &settings.Providers[i]
		if len(p.Models) == 0 {
			continue
		}
		key := p.ResolveAPIKey(fileEnv)
		if key == "" {
			continue
		}
		s.setModel(p, p.Models[0], key)
		return nil
	}
	return fmt.Errorf("no provider has a usable API key")
}

func (s *chatSession) setModel(p *config.Provider, model, apiKey string) {
	s.active = perception.ModelRef{ProviderID: p.ID, APIKey: apiKey, ModelID: model}
	s.client = perception.NewHTTPClient(perception.HTTPConfig{
		APIKey:    apiKey,
		Endpoint:  p.Endpoint,
		Model:     model,
		Referer:   p.Referer,
		Title:     p.Title,
		UserAgent: p.UserAgent,
	})
	s.log.Info("model selected",
		zap.String("provider", p.ID),
		zap.String("model", model))
}

func (s *chatSession) printBanner(cwd string) {
	fmt.Println(titleStyle.Render("zagent"))
	fmt.Println(subtleStyle.Render("project: " + cwd))
	if s.window.Len() > 0 {
		fmt.Println(subtleStyle.Render(fmt.Sprintf("restored %d turns from previous sessions", s.window.Len())))
	}
	if s.client != nil {
		fmt.Println(subtleStyle.Render("model: " + s.active.ProviderID + "/" + s.active.ModelID))
	}
	fmt.Println(subtleStyle.Render("commands: /model /compact /sessions /quit"))
	fmt.Println()
}

func (s *chatSession) loop() error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print(promptStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := s.handleCommand(input)
			if err != nil {
				fmt.Println(errorStyle.Render(err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		if err := s.exchange(input); err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
		}
	}
}

// exchange runs one user turn end to end: ask the model, record both turns,
// compact if the window is over budget, and persist.
func (s *chatSession) exchange(input string) error {
	if s.client == nil {
		return fmt.Errorf("no model selected; use /model <provider>/<model>")
	}

	ctx := context.Background()

	// The user turn goes into the window first; BuildMessages skips the
	// turn duplicating the live request so it is not sent twice.
	s.window.Append(conversation.RoleUser, input, conversation.TurnMeta{})
	messages := toChatMessages(conversation.BuildMessages(s.window, input))

	reply, err := s.client.ChatComplete(ctx, messages)
	if err != nil {
		return fmt.Errorf("model request failed: %w", err)
	}

	s.window.Append(conversation.RoleAssistant, reply, conversation.TurnMeta{})

	fmt.Println(reply)
	fmt.Println()

	if s.compactor.Compact(ctx, s.window) {
		fmt.Println(subtleStyle.Render("(older turns compacted into summary)"))
	}
	return s.persist()
}

func (s *chatSession) persist() error {
	if err := s.persister.Save(s.window, s.projectID); err != nil {
		return fmt.Errorf("save context: %w", err)
	}
	if s.archive != nil {
		if err := s.archive.SyncWindow(s.projectID, s.window.Turns()); err != nil {
			s.log.Warn("archive sync failed", zap.Error(err))
		}
	}
	return nil
}

func (s *chatSession) handleCommand(input string) (quit bool, err error) {
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/quit", "/exit":
		if err := s.persist(); err != nil {
			return true, err
		}
		return true, nil

	case "/model":
		if rest == "" {
			return false, fmt.Errorf("usage: /model <provider>/<model>")
		}
		return false, s.switchModel(rest)

	case "/compact":
		if s.compactor.Compact(context.Background(), s.window) {
			fmt.Println(subtleStyle.Render("compacted"))
			return false, s.persist()
		}
		fmt.Println(subtleStyle.Render("nothing to compact"))
		return false, nil

	case "/sessions":
		return false, printSessions(s.persister)

	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
}

// switchModel handles "/model provider/model".
func (s *chatSession) switchModel(ref string) error {
	providerID, model, ok := strings.Cut(ref, "/")
	if !ok {
		return fmt.Errorf("usage: /model <provider>/<model>")
	}

	p := settings.FindProvider(providerID)
	if p == nil {
		return fmt.Errorf("unknown provider %q", providerID)
	}
	if !p.HasModel(model) {
		return fmt.Errorf("provider %q does not list model %q", providerID, model)
	}
	key := p.ResolveAPIKey(fileEnv)
	if key == "" {
		return fmt.Errorf("no API key for provider %q (checked %v)", providerID, p.EnvVars)
	}

	s.setModel(p, model, key)
	s.compactor = conversation.NewCompactor(s.client, s.log)
	fmt.Println(subtleStyle.Render("model: " + providerID + "/" + model))
	return nil
}

func toChatMessages(msgs []conversation.Message) []perception.ChatMessage {
	out := make([]perception.ChatMessage, len(msgs))
	for i, m := range msgs {
		out[i] = perception.ChatMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
