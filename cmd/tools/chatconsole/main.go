package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ergochat/readline"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/arogya-chat/backend/internal/config"
	"github.com/zhouzirui/arogya-chat/backend/internal/logging"
	"github.com/zhouzirui/arogya-chat/backend/internal/model/catalog"
	"github.com/zhouzirui/arogya-chat/backend/internal/model/chat"
	chatService "github.com/zhouzirui/arogya-chat/backend/internal/service/chat"
	"github.com/zhouzirui/arogya-chat/backend/internal/service/dispatch"
	"github.com/zhouzirui/arogya-chat/backend/internal/view"
)

type options struct {
	language    string
	delay       time.Duration
	catalogPath string
	logLevel    string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	_ = godotenv.Load()

	opts := options{}
	if cfg, err := config.Load(); err == nil {
		opts.language = cfg.Chat.DefaultLanguage
		opts.delay = cfg.Chat.ReplyDelay
		opts.catalogPath = cfg.Chat.CatalogPath
	} else {
		opts.language = string(chat.DefaultLanguage)
		opts.delay = dispatch.DefaultReplyDelay
	}

	cmd := &cobra.Command{
		Use:          "chatconsole",
		Short:        "Talk to the health assistant from a terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.language, "lang", "l", opts.language, "active language (en, hi, mr, bn)")
	flags.DurationVar(&opts.delay, "delay", opts.delay, "bot reply delay")
	flags.StringVar(&opts.catalogPath, "catalog", opts.catalogPath, "response catalog override (TOML)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	return cmd
}

func run(ctx context.Context, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := logging.SetupWriter(os.Stderr, opts.logLevel, "console"); err != nil {
		return err
	}

	lang, err := chat.ParseLanguage(opts.language)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(opts.catalogPath)
	if err != nil {
		return err
	}

	store := chatService.NewService(cat, lang)
	dispatcher := dispatch.NewService(store, cat, dispatch.WithDelay(opts.delay))
	defer dispatcher.Close()

	rl, err := readline.New(prompt(lang))
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	defer rl.Close()

	c := &console{out: rl, setPrompt: rl.SetPrompt, store: store, dispatcher: dispatcher, catalog: cat}

	events, unsubscribe := store.Subscribe(64)
	defer unsubscribe()
	go c.render(events)

	if _, err := store.EnsureSession(ctx); err != nil {
		return err
	}
	c.printf("Type a question, or /help for commands.\n")

	for {
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		quit, err := c.handle(ctx, line)
		if err != nil {
			c.printf("! %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func prompt(lang chat.Language) string {
	return fmt.Sprintf("%s %s> ", lang.Flag(), lang)
}

type console struct {
	out        io.Writer
	setPrompt  func(string)
	store      *chatService.Service
	dispatcher *dispatch.Service
	catalog    catalog.Store
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// handle runs one input line. It reports true when the user asked to quit.
func (c *console) handle(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		_, err := c.dispatcher.Send(ctx, "", line)
		if errors.Is(err, dispatch.ErrEmptyMessage) || errors.Is(err, dispatch.ErrNoActiveSession) {
			return false, nil
		}
		return false, err
	}

	fields := strings.Fields(line)
	arg := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		c.printf("/new [lang]  /list [query]  /select <n|id>  /lang <code>  /topics  /theme  /quit\n")
	case "/new":
		lang := c.store.Language(ctx)
		if arg != "" {
			parsed, err := chat.ParseLanguage(arg)
			if err != nil {
				return false, err
			}
			lang = parsed
		}
		_, err := c.store.CreateSession(ctx, lang)
		return false, err
	case "/list":
		c.list(ctx, arg)
	case "/select":
		return false, c.selectSession(ctx, arg)
	case "/lang":
		lang, err := chat.ParseLanguage(arg)
		if err != nil {
			return false, err
		}
		return false, c.store.SetLanguage(ctx, lang)
	case "/topics":
		for i, topic := range c.catalog.QuickTopics(c.store.Language(ctx)) {
			c.printf("  %d. %s\n", i+1, topic)
		}
	case "/theme":
		c.store.ToggleTheme(ctx)
	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
	return false, nil
}

func (c *console) list(ctx context.Context, query string) {
	current := c.store.Snapshot(ctx).CurrentSessionID
	for i, s := range c.store.FilterSessions(ctx, query) {
		marker := " "
		if s.ID == current {
			marker = "*"
		}
		c.printf("%s %d. %s %s (%d messages)\n", marker, i+1, s.Language.Flag(), s.Title, len(s.Messages))
	}
}

// selectSession accepts a 1-based index into the unfiltered list or a session id.
func (c *console) selectSession(ctx context.Context, arg string) error {
	if arg == "" {
		return errors.New("usage: /select <n|id>")
	}
	id := arg
	var n int
	if _, err := fmt.Sscanf(arg, "%d", &n); err == nil {
		sessions := c.store.Sessions(ctx)
		if n < 1 || n > len(sessions) {
			return fmt.Errorf("no session %d", n)
		}
		id = sessions[n-1].ID
	}
	if !c.store.SelectSession(ctx, id) {
		return fmt.Errorf("no session %s", id)
	}
	return nil
}

func (c *console) render(events <-chan chatService.Event) {
	for evt := range events {
		switch evt.Type {
		case chatService.EventMessage:
			if evt.Message == nil || evt.Message.Sender != chat.SenderBot {
				continue
			}
			badge := ""
			if evt.Message.Type == chat.TypeAlert {
				badge = "[ALERT] "
			}
			c.printf("%s bot: %s%s\n", clock(evt.Message), badge, evt.Message.Content)
		case chatService.EventSessionCreated:
			if evt.Session != nil {
				c.printf("== %s ==\n", evt.Session.Title)
				for _, m := range evt.Session.Messages {
					c.printf("%s bot: %s\n", clock(&m), m.Content)
				}
			}
		case chatService.EventSessionSelected:
			if evt.Session != nil {
				c.printf("== %s ==\n", evt.Session.Title)
				for _, m := range evt.Session.Messages {
					c.printf("%s %s: %s\n", clock(&m), m.Sender, m.Content)
				}
			}
		case chatService.EventTyping:
			if evt.Typing != nil && *evt.Typing {
				c.printf("... bot is typing\n")
			}
		case chatService.EventLanguage:
			if c.setPrompt != nil {
				c.setPrompt(prompt(evt.Language))
			}
			c.printf("language: %s\n", evt.Language.Name())
		case chatService.EventTheme:
			c.printf("theme: %s\n", evt.Theme)
		case chatService.EventNotice:
			if evt.Notice != nil {
				c.printf("* %s: %s\n", evt.Notice.Title, evt.Notice.Description)
			}
		}
	}
}

func clock(m *chat.Message) string {
	return view.Clock(m.Timestamp, m.Language, time.Local)
}
