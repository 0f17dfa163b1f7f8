// Command graceguide is a terminal client for the GraceGuide backend. It
// keeps a signed-in session across invocations in an encrypted credential
// file, and every authenticated call goes through the refresh-and-replay
// protocol, so an expired access token is recovered transparently.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BasilJohn/GraceGuide/internal/api"
	"github.com/BasilJohn/GraceGuide/internal/config"
	"github.com/BasilJohn/GraceGuide/internal/domain"
	"github.com/BasilJohn/GraceGuide/internal/session"
	"github.com/BasilJohn/GraceGuide/internal/store"
	"github.com/BasilJohn/GraceGuide/pkg/httpclient"
	"github.com/BasilJohn/GraceGuide/pkg/logger"
)

const usage = `usage: graceguide <command> [flags]

commands:
  signin         sign in with a provider identity token
  me             show the signed-in user's profile
  status         show local session state without calling the backend
  daily          show today's scripture and devotional
  checkin        submit an emotional check-in
  recent         list recent check-ins
  chat           send a chat message
  conversations  list chat conversations
  history        show messages of one conversation
  signout        sign out and clear stored credentials
  delete-account permanently delete the account
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	log := logger.New("graceguide", cfg.LogLevel)
	ctx := context.Background()

	cs, err := openStore(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	mgr := session.NewManager(cs, log)
	mgr.Load(ctx)
	invalidated := mgr.Invalidated()

	client := api.New(api.Config{
		BaseURL:        cfg.APIBaseURL,
		HTTP:           httpConfig(cfg),
		RefreshTimeout: cfg.RefreshTimeout,
	}, mgr, log)

	app := &cli{cfg: cfg, client: client, session: mgr, logger: log}

	err = app.run(ctx, os.Args[1], os.Args[2:])

	// A terminal auth failure may have cleared the session mid-command.
	select {
	case <-invalidated:
		fmt.Fprintln(os.Stderr, "session expired: please sign in again")
	default:
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) (store.CredentialStore, error) {
	if cfg.CredentialsPath == "" {
		return store.NewMemory(), nil
	}
	key, err := store.LoadOrCreateKey(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("credential key: %w", err)
	}
	return store.NewFile(cfg.CredentialsPath, key)
}

type cli struct {
	cfg     *config.Config
	client  *api.Client
	session *session.Manager
	logger  *slog.Logger
}

func (c *cli) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "signin":
		return c.signIn(ctx, args)
	case "me":
		return c.me(ctx)
	case "status":
		return c.status()
	case "daily":
		return c.daily(ctx, args)
	case "checkin":
		return c.checkIn(ctx, args)
	case "recent":
		return c.recent(ctx, args)
	case "chat":
		return c.chat(ctx, args)
	case "conversations":
		return c.conversations(ctx, args)
	case "history":
		return c.history(ctx, args)
	case "signout":
		return c.signOut(ctx)
	case "delete-account":
		return c.deleteAccount(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (c *cli) signIn(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signin", flag.ExitOnError)
	provider := fs.String("provider", "google", "identity provider: google or apple")
	token := fs.String("token", "", "provider identity token")
	_ = fs.Parse(args)

	if *token == "" {
		return fmt.Errorf("-token is required")
	}

	var (
		resp *domain.AuthResponse
		err  error
	)
	switch *provider {
	case "google":
		resp, err = c.client.LoginWithGoogle(ctx, *token)
	case "apple":
		resp, err = c.client.LoginWithApple(ctx, *token)
	default:
		return fmt.Errorf("unknown provider %q", *provider)
	}
	if err != nil {
		return err
	}

	if err := c.session.SignIn(ctx, resp.User, resp.Tokens()); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	fmt.Printf("signed in as %s (%s)\n", resp.User.Name, resp.User.Email)
	return nil
}

func (c *cli) me(ctx context.Context) error {
	user, err := c.client.GetUser(ctx)
	if err != nil {
		return err
	}
	if err := c.session.StoreUser(ctx, *user); err != nil {
		c.logger.Warn("profile cache update failed", slog.String("error", err.Error()))
	}
	return printJSON(user)
}

func (c *cli) status() error {
	sess := c.session.Current()
	if !sess.SignedIn() {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("signed in as %s (%s)\n", sess.User.Name, sess.User.Email)
	return nil
}

func (c *cli) daily(ctx context.Context, args []string) error {
	what := "scripture"
	if len(args) > 0 {
		what = args[0]
	}
	switch what {
	case "scripture":
		v, err := c.client.DailyScripture(ctx)
		if err != nil {
			return err
		}
		return printJSON(v)
	case "verse":
		v, err := c.client.DailyVerse(ctx)
		if err != nil {
			return err
		}
		return printJSON(v)
	case "devotional":
		v, err := c.client.DailyDevotional(ctx)
		if err != nil {
			return err
		}
		return printJSON(v)
	default:
		return fmt.Errorf("unknown daily content %q", what)
	}
}

func (c *cli) checkIn(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkin", flag.ExitOnError)
	emotions := fs.String("emotions", "", "comma-separated emotions, e.g. anxious,hopeful")
	tone := fs.String("tone", string(domain.ToneGentle), "guidance tone: gentle, encouraging, or direct")
	_ = fs.Parse(args)

	if *emotions == "" {
		return fmt.Errorf("-emotions is required")
	}
	var parsed []domain.Emotion
	for _, e := range strings.Split(*emotions, ",") {
		if e = strings.TrimSpace(e); e != "" {
			parsed = append(parsed, domain.Emotion(e))
		}
	}

	ci, err := c.client.SubmitCheckIn(ctx, domain.CheckInInput{
		Emotions: parsed,
		Tone:     domain.Tone(*tone),
	})
	if err != nil {
		return err
	}
	return printJSON(ci)
}

func (c *cli) recent(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("recent", flag.ExitOnError)
	limit := fs.Int("limit", 10, "page size")
	offset := fs.Int("offset", 0, "page offset")
	_ = fs.Parse(args)

	list, err := c.client.RecentCheckIns(ctx, *limit, *offset)
	if err != nil {
		return err
	}
	return printJSON(list)
}

func (c *cli) chat(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	message := fs.String("message", "", "message to send")
	conversation := fs.String("conversation", "", "conversation to continue (empty starts a new one)")
	includeContext := fs.Bool("context", false, "ground the reply in recent check-ins")
	_ = fs.Parse(args)

	if *message == "" {
		return fmt.Errorf("-message is required")
	}

	reply, err := c.client.SendChatMessage(ctx, domain.ChatInput{
		Message:        *message,
		ConversationID: *conversation,
		IncludeContext: *includeContext,
	})
	if err != nil {
		return err
	}
	return printJSON(reply)
}

func (c *cli) conversations(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("conversations", flag.ExitOnError)
	limit := fs.Int("limit", 20, "page size")
	offset := fs.Int("offset", 0, "page offset")
	_ = fs.Parse(args)

	list, err := c.client.ListConversations(ctx, *limit, *offset)
	if err != nil {
		return err
	}
	return printJSON(list)
}

func (c *cli) history(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	conversation := fs.String("conversation", "", "conversation ID")
	limit := fs.Int("limit", 50, "page size")
	before := fs.String("before", "", "pagination cursor from a previous page")
	_ = fs.Parse(args)

	if *conversation == "" {
		return fmt.Errorf("-conversation is required")
	}

	history, err := c.client.ConversationHistory(ctx, *conversation, *limit, *before)
	if err != nil {
		return err
	}
	return printJSON(history)
}

func (c *cli) signOut(ctx context.Context) error {
	if err := c.session.SignOut(ctx); err != nil {
		// Local state is already cleared; the stale store entry is the
		// only casualty.
		c.logger.Warn("credential cleanup incomplete", slog.String("error", err.Error()))
	}
	fmt.Println("signed out")
	return nil
}

func (c *cli) deleteAccount(ctx context.Context) error {
	if err := c.client.DeleteAccount(ctx); err != nil {
		return err
	}
	if err := c.session.SignOut(ctx); err != nil {
		c.logger.Warn("credential cleanup incomplete", slog.String("error", err.Error()))
	}
	fmt.Println("account deleted")
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func httpConfig(cfg *config.Config) httpclient.Config {
	hc := httpclient.DefaultConfig()
	hc.Timeout = cfg.RequestTimeout
	return hc
}
