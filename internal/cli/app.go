// Package cli is the interactive terminal client: a command loop over the
// session, profile, collection, and search workflows.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	appflow "scentara/internal/app"
	"scentara/internal/collection"
	"scentara/internal/config"
	"scentara/internal/gateway"
	"scentara/internal/profile"
	"scentara/internal/search"
	"scentara/internal/session"
	"scentara/internal/supabase"
)

type App struct {
	cfg *config.Config
	log *slog.Logger

	session  *session.Session
	profiles *profile.Service
	manager  *collection.Manager
	catalog  gateway.CatalogGateway
	browser  *search.Browser
	flow     *appflow.App

	reader *bufio.Reader
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	var sess *session.Session
	client, err := supabase.New(supabase.Config{
		URL:        cfg.SupabaseURL,
		AnonKey:    cfg.SupabaseAnonKey,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
		TokenSource: func() string {
			if sess == nil {
				return ""
			}
			return sess.Token()
		},
	})
	if err != nil {
		return nil, err
	}

	sess = session.New(gateway.NewAuthGateway(client), logger)
	profiles := profile.NewService(gateway.NewProfileGateway(client), logger)
	manager := collection.NewManager(gateway.NewCollectionGateway(client), logger)
	catalog := gateway.NewCatalogGateway(client)
	browser := search.NewBrowser(catalog, logger, search.Config{
		Debounce:    cfg.SearchDebounce,
		SearchLimit: cfg.SearchLimit,
		SampleLimit: cfg.SampleLimit,
	})

	return &App{
		cfg:      cfg,
		log:      logger,
		session:  sess,
		profiles: profiles,
		manager:  manager,
		catalog:  catalog,
		browser:  browser,
		flow:     appflow.New(sess, profiles, manager, logger),
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	a.flow.Start(ctx)
	defer a.flow.Stop()
	defer a.browser.Stop()

	a.session.Init(ctx, a.cfg.AccessToken)
	if identity := a.session.Identity(); identity != nil {
		fmt.Printf("Signed in as %s\n", identity.Email)
	}

	fmt.Println("Type 'help' for commands.")

	for {
		fmt.Print("> ")
		line, err := a.reader.ReadString('\n')
		if err != nil {
			return
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			a.printHelp()
		case "signup":
			a.signUp(ctx)
		case "signin":
			a.signIn(ctx)
		case "signout":
			a.signOut(ctx)
		case "reset-password":
			a.resetPassword(ctx)
		case "whoami":
			a.whoAmI()
		case "profile":
			a.profileCmd(ctx, args)
		case "browse":
			a.browse(ctx, args)
		case "search":
			a.search(ctx, args)
		case "show":
			a.show(ctx, args)
		case "collections":
			a.collectionsCmd(ctx, args)
		case "quit", "exit":
			return
		default:
			fmt.Printf("Unknown command %q. Type 'help' for commands.\n", cmd)
		}
	}
}

func (a *App) printHelp() {
	fmt.Println(`Commands:
  signup                       create an account
  signin                       sign in with email and password
  signout                      sign out
  reset-password               request a password recovery email
  whoami                       show the current identity
  profile show|complete|edit   profile completion and editing
  browse [refresh]             show the catalog sample
  search <text>                search the catalog by name
  show <perfume-id>            show one perfume
  collections ...              manage collections (run without args for usage)
  quit`)
}

func (a *App) readLine(prompt string) string {
	fmt.Print(prompt)
	line, err := a.reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}
