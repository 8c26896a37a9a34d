/**
 * @description
 * PolyDebate terminal client.
 * Browse markets, sign in with an email code, launch debates and follow them
 * live from the shell. State (token, user, favorites, sign-in flow) is kept in
 * a JSON file so it survives between invocations.
 *
 * @dependencies
 * - github.com/spf13/cobra: Command tree
 * - frontend/internal/services: Same services the web front uses
 * - frontend/internal/session: File-backed session store
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/polydebate/frontend/internal/config"
	"github.com/polydebate/frontend/internal/logger"
	"github.com/polydebate/frontend/internal/polydebate"
	"github.com/polydebate/frontend/internal/services"
	"github.com/polydebate/frontend/internal/session"
	"github.com/spf13/cobra"
)

// cliSessionID is the only session a state file holds
const cliSessionID = "cli"

// skipBootstrap marks commands that must not validate the stored token first
const skipBootstrap = "skip-bootstrap"

// app is the wiring shared by all commands of one invocation
type app struct {
	cfg       *config.Config
	api       *polydebate.Client
	sess      *session.Session
	markets   *services.MarketService
	debates   *services.DebateService
	auth      *services.AuthService
	favorites *services.FavoritesService
	profile   *services.ProfileService
}

type rootFlags struct {
	apiURL    string
	stateFile string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	var (
		flags rootFlags
		a     = &app{}
	)

	root := &cobra.Command{
		Use:   "polydebate",
		Short: "PolyDebate - AI models debate prediction markets",
		Long: `PolyDebate terminal client.

Browse prediction markets, pick AI models, and watch them debate the outcome
round by round. Sign in with a one-time code sent to your email.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.init(flags); err != nil {
				return err
			}
			if cmd.Annotations[skipBootstrap] != "" {
				return nil
			}
			if _, err := a.sess.Bootstrap(cmd.Context(), a.api); err != nil {
				logger.Warn("Could not validate stored session: %v", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&flags.apiURL, "api", "", "backend base URL (default $POLYDEBATE_API_URL)")
	root.PersistentFlags().StringVar(&flags.stateFile, "state", "", "state file (default $CLI_STATE_FILE)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newMarketsCmd(a),
		newBreakingCmd(a),
		newModelsCmd(a),
		newLoginCmd(a, services.AuthLogin),
		newLoginCmd(a, services.AuthSignup),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newDebateCmd(a),
		newWatchCmd(a),
		newFavoritesCmd(a),
		newProfileCmd(a),
	)
	return root
}

func (a *app) init(flags rootFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if flags.apiURL != "" {
		cfg.API.BaseURL = strings.TrimRight(flags.apiURL, "/")
	}
	if flags.stateFile != "" {
		cfg.CLI.StateFile = flags.stateFile
	}

	level := cfg.Server.LogLevel
	if flags.verbose {
		level = "debug"
	} else if level == "info" {
		// keep progress logs off the terminal unless asked for
		level = "warn"
	}
	logger.SetLevel(level)

	a.cfg = cfg
	a.api = polydebate.NewClient(cfg)
	manager := session.NewManager(session.NewFileStore(cfg.CLI.StateFile))
	a.sess = manager.Session(cliSessionID)

	a.markets = services.NewMarketService(a.api, nil, cfg)
	a.debates = services.NewDebateService(a.api, a.markets)
	a.auth = services.NewAuthService(a.api)
	a.favorites = services.NewFavoritesService(a.api)
	a.profile = services.NewProfileService(a.api, nil)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}
