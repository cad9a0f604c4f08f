package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temple-tools/dvarapala/internal/budget"
	"github.com/temple-tools/dvarapala/internal/gate"
	"github.com/temple-tools/dvarapala/internal/notify"
	"github.com/temple-tools/dvarapala/internal/oracle"
	"github.com/temple-tools/dvarapala/internal/questions"
	"github.com/temple-tools/dvarapala/internal/scoring"
	"github.com/temple-tools/dvarapala/internal/session"
	"github.com/temple-tools/dvarapala/internal/store"
	"github.com/temple-tools/dvarapala/internal/suspicion"
	"github.com/temple-tools/dvarapala/internal/transport"
	"github.com/temple-tools/dvarapala/internal/web"
)

var (
	serveAddr       string
	serveCommunity  string
	serveDBPath     string
	serveConfigFile string
	serveQuestions  string
	serveAIConfig   string
	serveDev        bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Status/keep-alive HTTP listen address")
	serveCmd.Flags().StringVar(&serveCommunity, "community", "", "Community id (defaults to $COMMUNITY_ID)")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "dvarapala.db", "SQLite config database path")
	serveCmd.Flags().StringVar(&serveConfigFile, "config-file", "dvarapala.json", "JSON config fallback path")
	serveCmd.Flags().StringVar(&serveQuestions, "questions", "", "Question bank YAML path (built-in bank when empty)")
	serveCmd.Flags().StringVar(&serveAIConfig, "ai-config", "", "Oracle settings YAML path (env credentials when empty)")
	serveCmd.Flags().BoolVar(&serveDev, "dev", false, "Human-readable logging")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admission service",
	Long: "Runs the admission pipeline with the status HTTP server and hot-reload\n" +
		"of the question bank and oracle settings. A console gateway on stdin\n" +
		"stands in for the chat platform until a real gateway is attached: joins,\n" +
		"DMs, and admin commands are typed as lines, outbound messages go to stdout.",
	RunE: runServe,
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runServe(cmd *cobra.Command, args []string) error {
	log, err := newLogger(serveDev)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	communityID := serveCommunity
	if communityID == "" {
		communityID = os.Getenv("COMMUNITY_ID")
	}
	if communityID == "" {
		return fmt.Errorf("community id required (--community or $COMMUNITY_ID)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Configuration store.
	backend := store.Open(log, serveDBPath, serveConfigFile)
	defer func() { _ = backend.Close() }()
	cfgService, err := store.NewService(ctx, backend, communityID)
	if err != nil {
		return fmt.Errorf("load community config: %w", err)
	}

	// Question bank.
	qs, err := questions.NewStore(serveQuestions)
	if err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}

	// Oracle, shared keyring, and daily budget.
	oracleSvc, oracleCfg, err := oracle.NewService(serveAIConfig)
	if err != nil {
		return fmt.Errorf("load oracle config: %w", err)
	}
	tracker := budget.NewTracker(oracleCfg.DailyLimit)
	reloadOracle := func() error {
		cfg, err := oracleSvc.Reload()
		if err != nil {
			return err
		}
		tracker.SetLimit(cfg.DailyLimit)
		return nil
	}

	// Pipeline wiring. The console messenger stands in until a chat
	// gateway is attached.
	messenger := transport.NewConsoleMessenger(os.Stdout)
	notifier := notify.New(log, messenger, cfgService.Current)
	sessions := session.NewManager(session.Config{
		Log:       log,
		Assessor:  suspicion.NewScorer(log, oracleSvc, oracleSvc.Keys(), tracker),
		Selector:  bankSelector{qs},
		Scorer:    scoring.NewScorer(log, oracleSvc, oracleSvc.Keys(), tracker),
		Messenger: messenger,
		Notifier:  notifier,
		Policy:    policyFromConfig(cfgService),
	})
	g := gate.New(gate.Config{
		Log:          log,
		Sessions:     sessions,
		Store:        cfgService,
		Questions:    qs,
		Admin:        consoleAdmin{},
		ReloadOracle: reloadOracle,
	})
	go runConsole(ctx, log, g, os.Stdin, os.Stdout)

	// Hot reload for the question bank and oracle settings.
	if reloader, err := questions.NewReloader(log, func() error {
		if err := qs.Reload(); err != nil {
			return err
		}
		return reloadOracle()
	}, serveQuestions, serveAIConfig); err != nil {
		log.Warn("hot-reload disabled", zap.Error(err))
	} else if len(reloader.Paths()) > 0 {
		go func() { _ = reloader.Run(ctx) }()
		log.Info("hot-reload enabled", zap.Strings("paths", reloader.Paths()))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
	}()

	if !cfgService.Configured() {
		log.Warn("community not configured; joins are blocked until setup runs")
	}

	srv := web.New(log, serveAddr, sessions, tracker, qs)
	return srv.Run(ctx)
}

// bankSelector adapts the question store to the session manager.
type bankSelector struct{ qs *questions.Store }

func (b bankSelector) Select(score int) []string {
	return questions.Select(b.qs.Snapshot(), score)
}

// policyFromConfig derives the decision policy from the live community
// configuration.
func policyFromConfig(svc *store.Service) func() session.Policy {
	return func() session.Policy {
		cfg := svc.Current()
		devotee, seeker := cfg.Thresholds()
		return session.Policy{
			DevoteeMin:       devotee,
			SeekerMin:        seeker,
			DevoteeRoleID:    cfg.DevoteeRoleID,
			SeekerRoleID:     cfg.SeekerRoleID,
			RestrictedRoleID: cfg.RestrictedRoleID,
		}
	}
}
