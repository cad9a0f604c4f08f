package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temple-tools/dvarapala/internal/budget"
	"github.com/temple-tools/dvarapala/internal/gate"
	"github.com/temple-tools/dvarapala/internal/model"
	"github.com/temple-tools/dvarapala/internal/notify"
	"github.com/temple-tools/dvarapala/internal/oracle"
	"github.com/temple-tools/dvarapala/internal/questions"
	"github.com/temple-tools/dvarapala/internal/scoring"
	"github.com/temple-tools/dvarapala/internal/session"
	"github.com/temple-tools/dvarapala/internal/store"
	"github.com/temple-tools/dvarapala/internal/suspicion"
	"github.com/temple-tools/dvarapala/internal/transport"
)

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.AddCommand(interviewCmd)
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run demonstration scenarios",
}

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run two canned interviews (a sincere seeker must pass, a troll must not)",
	RunE:  runInterviewDemo,
}

type demoApplicant struct {
	userID  string
	ageDays int
	answers []string
}

func runInterviewDemo(cmd *cobra.Command, args []string) error {
	fmt.Println("=== dvarapala interview demo ===")
	fmt.Println("Purpose: the rule-based scorer alone must separate a sincere seeker from a troll.")
	fmt.Println()

	log := zap.NewNop()
	ctx := context.Background()

	// In-memory wiring: file store in a temp dir, built-in question bank,
	// no oracle credentials so scoring exercises the degraded path.
	tmpDir, err := os.MkdirTemp("", "dvarapala-demo-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	backend := store.OpenFile(tmpDir + "/config.json")
	cfgService, err := store.NewService(ctx, backend, "demo-community")
	if err != nil {
		return fmt.Errorf("config service: %w", err)
	}

	qs, err := questions.NewStore("")
	if err != nil {
		return fmt.Errorf("question bank: %w", err)
	}

	keys := oracle.NewKeyring("", "")
	tracker := budget.NewTracker(budget.DefaultDailyLimit)
	messenger := transport.NewConsoleMessenger(os.Stdout)
	sessions := session.NewManager(session.Config{
		Log:       log,
		Assessor:  suspicion.NewScorer(log, nil, keys, tracker),
		Selector:  bankSelector{qs},
		Scorer:    scoring.NewScorer(log, nil, keys, tracker),
		Messenger: messenger,
		Notifier:  notify.New(log, messenger, cfgService.Current),
		Policy:    policyFromConfig(cfgService),
	})
	g := gate.New(gate.Config{
		Log:       log,
		Sessions:  sessions,
		Store:     cfgService,
		Questions: qs,
		Admin:     consoleAdmin{},
	})

	if _, err := g.Setup(ctx, consoleActor, store.Config{
		DevoteeRoleID:         "devotee",
		SeekerRoleID:          "seeker",
		VerificationChannelID: "verification",
		AdminChannelID:        "admin",
	}); err != nil {
		return fmt.Errorf("demo setup: %w", err)
	}

	applicants := []demoApplicant{
		{
			userID:  "sincere-seeker",
			ageDays: 200,
			answers: []string{
				"A friend invited me and I felt peace at the temple",
				"Chanting gives me a deep sense of connection and gratitude",
				"I deeply respect Srila Prabhupada and want to learn from his teachings",
				"I would listen humbly and try to understand the correction",
			},
		},
		{
			userID:  "troll",
			ageDays: 0,
			answers: []string{
				"we are all god anyway",
				"lol",
				"this is just mythology for gullible people",
				"prove it",
			},
		},
	}

	for _, a := range applicants {
		fmt.Printf("--- interview: %s (account age %dd) ---\n", a.userID, a.ageDays)
		if err := g.OnMemberJoin(ctx, consoleProfile(a.userID, a.ageDays)); err != nil {
			return fmt.Errorf("join %s: %w", a.userID, err)
		}
		for _, answer := range a.answers {
			fmt.Printf("[%s] %s\n", a.userID, answer)
			if _, err := g.OnDirectMessage(ctx, a.userID, answer); err != nil {
				return fmt.Errorf("answer from %s: %w", a.userID, err)
			}
		}

		s, _ := sessions.Get(a.userID)
		score := -1
		if s.FinalScore != nil {
			score = *s.FinalScore
		}
		fmt.Printf("result: status=%s role=%s score=%d suspicion=%d/4\n\n",
			s.Status, s.AssignedRole, score, s.Suspicion.Score)
	}

	seeker, _ := sessions.Get("sincere-seeker")
	troll, _ := sessions.Get("troll")
	if seeker.Status != model.StatusApproved && seeker.Status != model.StatusConditional {
		return fmt.Errorf("DEMO FAILED: sincere seeker was not admitted (%s)", seeker.Status)
	}
	if troll.Status == model.StatusApproved || troll.Status == model.StatusConditional {
		return fmt.Errorf("DEMO FAILED: troll was admitted (%s)", troll.Status)
	}

	fmt.Println("=== demo passed: seeker admitted, troll kept out ===")
	return nil
}
