package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temple-tools/dvarapala/internal/gate"
	"github.com/temple-tools/dvarapala/internal/model"
	"github.com/temple-tools/dvarapala/internal/store"
)

// consoleAdmin treats the local operator as an administrator.
type consoleAdmin struct{}

func (consoleAdmin) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return userID == consoleActor, nil
}

const consoleActor = "console"

const consoleHelp = `commands:
  setup <devotee-role> <seeker-role> <verify-channel> [admin-channel]
  join <user-id> [account-age-days]
  dm <user-id> <message>
  verify <user-id>
  verify-for <user-id>
  stats | reload-questions | reload-ai | reset-config
  help | quit`

// runConsole reads gateway events from r until EOF or ctx cancellation.
// It stands in for the chat platform: joins, DMs, and admin commands are
// typed as lines instead of arriving over a gateway connection.
func runConsole(ctx context.Context, log *zap.Logger, g *gate.Gate, r io.Reader, w io.Writer) {
	scanner := bufio.NewScanner(r)
	fmt.Fprintln(w, consoleHelp)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		reply, err := dispatchConsole(ctx, g, cmd, args)
		if cmd == "quit" || cmd == "exit" {
			return
		}
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			continue
		}
		if reply != "" {
			fmt.Fprintln(w, reply)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warn("console input error", zap.Error(err))
	}
}

func dispatchConsole(ctx context.Context, g *gate.Gate, cmd string, args []string) (string, error) {
	switch cmd {
	case "help":
		return consoleHelp, nil
	case "quit", "exit":
		return "", nil

	case "setup":
		if len(args) < 3 {
			return "", fmt.Errorf("usage: setup <devotee-role> <seeker-role> <verify-channel> [admin-channel]")
		}
		cfg := store.Config{
			DevoteeRoleID:         args[0],
			SeekerRoleID:          args[1],
			VerificationChannelID: args[2],
		}
		if len(args) > 3 {
			cfg.AdminChannelID = args[3]
		}
		return g.Setup(ctx, consoleActor, cfg)

	case "join":
		if len(args) < 1 {
			return "", fmt.Errorf("usage: join <user-id> [account-age-days]")
		}
		ageDays := 100
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return "", fmt.Errorf("bad account age %q", args[1])
			}
			ageDays = n
		}
		p := consoleProfile(args[0], ageDays)
		if err := g.OnMemberJoin(ctx, p); err != nil {
			return "", err
		}
		return fmt.Sprintf("verification opened for %s", p.UserID), nil

	case "dm":
		if len(args) < 2 {
			return "", fmt.Errorf("usage: dm <user-id> <message>")
		}
		handled, err := g.OnDirectMessage(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return "", err
		}
		if !handled {
			return "no pending session for " + args[0], nil
		}
		return "", nil

	case "verify":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: verify <user-id>")
		}
		return g.Verify(ctx, consoleProfile(args[0], 100))

	case "verify-for":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: verify-for <user-id>")
		}
		return g.VerifyFor(ctx, consoleActor, consoleProfile(args[0], 100))

	case "stats":
		return g.QuestionStats(ctx, consoleActor)
	case "reload-questions":
		return g.ReloadQuestions(ctx, consoleActor)
	case "reload-ai":
		return g.ReloadAIConfig(ctx, consoleActor)
	case "reset-config":
		return g.ResetConfig(ctx, consoleActor)

	default:
		return "", fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func consoleProfile(userID string, ageDays int) model.Profile {
	now := time.Now()
	return model.Profile{
		UserID:    userID,
		Username:  userID,
		CreatedAt: now.Add(-time.Duration(ageDays) * 24 * time.Hour),
		JoinedAt:  now,
		HasAvatar: true,
	}
}
