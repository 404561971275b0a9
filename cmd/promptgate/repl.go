// ABOUTME: Interactive session loop for promptgate serve
// ABOUTME: Plain lines go to the active backend, slash commands manage state

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/2389/promptgate/internal/access"
	"github.com/2389/promptgate/internal/conversation"
	"github.com/2389/promptgate/internal/prompt"
	"github.com/2389/promptgate/internal/provider"
	"github.com/2389/promptgate/internal/store"
)

// turnTimeout bounds a single inference round trip
const turnTimeout = 120 * time.Second

type repl struct {
	userID   string
	svc      *conversation.Service
	resolver *prompt.Resolver
	registry *provider.Registry
	gate     *access.Gate
	store    store.Store
}

func (r *repl) run(ctx context.Context) error {
	gray := color.New(color.FgHiBlack)
	gray.Println("Type a message to chat, /help for commands, /quit to exit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for {
		fmt.Printf("%s> ", r.userID)

		// Scan in a goroutine so Ctrl-C interrupts the prompt
		lineCh := make(chan string, 1)
		errCh := make(chan error, 1)
		go func() {
			if !scanner.Scan() {
				errCh <- scanner.Err()
				return
			}
			lineCh <- scanner.Text()
		}()

		var line string
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case err := <-errCh:
			fmt.Println()
			return err
		case line = <-lineCh:
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := r.dispatch(ctx, line); quit {
				return nil
			}
			continue
		}

		r.chat(ctx, line)
	}
}

// dispatch handles one slash command. Returns true to end the session.
func (r *repl) dispatch(ctx context.Context, line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		r.printHelp()
	case "/chat":
		if rest == "" {
			color.Yellow("Usage: /chat <message>")
			return false
		}
		r.chat(ctx, rest)
	case "/system":
		r.cmdSystem(ctx, rest)
	case "/systemlist":
		r.cmdSystemList(ctx)
	case "/reuse":
		r.cmdReuse(ctx, rest)
	case "/resetsystem":
		r.cmdResetSystem(ctx)
	case "/forcesystem":
		r.cmdForceSystem(ctx)
	case "/unlocksystem":
		r.cmdUnlockSystem(ctx)
	case "/provider":
		r.cmdProvider(ctx, rest)
	case "/status":
		r.cmdStatus(ctx)
	case "/grant":
		r.cmdGrant(ctx, rest)
	case "/revoke":
		r.cmdRevoke(ctx, rest)
	case "/check":
		r.cmdCheck(ctx, rest)
	default:
		color.Yellow("Unknown command: %s (try /help)", cmd)
	}
	return false
}

func (r *repl) printHelp() {
	yellow := color.New(color.FgYellow)
	yellow.Println("Commands:")
	fmt.Println("  /system <text>      Set your custom system prompt")
	fmt.Println("  /systemlist         List your prompt history")
	fmt.Println("  /reuse <id>         Reactivate a prompt from your history")
	fmt.Println("  /resetsystem        Return to the default prompt")
	fmt.Println("  /provider [name]    Show or switch the active provider")
	fmt.Println("  /status             Show session status")
	fmt.Println("  /quit               End the session")
	fmt.Println()
	yellow.Println("Admin commands:")
	fmt.Println("  /forcesystem        Force the default prompt for everyone")
	fmt.Println("  /unlocksystem       Lift the forced default")
	fmt.Println("  /grant <id> [lvl]   Grant standard or admin access")
	fmt.Println("  /revoke <id>        Revoke a user's access")
	fmt.Println("  /check <id>         Show a user's permission level")
}

func (r *repl) chat(ctx context.Context, input string) {
	turnCtx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	sel := r.registry.Active()
	gray := color.New(color.FgHiBlack)
	gray.Printf("[%s · %s]\n", sel.DisplayName, sel.Params.Model)

	resp, err := r.svc.SingleTurn(turnCtx, r.userID, input)
	if err != nil {
		r.printError(err)
		return
	}

	fmt.Println(resp.Text)
	fmt.Println()
}

func (r *repl) cmdSystem(ctx context.Context, text string) {
	if text == "" {
		color.Yellow("Usage: /system <prompt text>")
		return
	}
	if err := r.gate.Authorize(ctx, r.userID, store.PermissionStandard); err != nil {
		r.printError(err)
		return
	}

	rec, err := r.resolver.SetPrompt(ctx, r.userID, text)
	if err != nil {
		r.printError(err)
		return
	}

	color.Green("System prompt set (id %s)", rec.ID)

	state, err := r.resolver.ForceState(ctx)
	if err == nil && state.Enabled {
		color.Yellow("Note: the default prompt is currently forced; your prompt takes effect after unlock.")
	}
}

func (r *repl) cmdSystemList(ctx context.Context) {
	if err := r.gate.Authorize(ctx, r.userID, store.PermissionStandard); err != nil {
		r.printError(err)
		return
	}

	records, err := r.resolver.ListHistory(ctx, r.userID)
	if err != nil {
		r.printError(err)
		return
	}

	if len(records) == 0 {
		fmt.Println("No prompt history. Set one with /system <text>.")
		return
	}

	for _, rec := range records {
		marker := "  "
		if rec.Active {
			marker = color.GreenString("* ")
		}
		fmt.Printf("%s%s  %s  %s\n",
			marker,
			rec.ID,
			color.HiBlackString(formatAge(rec.CreatedAt)),
			truncatePreview(rec.Content, 60))
	}
}

func (r *repl) cmdReuse(ctx context.Context, id string) {
	if id == "" {
		color.Yellow("Usage: /reuse <prompt id>")
		return
	}
	if err := r.gate.Authorize(ctx, r.userID, store.PermissionStandard); err != nil {
		r.printError(err)
		return
	}

	rec, err := r.resolver.ReusePrompt(ctx, r.userID, id)
	if err != nil {
		r.printError(err)
		return
	}

	color.Green("Reactivated prompt %s", rec.ID)
	fmt.Println(truncatePreview(rec.Content, 80))
}

func (r *repl) cmdResetSystem(ctx context.Context) {
	if err := r.gate.Authorize(ctx, r.userID, store.PermissionStandard); err != nil {
		r.printError(err)
		return
	}

	if err := r.resolver.ResetPrompt(ctx, r.userID); err != nil {
		r.printError(err)
		return
	}
	color.Green("System prompt reset to default")
}

func (r *repl) cmdForceSystem(ctx context.Context) {
	if err := r.resolver.ForceDefault(ctx, r.userID); err != nil {
		r.printError(err)
		return
	}
	color.Green("Default prompt forced for all users")
}

func (r *repl) cmdUnlockSystem(ctx context.Context) {
	if err := r.resolver.Unlock(ctx, r.userID); err != nil {
		r.printError(err)
		return
	}
	color.Green("Forced default lifted; custom prompts are back in effect")
}

func (r *repl) cmdProvider(ctx context.Context, name string) {
	if name == "" {
		active := r.registry.Active()
		for _, info := range r.registry.List() {
			marker := "  "
			if info.ID == active.Provider {
				marker = color.GreenString("* ")
			}
			fmt.Printf("%s%-10s %s (%s)\n", marker, info.ID, info.DisplayName, info.Params.Model)
		}
		return
	}

	// Switching is an admin action; listing above is open to everyone
	if err := r.gate.Authorize(ctx, r.userID, store.PermissionAdmin); err != nil {
		r.printError(err)
		return
	}

	if err := r.registry.SetActive(provider.ID(name)); err != nil {
		r.printError(err)
		return
	}

	sel := r.registry.Active()
	color.Green("Switched to %s (%s)", sel.DisplayName, sel.Params.Model)
}

func (r *repl) cmdStatus(ctx context.Context) {
	sel := r.registry.Active()
	fmt.Printf("User:     %s\n", r.userID)
	fmt.Printf("Provider: %s (%s)\n", sel.DisplayName, sel.Params.Model)

	state, err := r.resolver.ForceState(ctx)
	if err != nil {
		r.printError(err)
		return
	}
	if state.Enabled {
		color.Yellow("Prompt:   default (forced by %s at %s)",
			state.SetBy, state.SetAt.Format(time.RFC3339))
		return
	}

	if rec, err := r.store.GetActivePrompt(ctx, r.userID); err == nil {
		fmt.Printf("Prompt:   custom (%s)\n", truncatePreview(rec.Content, 60))
	} else {
		fmt.Println("Prompt:   default")
	}
}

func (r *repl) cmdGrant(ctx context.Context, rest string) {
	target, levelStr, _ := strings.Cut(rest, " ")
	target = strings.TrimSpace(target)
	levelStr = strings.TrimSpace(levelStr)
	if target == "" {
		color.Yellow("Usage: /grant <user id> [standard|admin]")
		return
	}

	level := store.PermissionStandard
	switch levelStr {
	case "", "standard":
	case "admin":
		level = store.PermissionAdmin
	default:
		color.Yellow("Unknown level %q (use standard or admin)", levelStr)
		return
	}

	if err := r.gate.Authorize(ctx, r.userID, store.PermissionAdmin); err != nil {
		r.printError(err)
		return
	}

	if err := r.store.SetPermission(ctx, target, level); err != nil {
		r.printError(err)
		return
	}
	color.Green("Granted %s to %s", level, target)
}

func (r *repl) cmdRevoke(ctx context.Context, target string) {
	if target == "" {
		color.Yellow("Usage: /revoke <user id>")
		return
	}

	if err := r.gate.Authorize(ctx, r.userID, store.PermissionAdmin); err != nil {
		r.printError(err)
		return
	}

	if err := r.store.SetPermission(ctx, target, store.PermissionNone); err != nil {
		r.printError(err)
		return
	}
	color.Green("Revoked access for %s", target)
}

func (r *repl) cmdCheck(ctx context.Context, target string) {
	if target == "" {
		color.Yellow("Usage: /check <user id>")
		return
	}

	// Checking your own level is self-service; anyone else's requires admin
	required := store.PermissionAdmin
	if target == r.userID {
		required = store.PermissionStandard
	}
	if err := r.gate.Authorize(ctx, r.userID, required); err != nil {
		r.printError(err)
		return
	}

	level, err := r.store.GetPermission(ctx, target)
	if err != nil {
		r.printError(err)
		return
	}
	fmt.Printf("%s: %s\n", target, level)
}

// printError renders a failure in user terms without leaking detail
func (r *repl) printError(err error) {
	switch {
	case errors.Is(err, access.ErrPermissionDenied):
		color.Red("Permission denied.")
	case errors.Is(err, prompt.ErrPromptTooLong):
		color.Red("Prompt too long (max %d characters).", prompt.MaxPromptLength)
	case errors.Is(err, prompt.ErrBlockedByForceMode):
		color.Red("The default prompt is currently forced; reset is unavailable until an admin unlocks.")
	case errors.Is(err, store.ErrNotFound):
		color.Red("No such prompt in your history.")
	case errors.Is(err, provider.ErrUnknownProvider):
		color.Red("Unknown or disabled provider.")
	case errors.Is(err, provider.ErrUpstreamUnavailable):
		color.Red("The provider is unavailable right now; try again shortly.")
	default:
		color.Red("Error: %v", err)
	}
}
