package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Update(ctx context.Context) error
	Passwd(ctx context.Context) error
	Forgot(ctx context.Context) error
	Reset(ctx context.Context) error
}

func (a *App) isLoggedIn() bool {
	return a.auth.IsAuthenticated()
}

func (a *App) getStatus() string {
	s := a.auth.Current()
	if s.Authenticated() {
		return fmt.Sprintf("(%s)", s.User.Email)
	}
	return ""
}

// Root starts the interactive loop over stdin. It returns when the user
// exits or stdin is closed.
func (a *App) Root(ctx context.Context) {
	printlnFn("Lumina CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

// runREPL reads a line from the scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
//	Not signed in:
//	  - help           — show available commands
//	  - signup         — create an account
//	  - login          — authenticate
//	  - forgot         — request a password reset email
//	  - reset          — finish the reset with the mailed token
//	  - exit | quit    — leave the program
//
//	Signed in:
//	  - help           — show available commands
//	  - whoami         — show the current profile
//	  - update         — edit profile fields
//	  - passwd         — change the password
//	  - logout         — sign out
//	  - exit | quit    — leave the program
//
// Errors returned by command handlers are ignored here; failures have
// already been reported through the notification sink. This keeps the REPL
// loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("lumina %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, update, passwd, logout, exit")
			} else {
				printlnFn("Available commands: signup, login, forgot, reset, exit")
			}

		case "signup":
			_ = a.Signup(ctx)

		case "login":
			_ = a.Login(ctx)

		case "forgot":
			_ = a.Forgot(ctx)

		case "reset":
			_ = a.Reset(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "update":
			_ = a.Update(ctx)

		case "passwd":
			_ = a.Passwd(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
