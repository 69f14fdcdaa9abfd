package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Ping(ctx context.Context) error
	Register(ctx context.Context) error
	ResendOTP(ctx context.Context) error
	Verify(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	RequestCompanyVerification(ctx context.Context) error
	ConfirmCompanyVerification(ctx context.Context) error
	Upload(ctx context.Context) error
	Documents(ctx context.Context) error
	Download(ctx context.Context) error
}

// runREPL reads one command per line from reader and dispatches it to a.
// The loop exits on EOF, on context cancellation or when the user types
// "exit" or "quit".
//
//	Not logged in:
//	  - register      : create an account (role-specific prompts)
//	  - resend        : send a fresh verification code
//	  - verify        : confirm the emailed code
//	  - login         : authenticate
//	  - forgot, reset : password reset flow
//
//	Logged in:
//	  - company-verify, company-confirm : verify company contact email
//	  - upload, docs, download          : company documents
//	  - logout
//
//	Always: help, ping, exit | quit
//
// Errors returned by command handlers are already reported to the user by
// the handlers themselves.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}

		printlnFn(fmt.Sprintf("eg %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: company-verify, company-confirm, upload, docs, download, ping, logout, exit")
			} else {
				printlnFn("Available commands: register, resend, verify, login, forgot, reset, ping, exit")
			}

		case "ping":
			_ = a.Ping(ctx)
		case "register":
			_ = a.Register(ctx)
		case "resend":
			_ = a.ResendOTP(ctx)
		case "verify":
			_ = a.Verify(ctx)
		case "login":
			_ = a.Login(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "forgot":
			_ = a.ForgotPassword(ctx)
		case "reset":
			_ = a.ResetPassword(ctx)
		case "company-verify":
			_ = a.RequestCompanyVerification(ctx)
		case "company-confirm":
			_ = a.ConfirmCompanyVerification(ctx)
		case "upload":
			_ = a.Upload(ctx)
		case "docs":
			_ = a.Documents(ctx)
		case "download":
			_ = a.Download(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
