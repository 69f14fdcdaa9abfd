package cli

import (
	"context"
	"testing"
)

type fakeExec struct {
	loggedIn bool

	calls []string
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	return nil
}

func (f *fakeExec) isLoggedIn() bool {
	return f.loggedIn
}

func (f *fakeExec) Ping(context.Context) error {
	return f.record("ping")
}

func (f *fakeExec) Register(context.Context) error {
	return f.record("register")
}

func (f *fakeExec) ResendOTP(context.Context) error {
	return f.record("resend")
}

func (f *fakeExec) Verify(context.Context) error {
	return f.record("verify")
}

func (f *fakeExec) ForgotPassword(context.Context) error {
	return f.record("forgot")
}

func (f *fakeExec) ResetPassword(context.Context) error {
	return f.record("reset")
}

func (f *fakeExec) RequestCompanyVerification(context.Context) error {
	return f.record("company-verify")
}

func (f *fakeExec) ConfirmCompanyVerification(context.Context) error {
	return f.record("company-confirm")
}

func (f *fakeExec) Upload(context.Context) error {
	return f.record("upload")
}

func (f *fakeExec) Documents(context.Context) error {
	return f.record("docs")
}

func (f *fakeExec) Download(context.Context) error {
	return f.record("download")
}

func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}

func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}

func silencePrintln(t *testing.T) *[]string {
	t.Helper()
	var printed []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		for _, v := range a {
			if s, ok := v.(string); ok {
				printed = append(printed, s)
			}
		}
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &printed
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	silencePrintln(t)

	input := rdr("help\nregister\nverify\nlogin\ncompany-verify\ncompany-confirm\nupload\ndocs\ndownload\nping\nlogout\nresend\nforgot\nreset\nexit\nregister\n")
	exec := &fakeExec{}

	runREPL(context.Background(), exec, func() string { return "" }, input)

	want := []string{"register", "verify", "login", "company-verify", "company-confirm", "upload", "docs", "download", "ping", "logout", "resend", "forgot", "reset"}
	if len(exec.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", exec.calls, want)
	}
	for i := range want {
		if exec.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", exec.calls, want)
		}
	}
}

func TestRunREPL_HelpDependsOnLogin(t *testing.T) {
	printed := silencePrintln(t)

	runREPL(context.Background(), &fakeExec{}, func() string { return "" }, rdr("help\n"))
	runREPL(context.Background(), &fakeExec{loggedIn: true}, func() string { return "" }, rdr("help\n"))

	var anon, authed bool
	for _, p := range *printed {
		switch p {
		case "Available commands: register, resend, verify, login, forgot, reset, ping, exit":
			anon = true
		case "Available commands: company-verify, company-confirm, upload, docs, download, ping, logout, exit":
			authed = true
		}
	}
	if !anon || !authed {
		t.Fatalf("help output missing: %v", *printed)
	}
}

func TestRunREPL_UnknownAndBlankLines(t *testing.T) {
	printed := silencePrintln(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, rdr("\n   \nfoobar\nquit\n"))

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
	found := false
	for _, p := range *printed {
		if p == "Unknown command:" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unknown command message, got %v", *printed)
	}
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	silencePrintln(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("ping"))

	if len(exec.calls) != 1 || exec.calls[0] != "ping" {
		t.Fatalf("calls = %v", exec.calls)
	}
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	silencePrintln(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "" }, rdr("ping\n"))

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}
