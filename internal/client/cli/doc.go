// Package cli provides the interactive equitygate command-line client.
//
// It wires configuration, the gRPC onboarding client and a small REPL.
// Typical flow: register with a role, verify the emailed code, log in, then
// verify the company contact email and upload onboarding documents.
//
// Passwords are read without echo via golang.org/x/term and wiped after use.
// Document bytes travel straight to object storage through presigned URLs.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
