// Package cli provides the interactive Lumina account command-line client.
//
// It wires configuration, the local state store, the backend HTTP client and
// an interactive REPL around the session manager. Typical flow: bootstrap the
// stored session, then execute user commands until exit.
//
// Key features:
//   - Login / Signup / Logout
//   - View and update the profile, change the password
//   - Two-step password reset (forgot, then reset with the mailed token)
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
