// Package file provides file-based implementations of the
// configuration and prompt store ports. Configuration lives in a TOML
// file under the paperag config directory, with PAPERAG_* environment
// variables taking precedence over file values.
package file
