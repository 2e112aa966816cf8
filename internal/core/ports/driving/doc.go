// Package driving defines inbound ports: the use-case interfaces the
// core services expose to entry points such as the CLI. Entry points
// depend on these interfaces, never on concrete services.
package driving
