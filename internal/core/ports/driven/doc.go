// Package driven defines outbound ports: interfaces the core services
// depend on and infrastructure adapters implement. Services talk to
// embedding backends, language models, the index store, paper sources,
// and configuration exclusively through these interfaces.
package driven
