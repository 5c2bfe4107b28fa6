// Package main hosts the volscribe CLI entrypoint and command graph.
//
// Commands resolve configuration once through commandContext, build the
// collaborators they need (catalog, media resolver, fetcher, speech engine,
// archive store, run ledger) and hand off to the internal packages. Heavy
// lifting belongs in internal/; this package stays declarative.
package main
