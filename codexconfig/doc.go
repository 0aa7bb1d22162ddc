// Package codexconfig reads and writes the settings codexmonitor mirrors into
// the Codex CLI's config.toml.
//
// Five boolean feature flags live under the [features] table and the
// personality lives at the top level:
//
//	personality = "pragmatic"
//
//	[features]
//	collab = true
//	steer = false
//
// Writes edit the file line by line, so comments and keys the store does not
// manage are preserved. Every edited document is parsed before it replaces
// the file; a write that would produce invalid TOML fails instead.
//
// # Usage
//
//	store := codexconfig.NewStore() // follows CODEX_HOME
//	if v, ok, err := store.ReadFeature(codexconfig.FeatureSteer); err == nil && ok {
//	    fmt.Println("steer:", v)
//	}
//	_ = store.WritePersonality("friendly")
//
// Call WatchAndInvalidate to drop cached documents when another process
// (the Codex CLI, an editor) changes the file.
package codexconfig
