// Package codexmonitor is the settings and routing core of Codex Monitor.
//
// The subpackages can be used independently:
//
//   - settings: app settings file, CODEX_HOME projection, and the
//     single-writer Repository that mirrors flags into config.toml
//   - codexconfig: config.toml feature flags and personality with a
//     cached, file-watching Store
//   - workspace: registry of workspaces and their worktrees
//   - codexargs: codex argument parsing, resolution, and the doctor check
//   - files: AGENTS.md and config.toml access, image data URLs, exports
//   - remote: JSON-RPC client and daemon process for the remote backend
//   - router: sends each operation to the local core or the remote backend
//   - daemonbin: locates the backend daemon binary
//
// # Quick Start
//
// Loading and updating settings:
//
//	env := settings.OSEnvironment{}
//	store := codexconfig.NewStore(codexconfig.WithLookup(env.Lookup))
//	repo, _ := settings.Open(settings.Config{
//		Path:  settings.FilePath(dataDir),
//		Store: store,
//		Env:   env,
//	})
//	defer repo.Close()
//
//	next, _ := repo.Get(ctx)
//	next.Personality = settings.PersonalityPragmatic
//	result, _ := repo.Update(ctx, next)
//
// Routing a file read:
//
//	r, _ := router.New(router.Config{Remote: client, Files: svc, Settings: repo})
//	resp, _ := r.FileRead(ctx, files.ScopeGlobal, files.KindAgents, "")
package codexmonitor
