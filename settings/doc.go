// Package settings owns the application settings of a codexmonitor process.
//
// AppSettings is persisted to a JSON settings file. Five feature flags and
// the personality are additionally mirrored into the Codex config.toml,
// which is authoritative for them: Repository.Get overlays whatever
// config.toml currently says on top of the cached value.
//
// # Updates
//
// Repository.Update commits in this order:
//
//  1. write the settings file (failure aborts with a KindPersistence error)
//  2. project DefaultCodexHome onto CODEX_HOME
//  3. mirror flags and personality into config.toml (best effort)
//  4. swap the in-memory value
//
// Mirror failures are returned as warnings in UpdateResult.MirrorErrors.
//
// # Environment
//
// The CODEX_HOME side effect goes through the Environment interface.
// OSEnvironment binds the real process environment; MapEnvironment keeps
// tests hermetic.
//
//	repo, err := settings.Open(settings.Config{
//	    Path:  settings.FilePath(dataDir),
//	    Store: codexconfig.NewStore(),
//	})
//	if err != nil {
//	    return err
//	}
//	defer repo.Close()
//
//	current, _ := repo.Get(ctx)
//	current.SteerEnabled = false
//	res, err := repo.Update(ctx, current)
package settings
