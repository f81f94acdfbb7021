// Package storage holds the connection helpers shared by the persistence
// backends.
//
// # Backends
//
// The postgres subpackage is the system of record. It implements the store
// interfaces declared by the domain packages:
//
//   - auth.CredentialStore and auth.StatusChecker (postgres.UserStore)
//   - users.Store (postgres.UserStore)
//   - works.Store (postgres.WorkStore)
//   - translations.Store (postgres.TranslationStore)
//
// Schema changes ship as goose migrations embedded in the binary and are
// applied by postgres.Migrate at startup.
//
//	db, err := postgres.Open(ctx, cfg.Database)
//	if err != nil {
//		return err
//	}
//	if err := postgres.Migrate(ctx, db, logger); err != nil {
//		return err
//	}
//	users := postgres.NewUserStore(db)
//
// # Redis
//
// Redis is optional. When FOLIO_REDIS_URL is set, NewRedisClient builds the
// client used by the distributed login throttle and the readiness check.
//
//	client, err := storage.NewRedisClient(ctx, cfg.RateLimit.RedisURL, storage.RedisOptions{})
//
// # Error conventions
//
// Stores report a missing row as auth.ErrNotFound and wrap every other
// driver error with fmt.Errorf("failed to ...: %w", err). A unique
// violation becomes the conflict sentinel of the calling domain:
// auth.ErrDuplicateAccount for emails and translations.ErrTranslationExists
// for (work, language) pairs.
package storage
