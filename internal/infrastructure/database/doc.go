// Package database opens the AssessLab SQLite store and runs its embedded
// schema migrations.
//
// The store is a single file opened with foreign key enforcement always on
// and, by default, WAL journaling. The connection pool is pinned to one
// connection: SQLite allows a single writer, and serialising in-process is
// simpler than retrying SQLITE_BUSY at every call site.
//
// Migrations are .up.sql/.down.sql pairs compiled into the binary by the
// migrations package, which registers its embed.FS here at init. Migrate
// applies pending versions in order; MigrateDown exists for development
// databases and is exposed through the server binary's -rollback flag.
package database
