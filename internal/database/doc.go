// Package database provides the SQLite-backed run history of threadharvest.
//
// RunDB stores one row per finished run together with its per-source
// outcomes and a copy of the artifact. The history is append-only and
// purely archival: a harvesting run never reads it, so runs stay
// independent of each other.
//
// Each stored artifact carries a SHA3-256 digest of its JSON form, which
// GetRun verifies before handing the artifact back.
//
// SQLite is accessed through modernc.org/sqlite, a CGO-free driver, so the
// binary cross-compiles without a C toolchain.
package database
