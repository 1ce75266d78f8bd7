// Package storage provides history.Storage backends.
//
// MemoryStorage keeps records in a map and is used by tests and by
// history.driver "memory". SQLiteStorage persists records with either the
// cgo driver (github.com/mattn/go-sqlite3, driver "sqlite3") or the pure Go
// driver (modernc.org/sqlite, driver "sqlite"):
//
//	store, err := storage.Open(&cfg.History)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
package storage
