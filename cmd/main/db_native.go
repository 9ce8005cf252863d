//go:build !cgo_sqlite

package main

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

const dbDriver = "sqlite"

func initDB(dataSource string) (*sql.DB, error) {
	return openDB(dbDriver, dataSource)
}
