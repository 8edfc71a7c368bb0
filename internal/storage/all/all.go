// Package all registers every storage backend plus the SQL Server
// driver the mssql backend relies on. Blank-import it from a binary
// that selects a backend by configuration.
package all

import (
	_ "github.com/microsoft/go-mssqldb"

	_ "tabread/internal/storage/mssql"
	_ "tabread/internal/storage/postgres"
	_ "tabread/internal/storage/sqlite"
)
