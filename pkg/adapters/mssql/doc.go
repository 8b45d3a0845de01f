// Package mssql provides the Microsoft SQL Server adapter.
//
// SQL Server 2012 and higher is supported.
//
// Features:
//   - Local temp tables (#name) scoped to the session connection
//   - COLLATE database_default on character columns of temp tables
//   - Bulk copy through the TDS bulk load protocol (mssql.CopyIn)
//   - Clustered primary keys created after the data is loaded
//   - MIN_ACTIVE_ROWVERSION() for rowversion-based change tracking
//
// Usage:
//
//	import (
//	    "github.com/ruslano69/tdtp-bulk/pkg/adapters"
//	    _ "github.com/ruslano69/tdtp-bulk/pkg/adapters/mssql"
//	)
//
//	adapter, err := adapters.New(ctx, adapters.Config{
//	    Type: "mssql",
//	    DSN:  "server=localhost;user id=sa;password=pass;database=mydb",
//	})
//
// GUID values are sent in SQL Server byte order. Reading a UNIQUEIDENTIFIER
// back into []byte returns that mixed-endian layout; scan into string or
// mssql.UniqueIdentifier to get the canonical form.
package mssql
