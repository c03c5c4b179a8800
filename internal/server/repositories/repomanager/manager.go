package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/posmart/internal/dbx"
	"github.com/dmitrijs2005/posmart/internal/server/repositories/products"
	"github.com/dmitrijs2005/posmart/internal/server/repositories/sales"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Products(db dbx.DBTX) products.Repository
	Sales(db dbx.DBTX) sales.Repository
}
