package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-lending-go/library"
	"github.com/AntonStoeckl/library-lending-go/library/postgresengine/internal/adapters"
)

const (
	defaultBooksTableName   = "book"
	defaultCardsTableName   = "card"
	defaultBorrowsTableName = "borrow"
	dialectPostgres         = "postgres"

	colBookID      = "book_id"
	colCategory    = "category"
	colTitle       = "title"
	colPress       = "press"
	colPublishYear = "publish_year"
	colAuthor      = "author"
	colPrice       = "price"
	colStock       = "stock"
	colCardID      = "card_id"
	colName        = "name"
	colDepartment  = "department"
	colType        = "type"
	colBorrowTime  = "borrow_time"
	colReturnTime  = "return_time"

	aliasBorrow = "br"
	aliasBook   = "bk"
)

// Service is the transactional library store on PostgreSQL.
// Every exported operation runs in exactly one transaction which is committed on success and rolled back on any error.
type Service struct {
	db               adapters.DBAdapter
	booksTableName   string
	cardsTableName   string
	borrowsTableName string
	logger           Logger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
	contextualLogger ContextualLogger
}

// sqlStatement is implemented by all goqu datasets.
type sqlStatement interface {
	ToSQL() (string, []any, error)
}

// NewServiceFromPGXPool creates a new Service using a pgx Pool with optional configuration.
func NewServiceFromPGXPool(db *pgxpool.Pool, options ...Option) (Service, error) {
	if db == nil {
		return Service{}, library.ErrNilDatabaseConnection
	}

	return newService(adapters.NewPGXAdapter(db), options...)
}

// NewServiceFromPGXPoolWithReplica creates a new Service using a primary and a replica pgx Pool.
// QueryBooks, ListCards and History use the replica when the context carries library.EventualConsistency.
func NewServiceFromPGXPoolWithReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (Service, error) {
	if db == nil || replica == nil {
		return Service{}, library.ErrNilDatabaseConnection
	}

	return newService(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewServiceFromSQLDB creates a new Service using a sql.DB with optional configuration.
func NewServiceFromSQLDB(db *sql.DB, options ...Option) (Service, error) {
	if db == nil {
		return Service{}, library.ErrNilDatabaseConnection
	}

	return newService(adapters.NewSQLAdapter(db), options...)
}

// NewServiceFromSQLX creates a new Service using a sqlx.DB with optional configuration.
func NewServiceFromSQLX(db *sqlx.DB, options ...Option) (Service, error) {
	if db == nil {
		return Service{}, library.ErrNilDatabaseConnection
	}

	return newService(adapters.NewSQLXAdapter(db), options...)
}

func newService(db adapters.DBAdapter, options ...Option) (Service, error) {
	s := Service{
		db:               db,
		booksTableName:   defaultBooksTableName,
		cardsTableName:   defaultCardsTableName,
		borrowsTableName: defaultBorrowsTableName,
	}

	for _, option := range options {
		if err := option(&s); err != nil {
			return Service{}, err
		}
	}

	return s, nil
}

// withTx runs fn inside one transaction. Any error returned by fn rolls the transaction back and is returned unchanged.
func (s Service) withTx(ctx context.Context, readOnly bool, fn func(tx adapters.DBTx) error) error {
	tx, beginErr := s.db.BeginTx(ctx, readOnly)
	if beginErr != nil {
		s.logError(ctx, logMsgBeginTxFailed, beginErr)

		return errors.Join(library.ErrBeginTxFailed, beginErr)
	}

	if fnErr := fn(tx); fnErr != nil {
		s.rollback(ctx, tx)

		return fnErr
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		s.logError(ctx, logMsgCommitTxFailed, commitErr)

		return errors.Join(library.ErrCommitTxFailed, commitErr)
	}

	return nil
}

// rollback must also work when ctx is already cancelled.
func (s Service) rollback(ctx context.Context, tx adapters.DBTx) {
	if rollbackErr := tx.Rollback(context.WithoutCancel(ctx)); rollbackErr != nil {
		s.logWarn(ctx, logMsgRollbackFailed, rollbackErr)
	}
}

// queryRows builds stmt and executes it in tx. The caller must close the returned rows.
func (s Service) queryRows(
	ctx context.Context,
	tx adapters.DBTx,
	action string,
	stmt sqlStatement,
) (adapters.DBRows, error) {

	sqlQuery, args, buildErr := stmt.ToSQL()
	if buildErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, buildErr, logAttrAction, action)

		return nil, errors.Join(library.ErrBuildingQueryFailed, buildErr)
	}

	start := time.Now()
	rows, queryErr := tx.Query(ctx, sqlQuery, args...)
	s.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if queryErr != nil {
		s.logDBError(ctx, logMsgDBQueryFailed, queryErr, sqlQuery)

		return nil, errors.Join(library.ErrQueryFailed, queryErr)
	}

	return rows, nil
}

// queryFirst scans the first row of stmt into dest and reports whether there was one.
func (s Service) queryFirst(
	ctx context.Context,
	tx adapters.DBTx,
	action string,
	stmt sqlStatement,
	dest ...any,
) (bool, error) {

	found := false

	err := s.queryEach(ctx, tx, action, stmt, func(rows adapters.DBRows) (bool, error) {
		if scanErr := rows.Scan(dest...); scanErr != nil {
			return false, scanErr
		}

		found = true

		return false, nil
	})

	return found, err
}

// queryEach calls scan for each row until scan returns false. Rows are closed before it returns.
func (s Service) queryEach(
	ctx context.Context,
	tx adapters.DBTx,
	action string,
	stmt sqlStatement,
	scan func(rows adapters.DBRows) (bool, error),
) error {

	rows, queryErr := s.queryRows(ctx, tx, action, stmt)
	if queryErr != nil {
		return queryErr
	}
	defer s.closeRows(ctx, rows)

	for rows.Next() {
		more, scanErr := scan(rows)
		if scanErr != nil {
			s.logError(ctx, logMsgScanRowFailed, scanErr, logAttrAction, action)

			return errors.Join(library.ErrScanningRowFailed, scanErr)
		}

		if !more {
			return nil
		}
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		s.logDBError(ctx, logMsgDBQueryFailed, rowsErr, action)

		return errors.Join(library.ErrQueryFailed, rowsErr)
	}

	return nil
}

// exists reports whether stmt returns at least one row.
func (s Service) exists(ctx context.Context, tx adapters.DBTx, action string, stmt *goqu.SelectDataset) (bool, error) {
	var one int

	return s.queryFirst(ctx, tx, action, stmt.Select(goqu.L("1")).Limit(1), &one)
}

// exec builds stmt, executes it in tx and returns the number of affected rows.
func (s Service) exec(ctx context.Context, tx adapters.DBTx, action string, stmt sqlStatement) (int64, error) {
	sqlQuery, args, buildErr := stmt.ToSQL()
	if buildErr != nil {
		s.logError(ctx, logMsgBuildQueryFailed, buildErr, logAttrAction, action)

		return 0, errors.Join(library.ErrBuildingQueryFailed, buildErr)
	}

	start := time.Now()
	result, execErr := tx.Exec(ctx, sqlQuery, args...)
	s.logQueryWithDuration(ctx, sqlQuery, action, time.Since(start))

	if execErr != nil {
		s.logDBError(ctx, logMsgDBExecFailed, execErr, sqlQuery)

		return 0, errors.Join(library.ErrExecFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		s.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)

		return 0, errors.Join(library.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// closeRows safely closes database rows and logs any errors.
func (s Service) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, closeErr)
	}
}

func (s Service) from(table any) *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).From(table).Prepared(true)
}

func (s Service) insertInto(table string) *goqu.InsertDataset {
	return goqu.Dialect(dialectPostgres).Insert(table).Prepared(true)
}

func (s Service) update(table string) *goqu.UpdateDataset {
	return goqu.Dialect(dialectPostgres).Update(table).Prepared(true)
}

func (s Service) deleteFrom(table string) *goqu.DeleteDataset {
	return goqu.Dialect(dialectPostgres).Delete(table).Prepared(true)
}
