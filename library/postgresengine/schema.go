package postgresengine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/AntonStoeckl/library-lending-go/library"
	"github.com/AntonStoeckl/library-lending-go/library/postgresengine/internal/adapters"
)

const (
	actionCreateSchema = "create schema"
	actionDropSchema   = "drop schema"
)

// EnsureSchema creates the books, cards and borrows tables and their indexes if they do not exist yet.
func (s Service) EnsureSchema(ctx context.Context) error {
	observer, ctx := s.startOperation(ctx, operationEnsureSchema, nil)

	err := s.withTx(ctx, false, func(tx adapters.DBTx) error {
		return s.execDDL(ctx, tx, actionCreateSchema, s.createStatements())
	})

	observer.finish(err)

	return err
}

// ResetSchema drops the books, cards and borrows tables with all their rows and recreates them empty.
func (s Service) ResetSchema(ctx context.Context) error {
	observer, ctx := s.startOperation(ctx, operationResetSchema, nil)

	err := s.withTx(ctx, false, func(tx adapters.DBTx) error {
		if dropErr := s.execDDL(ctx, tx, actionDropSchema, s.dropStatements()); dropErr != nil {
			return dropErr
		}

		return s.execDDL(ctx, tx, actionCreateSchema, s.createStatements())
	})

	observer.finish(err)

	return err
}

// execDDL runs each statement in tx. goqu has no DDL support, so the statements are plain SQL with sanitized identifiers.
func (s Service) execDDL(ctx context.Context, tx adapters.DBTx, action string, statements []string) error {
	for _, statement := range statements {
		start := time.Now()
		_, execErr := tx.Exec(ctx, statement)
		s.logQueryWithDuration(ctx, statement, action, time.Since(start))

		if execErr != nil {
			s.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, statement)

			return errors.Join(library.ErrSchemaChangeFailed, execErr)
		}
	}

	return nil
}

func (s Service) createStatements() []string {
	books := identifier(s.booksTableName)
	cards := identifier(s.cardsTableName)
	borrows := identifier(s.borrowsTableName)

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	book_id      BIGSERIAL PRIMARY KEY,
	category     VARCHAR(63) NOT NULL,
	title        VARCHAR(63) NOT NULL,
	press        VARCHAR(63) NOT NULL,
	publish_year INT NOT NULL,
	author       VARCHAR(63) NOT NULL,
	price        DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (price >= 0),
	stock        INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
	UNIQUE (category, press, author, title, publish_year)
)`, books),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	card_id    BIGSERIAL PRIMARY KEY,
	name       VARCHAR(63) NOT NULL,
	department VARCHAR(63) NOT NULL,
	type       VARCHAR(7) NOT NULL CHECK (type IN ('Student', 'Teacher')),
	UNIQUE (department, type, name)
)`, cards),

		// No foreign keys: closed borrows outlive the books and cards they reference.
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	card_id     BIGINT NOT NULL,
	book_id     BIGINT NOT NULL,
	borrow_time BIGINT NOT NULL,
	return_time BIGINT NULL,
	PRIMARY KEY (card_id, book_id, borrow_time),
	CHECK (return_time IS NULL OR return_time > borrow_time)
)`, borrows),

		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (card_id, book_id) WHERE return_time IS NULL`,
			identifier(s.borrowsTableName+"_open_uidx"), borrows),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (book_id) WHERE return_time IS NULL`,
			identifier(s.borrowsTableName+"_open_book_idx"), borrows),
	}
}

func (s Service) dropStatements() []string {
	return []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %s, %s, %s`,
			identifier(s.borrowsTableName), identifier(s.cardsTableName), identifier(s.booksTableName)),
	}
}

func identifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
