package main

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-lending-go/library"
	"github.com/AntonStoeckl/library-lending-go/library/postgresengine"
)

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the books, cards and borrows tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd.Context(), func(service postgresengine.Service) error {
				return c.report(nil, service.EnsureSchema(cmd.Context()))
			})
		},
	}
}

func (c *cli) resetCommand() *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate all tables, deleting every book, card and borrow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return ErrResetNotConfirmed
			}

			return c.withService(cmd.Context(), func(service postgresengine.Service) error {
				return c.report(nil, service.ResetSchema(cmd.Context()))
			})
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm that all data may be deleted")

	return cmd
}

func (c *cli) cardsCommand() *cobra.Command {
	var eventual bool

	cmd := &cobra.Command{
		Use:   "cards",
		Short: "List all library cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := readContext(cmd.Context(), eventual)

			return c.withService(ctx, func(service postgresengine.Service) error {
				cards, err := service.ListCards(ctx)
				return c.report(cards, err)
			})
		},
	}

	cmd.Flags().BoolVar(&eventual, "eventual", false, "allow reading from a replica")

	return cmd
}

// bookFilter holds the flags of the books command.
type bookFilter struct {
	category   string
	title      string
	press      string
	author     string
	minYear    int
	maxYear    int
	minPrice   float64
	maxPrice   float64
	sort       string
	descending bool
	eventual   bool
}

func (c *cli) booksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Search the catalog",
		Long: `Search the catalog. All given filters must match.

Examples:
  librarydb books --category "Computer Science"
  librarydb books --title go --min-price 10 --max-price 50 --sort price --desc`,
		Args: cobra.NoArgs,
	}

	filter := bindBookFilter(cmd)

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		query, err := filter.query(cmd)
		if err != nil {
			return c.report(nil, err)
		}

		ctx := readContext(cmd.Context(), filter.eventual)

		return c.withService(ctx, func(service postgresengine.Service) error {
			books, queryErr := service.QueryBooks(ctx, query)
			return c.report(books, queryErr)
		})
	}

	return cmd
}

func bindBookFilter(cmd *cobra.Command) *bookFilter {
	filter := &bookFilter{}

	flags := cmd.Flags()
	flags.StringVar(&filter.category, "category", "", "exact category")
	flags.StringVar(&filter.title, "title", "", "title contains")
	flags.StringVar(&filter.press, "press", "", "press contains")
	flags.StringVar(&filter.author, "author", "", "author contains")
	flags.IntVar(&filter.minYear, "min-year", 0, "earliest publish year")
	flags.IntVar(&filter.maxYear, "max-year", 0, "latest publish year")
	flags.Float64Var(&filter.minPrice, "min-price", 0, "lowest price")
	flags.Float64Var(&filter.maxPrice, "max-price", 0, "highest price")
	flags.StringVar(&filter.sort, "sort", "book_id", "sort column")
	flags.BoolVar(&filter.descending, "desc", false, "sort descending")
	flags.BoolVar(&filter.eventual, "eventual", false, "allow reading from a replica")

	return filter
}

// query turns the flags that were set on cmd into a BookQuery. Unset flags add no predicate.
func (f *bookFilter) query(cmd *cobra.Command) (library.BookQuery, error) {
	column, err := library.ParseSortColumn(f.sort)
	if err != nil {
		return library.BookQuery{}, err
	}

	order := library.Ascending
	if f.descending {
		order = library.Descending
	}

	changed := cmd.Flags().Changed
	builder := library.BuildBookQuery()

	if changed("category") {
		builder = builder.CategoryIs(f.category)
	}

	if changed("title") {
		builder = builder.TitleContains(f.title)
	}

	if changed("press") {
		builder = builder.PressContains(f.press)
	}

	if changed("author") {
		builder = builder.AuthorContains(f.author)
	}

	if changed("min-year") {
		builder = builder.PublishYearFrom(f.minYear)
	}

	if changed("max-year") {
		builder = builder.PublishYearUntil(f.maxYear)
	}

	if changed("min-price") {
		builder = builder.PriceFrom(f.minPrice)
	}

	if changed("max-price") {
		builder = builder.PriceUntil(f.maxPrice)
	}

	query := builder.SortBy(column, order).Finalize()

	return query, query.Validate()
}

func readContext(ctx context.Context, eventual bool) context.Context {
	if eventual {
		return library.WithEventualConsistency(ctx)
	}

	return library.WithStrongConsistency(ctx)
}

// report prints the Result of an operation and returns the operation's error, so a failed operation exits non-zero.
func (c *cli) report(payload any, opErr error) error {
	data, err := jsoniter.ConfigFastest.MarshalIndent(library.ResultFrom(payload, opErr), "", "  ")
	if err != nil {
		return err
	}

	if _, err = c.stdout.Write(append(data, '\n')); err != nil {
		return err
	}

	return opErr
}
