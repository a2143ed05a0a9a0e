package postgresengine

import (
	"github.com/AntonStoeckl/library-lending-go/library"
)

type (
	Logger           = library.Logger
	ContextualLogger = library.ContextualLogger
	MetricsCollector = library.MetricsCollector
	TracingCollector = library.TracingCollector
	SpanContext      = library.SpanContext
)

// Option defines a functional option for configuring Service.
type Option func(*Service) error

// WithBooksTableName sets the name of the books table (default "book").
func WithBooksTableName(tableName string) Option {
	return func(s *Service) error {
		if tableName == "" {
			return library.ErrEmptyTableNameSupplied
		}

		s.booksTableName = tableName

		return nil
	}
}

// WithCardsTableName sets the name of the cards table (default "card").
func WithCardsTableName(tableName string) Option {
	return func(s *Service) error {
		if tableName == "" {
			return library.ErrEmptyTableNameSupplied
		}

		s.cardsTableName = tableName

		return nil
	}
}

// WithBorrowsTableName sets the name of the borrows table (default "borrow").
func WithBorrowsTableName(tableName string) Option {
	return func(s *Service) error {
		if tableName == "" {
			return library.ErrEmptyTableNameSupplied
		}

		s.borrowsTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the Service.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: Completed operations with durations, rejected operations with their error kind (production-safe)
// Warn level: Non-critical issues like rollback or cleanup failures
// Error level: Infrastructure failures that cause operation failures.
func WithLogger(logger Logger) Option {
	return func(s *Service) error {
		s.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Service.
// It receives one duration record per operation and an error counter increment per failed operation.
func WithMetrics(collector MetricsCollector) Option {
	return func(s *Service) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Service.
// Every operation opens one span named "library.<operation>".
func WithTracing(collector TracingCollector) Option {
	return func(s *Service) error {
		s.tracingCollector = collector
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Service.
// It receives the same messages as the Logger, with the operation's context for trace correlation.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(s *Service) error {
		s.contextualLogger = logger
		return nil
	}
}
