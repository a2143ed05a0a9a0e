package postgresengine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/AntonStoeckl/library-lending-go/library"
	"github.com/AntonStoeckl/library-lending-go/library/postgresengine/internal/adapters"
)

const (
	logMsgBeginTxFailed      = "failed to begin transaction"
	logMsgCommitTxFailed     = "failed to commit transaction"
	logMsgRollbackFailed     = "failed to roll back transaction"
	logMsgBuildQueryFailed   = "failed to build query"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database statement execution failed"
	logMsgUniqueViolation    = "unique constraint rejected the statement"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgOperationFailed    = "library operation failed: "
	logMsgOperationRejected  = "library operation rejected: "
	logMsgSQLExecuted        = "executed sql for: "
	logMsgOperation          = "library operation: "
	logAttrError             = "error"
	logAttrErrorKind         = "error_kind"
	logAttrQuery             = "query"
	logAttrAction            = "action"
	logAttrDurationMS        = "duration_ms"
	logAttrBookID            = "book_id"
	logAttrCardID            = "card_id"
	logAttrBookCount         = "book_count"
	logAttrCardCount         = "card_count"
	logAttrItemCount         = "item_count"
	logAttrDelta             = "delta"

	metricOperationDuration = "library_operation_duration_seconds"
	metricOperationErrors   = "library_operation_errors_total"
	metricRowsReturned      = "library_rows_returned"

	spanNamePrefix    = "library."
	spanAttrOperation = "operation"
	spanAttrErrorKind = "error_kind"
	spanAttrDuration  = "duration_ms"
	spanAttrBookID    = "book_id"
	spanAttrCardID    = "card_id"
	spanAttrRowCount  = "row_count"

	labelStatus    = "status"
	statusSuccess  = "success"
	statusRejected = "rejected"
	statusError    = "error"

	operationAddBook        = "add_book"
	operationAddBooks       = "add_books"
	operationAdjustStock    = "adjust_stock"
	operationModifyBookInfo = "modify_book_info"
	operationRemoveBook     = "remove_book"
	operationQueryBooks     = "query_books"
	operationRegisterCard   = "register_card"
	operationModifyCardInfo = "modify_card_info"
	operationRemoveCard     = "remove_card"
	operationListCards      = "list_cards"
	operationBorrow         = "borrow"
	operationReturn         = "return"
	operationHistory        = "history"
	operationEnsureSchema   = "ensure_schema"
	operationResetSchema    = "reset_schema"
)

// operationObserver records the span, the metrics and the completion log line of one Service operation.
type operationObserver struct {
	s         Service
	ctx       context.Context
	operation string
	span      SpanContext
	start     time.Time
}

// startOperation opens the tracing span of an operation and returns the context to run it with.
func (s Service) startOperation(
	ctx context.Context,
	operation string,
	attrs map[string]string,
) (*operationObserver, context.Context) {

	spanAttrs := map[string]string{spanAttrOperation: operation}
	for key, value := range attrs {
		spanAttrs[key] = value
	}

	var span SpanContext
	if s.tracingCollector != nil {
		ctx, span = s.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, spanAttrs)
	}

	return &operationObserver{
		s:         s,
		ctx:       ctx,
		operation: operation,
		span:      span,
		start:     time.Now(),
	}, ctx
}

// finish completes the operation. Business rejections are logged at info level, infrastructure failures at error level.
// logArgs are appended to the completion log line.
func (o *operationObserver) finish(err error, logArgs ...any) {
	duration := time.Since(o.start)
	durationMS := o.s.toMilliseconds(duration)

	if err == nil {
		o.s.recordDurationMetrics(o.ctx, duration, o.operation, statusSuccess)
		o.finishSpan(statusSuccess, map[string]string{spanAttrDuration: fmt.Sprintf("%.2f", durationMS)})
		o.s.logOperation(o.ctx, o.operation, append([]any{logAttrDurationMS, durationMS}, logArgs...)...)

		return
	}

	kind := library.KindOf(err)
	status := statusError

	if library.IsBusinessError(err) {
		status = statusRejected
	}

	o.s.recordDurationMetrics(o.ctx, duration, o.operation, status)
	o.s.recordErrorMetrics(o.ctx, o.operation, kind)
	o.finishSpan(status, map[string]string{
		spanAttrErrorKind: string(kind),
		spanAttrDuration:  fmt.Sprintf("%.2f", durationMS),
	})

	args := append([]any{logAttrErrorKind, string(kind), logAttrDurationMS, durationMS}, logArgs...)

	if status == statusRejected {
		o.s.logRejection(o.ctx, o.operation, err, args...)
		return
	}

	o.s.logError(o.ctx, logMsgOperationFailed+o.operation, err, args...)
}

// finishWithCount records the number of rows a read operation returned, then finishes it.
func (o *operationObserver) finishWithCount(err error, count int, logAttrCount string) {
	if err == nil {
		o.s.recordValueMetrics(o.ctx, metricRowsReturned, float64(count), o.operation)

		if o.span != nil {
			o.span.AddAttribute(spanAttrRowCount, fmt.Sprintf("%d", count))
		}
	}

	o.finish(err, logAttrCount, count)
}

func (o *operationObserver) finishSpan(status string, attrs map[string]string) {
	if o.span == nil || o.s.tracingCollector == nil {
		return
	}

	o.span.SetStatus(status)
	o.s.tracingCollector.FinishSpan(o.span, status, attrs)
}

// recordDurationMetrics records duration metrics with context if the collector supports it.
func (s Service) recordDurationMetrics(ctx context.Context, duration time.Duration, operation, status string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		labelStatus:       status,
	}

	if contextualCollector, ok := s.metricsCollector.(library.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
	} else {
		s.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
	}
}

// recordErrorMetrics records error metrics with context if the collector supports it.
func (s Service) recordErrorMetrics(ctx context.Context, operation string, kind library.ErrorKind) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		spanAttrErrorKind: string(kind),
	}

	if contextualCollector, ok := s.metricsCollector.(library.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricOperationErrors, labels)
	} else {
		s.metricsCollector.IncrementCounter(metricOperationErrors, labels)
	}
}

// recordValueMetrics records value metrics with context if the collector supports it.
func (s Service) recordValueMetrics(ctx context.Context, metricName string, value float64, operation string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{spanAttrOperation: operation}

	if contextualCollector, ok := s.metricsCollector.(library.ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metricName, value, labels)
	} else {
		s.metricsCollector.RecordValue(metricName, value, labels)
	}
}

// logQueryWithDuration logs SQL statements with execution time at debug level.
func (s Service) logQueryWithDuration(
	ctx context.Context,
	sqlQuery string,
	action string,
	duration time.Duration,
) {

	args := []any{logAttrDurationMS, s.toMilliseconds(duration), logAttrQuery, sqlQuery}

	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, args...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	}
}

// logOperation logs operational information at info level.
func (s Service) logOperation(ctx context.Context, action string, args ...any) {
	if s.logger != nil {
		s.logger.Info(logMsgOperation+action, args...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

// logRejection logs a business rule rejection at info level.
func (s Service) logRejection(ctx context.Context, action string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if s.logger != nil {
		s.logger.Info(logMsgOperationRejected+action, allArgs...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgOperationRejected+action, allArgs...)
	}
}

// logDBError logs a failed statement. Unique violations are expected under concurrent inserts and logged at info level.
func (s Service) logDBError(ctx context.Context, message string, err error, sqlQuery string) {
	if adapters.IsUniqueViolation(err) {
		if s.logger != nil {
			s.logger.Info(logMsgUniqueViolation, logAttrError, err.Error(), logAttrQuery, sqlQuery)
		}

		if s.contextualLogger != nil {
			s.contextualLogger.InfoContext(ctx, logMsgUniqueViolation, logAttrError, err.Error(), logAttrQuery, sqlQuery)
		}

		return
	}

	s.logError(ctx, message, err, logAttrQuery, sqlQuery)
}

// logWarn logs non-critical failures at warn level.
func (s Service) logWarn(ctx context.Context, message string, err error) {
	if s.logger != nil {
		s.logger.Warn(message, logAttrError, err.Error())
	}

	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, message, logAttrError, err.Error())
	}
}

// logError logs error information at the error level.
func (s Service) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if s.logger != nil {
		s.logger.Error(message, allArgs...)
	}

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (s Service) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
