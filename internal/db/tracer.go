package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type traceKey struct{}

type traceStart struct {
	sql   string
	start time.Time
}

// queryTracer logs slow statements at warn and failed ones at debug. Failures are
// classified and logged again by the repositories, so debug is enough here.
type queryTracer struct {
	logger    zerolog.Logger
	threshold time.Duration
	now       func() time.Time
}

func newQueryTracer(logger zerolog.Logger, threshold time.Duration) *queryTracer {
	return &queryTracer{logger: logger, threshold: threshold, now: time.Now}
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{sql: data.SQL, start: t.now()})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	st, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}
	elapsed := t.now().Sub(st.start)

	switch {
	case data.Err != nil && !errors.Is(data.Err, pgx.ErrNoRows):
		t.logger.Debug().Err(data.Err).Str("sql", compactSQL(st.sql)).Dur("elapsed", elapsed).Msg("db: query failed")
	case elapsed >= t.threshold:
		t.logger.Warn().
			Str("sql", compactSQL(st.sql)).
			Dur("elapsed", elapsed).
			Int64("rows", data.CommandTag.RowsAffected()).
			Msg("db: slow query")
	}
}

// compactSQL folds whitespace so multi-line statements log on one line.
func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
