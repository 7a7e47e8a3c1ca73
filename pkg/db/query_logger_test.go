package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func newBufferedQueryLogger(slow time.Duration) (gormlogger.Interface, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Format: logger.FormatJSON, Output: buf})
	return newQueryLogger(logg, slow), buf
}

func statement() (string, int64) {
	return "SELECT * FROM products WHERE slug = 'tea'", 0
}

func TestQueryLoggerReportsFailures(t *testing.T) {
	ql, buf := newBufferedQueryLogger(time.Second)
	ql.Trace(context.Background(), time.Now(), statement, errors.New("relation missing"))

	out := buf.String()
	if !strings.Contains(out, `"message":"db.query_failed"`) || !strings.Contains(out, "FROM products") {
		t.Fatalf("expected failed query entry, got %s", out)
	}
}

func TestQueryLoggerIgnoresRecordNotFoundAndFastQueries(t *testing.T) {
	ql, buf := newBufferedQueryLogger(time.Second)
	ql.Trace(context.Background(), time.Now(), statement, gorm.ErrRecordNotFound)
	ql.Trace(context.Background(), time.Now(), statement, nil)

	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %s", buf.String())
	}
}

func TestQueryLoggerFlagsSlowQueries(t *testing.T) {
	ql, buf := newBufferedQueryLogger(10 * time.Millisecond)
	ql.Trace(context.Background(), time.Now().Add(-time.Second), statement, nil)

	if !strings.Contains(buf.String(), `"message":"db.slow_query"`) {
		t.Fatalf("expected slow query entry, got %s", buf.String())
	}
}

func TestQueryLoggerSilentMode(t *testing.T) {
	ql, buf := newBufferedQueryLogger(10 * time.Millisecond)
	ql.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now().Add(-time.Second), statement, errors.New("boom"))

	if buf.Len() != 0 {
		t.Fatalf("silent mode should not log, got %s", buf.String())
	}
}
