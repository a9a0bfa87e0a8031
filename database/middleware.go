package database

import (
	"context"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Throttled limits how fast statements reach the server
type Throttled struct {
	next    Executor
	limiter *rate.Limiter
}

// Throttle wraps next with a limiter of perSecond statements; perSecond <= 0 disables it
func Throttle(next Executor, perSecond float64) Executor {
	if perSecond <= 0 {
		return next
	}
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (t *Throttled) Execute(ctx context.Context, statement string) ([]Row, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.next.Execute(ctx, statement)
}

var secretLiteral = regexp.MustCompile(`(?i)(IDENTIFIED BY (?:PASSWORD )?)'(?:[^'\\]|\\.|'')*'`)

// Redact masks password literals of a statement
func Redact(statement string) string {
	return secretLiteral.ReplaceAllString(statement, "${1}'***'")
}

// Logged writes every statement and its outcome to a zerolog logger
type Logged struct {
	next Executor
	log  zerolog.Logger
}

func WithLogging(next Executor, log zerolog.Logger) Executor {
	return &Logged{next: next, log: log}
}

func (l *Logged) Execute(ctx context.Context, statement string) ([]Row, error) {
	start := time.Now()
	rows, err := l.next.Execute(ctx, statement)
	if err != nil {
		l.log.Error().Err(err).Str("sql", Redact(statement)).Dur("took", time.Since(start)).Msg("statement failed")
		return nil, err
	}
	l.log.Debug().Str("sql", Redact(statement)).Int("rows", len(rows)).Dur("took", time.Since(start)).Msg("statement executed")
	return rows, nil
}
