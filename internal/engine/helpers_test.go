package engine

import (
	"context"

	"github.com/dverbeek84/oaibridge/internal/logging"
)

// noopLogger silences engine output in tests.
type noopLogger struct{}

func (noopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (noopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (noopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (noopLogger) Error(ctx context.Context, msg string, args ...any) {}
func (n noopLogger) With(args ...any) logging.Logger                  { return n }
