package pool

import (
	"context"
	"log/slog"
)

type disabledHandler struct{}

func (d disabledHandler) Enabled(_ context.Context, _ slog.Level) bool  { return false }
func (d disabledHandler) Handle(_ context.Context, _ slog.Record) error { return nil }
func (d disabledHandler) WithAttrs(_ []slog.Attr) slog.Handler          { return disabledHandler{} }
func (d disabledHandler) WithGroup(_ string) slog.Handler               { return disabledHandler{} }
