// log протаскивает request-scoped логгер через context.Context:
// HTTP-middleware кладёт логгер с request_id, сервисный слой достаёт
// его через From и пишет записи, привязанные к конкретному запросу.
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into кладёт логгер в контекст запроса.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста. Вне HTTP-цепочки (CLI, тесты)
// логгера в контексте нет — возвращается slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}
