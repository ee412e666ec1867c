package domain

import (
	"context"
	"log/slog"
	"time"

	"github.com/pendergraft/abiscout/internal/abi"
)

// LoggingMiddleware returns a service middleware that logs resolutions.
func LoggingMiddleware(logger *slog.Logger) func(Service) Service {
	return func(next Service) Service {
		return &loggingMiddleware{
			next:   next,
			logger: logger,
		}
	}
}

type loggingMiddleware struct {
	next   Service
	logger *slog.Logger
}

func (m *loggingMiddleware) Resolve(ctx context.Context, req ResolveRequest) (*abi.ContractRecord, error) {
	start := time.Now()
	record, err := m.next.Resolve(ctx, req)

	attrs := []any{
		"address", req.Address,
		"network", req.Network,
		"duration", time.Since(start),
		"error", err,
	}
	if record != nil {
		attrs = append(attrs, "tier", record.Tier, "entries", len(record.Entries))
	}
	m.logger.Info("Resolve", attrs...)

	return record, err
}
