package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/IgnacioAroza/reservation-api/internal/domain"
)

const tracerName = "github.com/IgnacioAroza/reservation-api/internal/service"

// Hasher hashes and verifies secrets.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	NeedsRehash(hash string) bool
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(claim domain.SessionClaim) (string, error)
	Verify(token string) (domain.SessionClaim, error)
	TTL() time.Duration
}

// TenantResolver answers whether a company exists and is active.
type TenantResolver interface {
	FindActive(ctx context.Context, companyID string) (domain.Company, bool, error)
	FindActiveBySlug(ctx context.Context, slug string) (domain.Company, bool, error)
}

// Locker serializes work on a key across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// instrumented carries the logger and tracer shared by the services.
type instrumented struct {
	logger *zap.Logger
	tracer trace.Tracer
}

func newInstrumented(logger *zap.Logger) instrumented {
	return instrumented{logger: logger, tracer: otel.Tracer(tracerName)}
}

func (s instrumented) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

// fail records err on span and returns it unchanged.
func fail(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s instrumented) audit(event string, attrs ...any) {
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", time.Now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	s.log().Info("audit", fields...)
}

func (s instrumented) log() *zap.Logger {
	if s.logger != nil {
		return s.logger
	}
	return zap.L()
}
