package obs

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

const tracerName = "intermodal-route-service"

// Time logs the duration of an operation and records it as a span on the
// global tracer provider. Use as: defer obs.Time(ctx, "op")(&err)
//
// The span cannot parent anything. Operations that call further timed
// operations use Start instead.
func Time(ctx context.Context, name string) func(errp *error) {
	_, done := Start(ctx, name)
	return done
}

// Start is Time for operations with children: the returned context carries
// the span, so timed calls made with it nest under this operation.
//
//	ctx, done := obs.Start(ctx, "op")
//	defer done(&err)
func Start(ctx context.Context, name string) (context.Context, func(errp *error)) {
	start := time.Now()

	reqID := RequestID(ctx)
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	if reqID != "" {
		span.SetAttributes(attribute.String("req_id", reqID))
	}

	return ctx, func(errp *error) {
		dur := time.Since(start)
		defer span.End()

		if errp != nil && *errp != nil {
			span.RecordError(*errp)
			span.SetStatus(codes.Error, (*errp).Error())
			log.Printf("req_id=%s op=%s dur=%dms err=%v", reqID, name, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("req_id=%s op=%s dur=%dms", reqID, name, dur.Milliseconds())
	}
}

// WithRequestID attaches id to ctx, generating one when id is empty.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = newRequestID()
	}
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func newRequestID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b[:])
}
