package middleware

import (
	"fmt"
	"strings"

	"charitydesk/internal/access"
	"charitydesk/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// contentKindOf maps a route template to the content kind it serves, or "".
func contentKindOf(route string) string {
	switch {
	case strings.HasPrefix(route, "/api/news"):
		return "news"
	case strings.HasPrefix(route, "/api/stories"):
		return "story"
	}
	return ""
}

// TracingMiddleware opens a server span per request. Once routing is done the
// span is renamed to the route template and tagged with the caller's role and,
// on content routes, the content kind.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.path", c.Path()),
				attribute.String("http.ip", c.IP()),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		if requestID := c.Locals("requestid"); requestID != nil {
			span.SetAttributes(attribute.String("request.id", fmt.Sprintf("%v", requestID)))
		}
		c.Set("X-Trace-ID", traceID)
		c.SetUserContext(ctx)

		err := c.Next()

		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		status := c.Response().StatusCode()
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		if kind := contentKindOf(route); kind != "" {
			span.SetAttributes(attribute.String("charitydesk.content_kind", kind))
		}

		p, ok := c.Locals(PrincipalLocal).(access.Principal)
		if !ok {
			p = access.Anonymous
		}
		span.SetAttributes(attribute.String("charitydesk.principal_role", p.Role.String()))
		if p.ID != 0 {
			span.SetAttributes(attribute.Int64("user.id", int64(p.ID)))
		}

		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case status >= fiber.StatusInternalServerError:
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		case status == fiber.StatusForbidden:
			span.AddEvent("access.denied")
		}
		return err
	}
}
