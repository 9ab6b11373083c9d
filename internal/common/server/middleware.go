package server

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/MpMogale/AVPermitSystemV2/internal/common/auth"
	"github.com/MpMogale/AVPermitSystemV2/internal/common/config"
	"github.com/MpMogale/AVPermitSystemV2/internal/common/logger"
	"github.com/MpMogale/AVPermitSystemV2/internal/common/middleware"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

type actorContextKey struct{}

// WithActor 将操作者写入 ctx。
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext 从 ctx 取出操作者；缺省返回占位账号。
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorContextKey{}).(string); ok && v != "" {
		return v
	}
	return auth.SystemActor
}

// statusRecorder 记录响应状态码，供访问日志与熔断统计使用。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Recovery 防止 panic 直接把进程打崩，并记录栈信息。
func Recovery(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if log != nil {
						log.Errorf("panic in %s %s err=%v stack=%s", r.Method, r.URL.Path, rec, string(debug.Stack()))
					}
					Error(w, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// AccessLog 记录每个请求的耗时/状态码。
func AccessLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			cost := time.Since(start)

			if log == nil {
				return
			}
			fields := map[string]interface{}{
				"method": r.Method,
				"path":   r.URL.Path,
				"status": rec.status,
				"cost":   cost.String(),
			}
			if rec.status >= http.StatusInternalServerError {
				log.WithFields(fields).Warn("http request failed")
			} else {
				log.WithFields(fields).Info("http request ok")
			}
		})
	}
}

// Tracing 基于 OpenTracing 的最小 HTTP server middleware：
// - 从请求头提取 span context（uber-trace-id / traceparent 等，取决于上游注入格式）
// - 创建 server span，并注入到 ctx，方便业务侧 opentracing.StartSpanFromContext 使用
func Tracing(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tracer := opentracing.GlobalTracer()

			var parent opentracing.SpanContext
			if sc, err := tracer.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(r.Header)); err == nil {
				parent = sc
			}

			operation := r.Method + " " + r.URL.Path
			var span opentracing.Span
			if parent != nil {
				span = tracer.StartSpan(operation, ext.RPCServerOption(parent))
			} else {
				span = tracer.StartSpan(operation)
			}
			defer span.Finish()

			ext.SpanKindRPCServer.Set(span)
			ext.HTTPMethod.Set(span, r.Method)
			ext.HTTPUrl.Set(span, r.URL.Path)
			ext.Component.Set(span, "http")
			if serviceName != "" {
				span.SetTag("service", serviceName)
			}

			ctx := opentracing.ContextWithSpan(r.Context(), span)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Actor 解析操作者身份并写入 ctx：
// - 认证关闭时所有请求的操作者均为 System
// - 认证开启后 token 非法返回 401
func Actor(cfg config.AuthConfig, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := auth.ParseActor(cfg, r.Header.Get("Authorization"))
			if err != nil {
				if log != nil {
					log.Warnf("reject request %s %s: %v", r.Method, r.URL.Path, err)
				}
				Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// RateLimit 全局限流；超限返回 429。
func RateLimit(limiter middleware.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow(r.Context()) {
				Error(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Breaker 用熔断器包住后端处理：连续 5xx（通常是存储层不可用）会把熔断器打开，
// 打开期间直接返回 503，避免继续冲击数据库。
func Breaker(cb *middleware.CircuitBreaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cb == nil {
				next.ServeHTTP(w, r)
				return
			}
			rec := &statusRecorder{ResponseWriter: w}
			err := cb.Call(r.Context(), func() error {
				next.ServeHTTP(rec, r)
				if rec.status >= http.StatusInternalServerError {
					return errBackendFailure
				}
				return nil
			})
			if err == middleware.ErrCircuitOpen {
				Error(w, http.StatusServiceUnavailable, "service temporarily unavailable")
			}
		})
	}
}

// errBackendFailure 仅用于向熔断器上报一次失败，不对外暴露。
var errBackendFailure = &backendFailureError{}

type backendFailureError struct{}

func (*backendFailureError) Error() string { return "backend failure" }
