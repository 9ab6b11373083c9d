package tracing

import (
	"fmt"
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"

	"github.com/MpMogale/AVPermitSystemV2/internal/common/config"
)

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

// InitTracer 按配置初始化 Jaeger tracer 并注册为全局 tracer。
// Endpoint 为空时返回 NoopTracer，HTTP 追踪中间件照常挂载但不上报任何 span。
func InitTracer(serviceName string, cfg config.JaegerConfig) (opentracing.Tracer, io.Closer, error) {
	if cfg.Endpoint == "" {
		tracer := opentracing.NoopTracer{}
		opentracing.SetGlobalTracer(tracer)
		return tracer, noopCloser{}, nil
	}

	samplerType, err := resolveSamplerType(cfg.SamplerType)
	if err != nil {
		return nil, nil, err
	}

	jcfg := &jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  samplerType,
			Param: cfg.Sampler,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LogSpans:           cfg.LogSpans,
			LocalAgentHostPort: cfg.Endpoint,
		},
	}

	tracer, closer, err := jcfg.NewTracer(jaegercfg.Logger(jaeger.StdLogger))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init jaeger tracer: %w", err)
	}

	opentracing.SetGlobalTracer(tracer)
	return tracer, closer, nil
}

// resolveSamplerType 空值按 const 处理，非法值直接报错而不是静默换默认。
func resolveSamplerType(s string) (string, error) {
	switch s {
	case "", jaeger.SamplerTypeConst:
		return jaeger.SamplerTypeConst, nil
	case jaeger.SamplerTypeProbabilistic:
		return jaeger.SamplerTypeProbabilistic, nil
	case jaeger.SamplerTypeRateLimiting:
		return jaeger.SamplerTypeRateLimiting, nil
	case jaeger.SamplerTypeRemote:
		return jaeger.SamplerTypeRemote, nil
	}
	return "", fmt.Errorf("unknown jaeger sampler type %q", s)
}
