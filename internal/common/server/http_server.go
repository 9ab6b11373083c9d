package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MpMogale/AVPermitSystemV2/internal/common/config"
	"github.com/MpMogale/AVPermitSystemV2/internal/common/discovery"
	"github.com/MpMogale/AVPermitSystemV2/internal/common/logger"
	"github.com/MpMogale/AVPermitSystemV2/internal/common/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

// RegisterFunc 用于挂载业务路由。
type RegisterFunc func(r chi.Router)

type RunHTTPOptions struct {
	ShutdownTimeout time.Duration
	RateLimiter     middleware.RateLimiter
	Breaker         *middleware.CircuitBreaker
}

func defaultRunHTTPOptions() RunHTTPOptions {
	return RunHTTPOptions{
		ShutdownTimeout: 5 * time.Second,
		// 缺省给一个宽松的全局令牌桶，防止误伤正常流量
		RateLimiter: middleware.NewTokenBucket(200, 100),
		Breaker:     middleware.NewCircuitBreaker("store", 5, 10*time.Second),
	}
}

// RunHTTPServer 统一的 HTTP 服务启动模板：
// - 组装 chi router（恢复/追踪/日志/限流/熔断/操作者中间件 + CORS）
// - 注册 /healthz
// - 注册业务路由
// - 注册到 Consul（HTTP check）
// - 优雅退出
func RunHTTPServer(cfg *config.Config, log logger.Logger, register RegisterFunc, opts ...func(*RunHTTPOptions)) error {
	if cfg == nil {
		return fmt.Errorf("cfg is nil")
	}
	if log == nil {
		return fmt.Errorf("log is nil")
	}

	o := defaultRunHTTPOptions()
	for _, apply := range opts {
		if apply != nil {
			apply(&o)
		}
	}

	// 初始化 Consul 客户端（失败不阻塞服务启动）
	consulClient, err := discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port)
	if err != nil {
		log.Warnf("failed to connect to Consul: %v", err)
		consulClient = nil
	}

	r := chi.NewRouter()
	r.Use(Recovery(log))
	r.Use(Tracing(cfg.Server.Name))
	r.Use(AccessLog(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(RateLimit(o.RateLimiter))
	r.Use(Breaker(o.Breaker))
	r.Use(Actor(cfg.Auth, log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if register != nil {
		register(r)
	}

	// 注册到 Consul（成功才 defer 注销）
	if consulClient != nil {
		serviceID := fmt.Sprintf("%s-%s", cfg.Server.Name, uuid.New().String())
		registry := discovery.NewServiceRegistry(
			consulClient,
			serviceID,
			cfg.Server.Name,
			cfg.Server.Host,
			cfg.Server.HTTPPort,
			[]string{"http"},
		)
		if err := registry.Register(); err != nil {
			log.Warnf("failed to register service to Consul: %v", err)
		} else {
			log.Infof("Service registered to Consul: %s", serviceID)
			defer func() {
				if err := registry.Deregister(); err != nil {
					log.Warnf("failed to deregister service from Consul: %v", err)
				}
			}()
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Infof("%s starting on %s", cfg.Server.Name, srv.Addr)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Infof("received signal %v, shutting down...", sig)
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http serve failed: %w", err)
		}
		return nil
	}

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), o.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("http shutdown timeout, forcing close: %v", err)
		_ = srv.Close()
	} else {
		log.Info("http server stopped gracefully")
	}

	return nil
}

// WithShutdownTimeout 修改优雅退出等待时间。
func WithShutdownTimeout(d time.Duration) func(*RunHTTPOptions) {
	return func(o *RunHTTPOptions) {
		if d > 0 {
			o.ShutdownTimeout = d
		}
	}
}

// WithRateLimiter 替换全局限流器（nil 表示关闭限流）。
func WithRateLimiter(l middleware.RateLimiter) func(*RunHTTPOptions) {
	return func(o *RunHTTPOptions) {
		o.RateLimiter = l
	}
}

// WithBreaker 替换存储层熔断器（nil 表示关闭熔断）。
func WithBreaker(cb *middleware.CircuitBreaker) func(*RunHTTPOptions) {
	return func(o *RunHTTPOptions) {
		o.Breaker = cb
	}
}
