package main

import (
	"flag"
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/MpMogale/AVPermitSystemV2/internal/common/config"
	"github.com/MpMogale/AVPermitSystemV2/internal/common/db"
	"github.com/MpMogale/AVPermitSystemV2/internal/common/logger"
	"github.com/MpMogale/AVPermitSystemV2/internal/common/server"
	"github.com/MpMogale/AVPermitSystemV2/internal/common/tracing"
	"github.com/MpMogale/AVPermitSystemV2/internal/dashboard"
	"github.com/MpMogale/AVPermitSystemV2/internal/load"
	"github.com/MpMogale/AVPermitSystemV2/internal/owner"
	"github.com/MpMogale/AVPermitSystemV2/internal/permit"
	"github.com/MpMogale/AVPermitSystemV2/internal/route"
	"github.com/MpMogale/AVPermitSystemV2/internal/vehicle"
)

var (
	configPath = flag.String("config", "configs/permit-api.json", "配置文件路径")
	consulKey  = flag.String("consul-key", "", "从 Consul KV 读配置（留空则读本地文件）")
	consulHost = flag.String("consul-host", "127.0.0.1", "Consul 地址（仅 -consul-key 时生效）")
	consulPort = flag.Int("consul-port", 8500, "Consul 端口（仅 -consul-key 时生效）")
)

func main() {
	flag.Parse()

	// .env 可选，用于本地开发注入 DB_PASSWORD / JWT_SECRET 等
	_ = godotenv.Load()

	var (
		cfg *config.Config
		err error
	)
	if *consulKey != "" {
		cfg, err = config.LoadConfigFromConsulKV(*consulHost, *consulPort, *consulKey)
	} else {
		cfg, err = config.LoadConfig(*configPath)
	}
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	// 初始化链路追踪
	tracer, closer, err := tracing.InitTracer(cfg.Server.Name, cfg.Jaeger)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		defer closer.Close()
	}
	_ = tracer

	// 初始化数据库
	gormDB, err := db.NewMySQL(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.MaxIdle,
		cfg.Database.MaxOpen,
	)
	if err != nil {
		log.Fatalf("failed to init mysql: %v", err)
	}
	err = gormDB.AutoMigrate(
		&vehicle.Manufacturer{},
		&vehicle.VehicleType{},
		&vehicle.VehicleCategory{},
		&vehicle.Vehicle{},
		&vehicle.ComponentType{},
		&vehicle.VehicleComponent{},
		&vehicle.ComponentDimension{},
		&vehicle.AxleGroup{},
		&vehicle.Axle{},
		&vehicle.VehicleSpecification{},
		&vehicle.VehicleEvent{},
		&owner.Owner{},
		&owner.VehicleOwnership{},
		&route.Route{},
		&permit.PermitType{},
		&permit.Permit{},
		&permit.PermitConstraint{},
		&permit.PermitRoute{},
		&load.Load{},
		&load.LoadDimension{},
		&load.LoadProjection{},
	)
	if err != nil {
		log.Fatalf("failed to migrate mysql schema: %v", err)
	}

	// 组装领域模块
	vehicleRepo := vehicle.NewRepo(gormDB)
	ownerRepo := owner.NewRepo(gormDB)
	routeRepo := route.NewRepo(gormDB)
	permitRepo := permit.NewRepo(gormDB)
	loadRepo := load.NewRepo(gormDB)
	dashboardRepo := dashboard.NewRepo(gormDB)

	validator := permit.NewValidator(vehicleRepo, ownerRepo, permitRepo, permitRepo)
	permitSvc := permit.NewService(permitRepo, validator)

	vehicleHandler := vehicle.NewHandler(vehicleRepo, log)
	ownerHandler := owner.NewHandler(ownerRepo, log)
	routeHandler := route.NewHandler(routeRepo, log)
	permitHandler := permit.NewHandler(permitSvc, permitRepo, routeRepo, log)
	loadHandler := load.NewHandler(loadRepo, permitRepo, log)
	dashboardHandler := dashboard.NewHandler(dashboardRepo, log)

	// 启动统一的 HTTP 服务模板
	err = server.RunHTTPServer(cfg, log, func(r chi.Router) {
		r.Route("/api", func(api chi.Router) {
			vehicleHandler.Register(api)
			ownerHandler.Register(api)
			routeHandler.Register(api)
			permitHandler.Register(api)
			loadHandler.Register(api)
			dashboardHandler.Register(api)
		})
	})
	if err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
