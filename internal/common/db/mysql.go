package db

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewMySQL 初始化 MySQL 连接（GORM）。
//
// TranslateError 打开后，底层唯一键冲突会被转换为 gorm.ErrDuplicatedKey，
// 业务侧（许可证编号生成重试）依赖该错误做一次重试。
func NewMySQL(host string, port int, user, password, database string, maxIdle, maxOpen int) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		user, password, host, port, database,
	)

	gormDB, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if maxIdle > 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return gormDB, nil
}
