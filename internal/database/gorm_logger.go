package database

import (
	"context"
	"time"

	"abserver/pkg/logger"

	glogger "gorm.io/gorm/logger"
)

// gormLogger 把 SQL 错误写到 logrus 的 error 级别。
// 唯一约束冲突由调用方处理，只记 debug
type gormLogger struct {
	glogger.Interface
}

func newGormLogger() glogger.Interface {
	return gormLogger{glogger.New(errorWriter{}, glogger.Config{
		SlowThreshold:             time.Second * 5,
		LogLevel:                  glogger.Error,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
	})}
}

func (l gormLogger) LogMode(level glogger.LogLevel) glogger.Interface {
	return gormLogger{l.Interface.LogMode(level)}
}

func (l gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if IsUniqueViolation(err) {
		sql, _ := fc()
		logger.WithContext(ctx).WithField("sql", sql).Debugf("Unique constraint conflict: %v", err)
		return
	}
	l.Interface.Trace(ctx, begin, fc, err)
}

type errorWriter struct{}

func (errorWriter) Printf(format string, args ...interface{}) {
	logger.GetLogger().Errorf(format, args...)
}
