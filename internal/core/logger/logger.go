package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"powerfolio/internal/core/config"
)

type Options struct {
	Level       string // debug / info / warn / error
	JSON        bool
	AddCaller   bool
	Development bool
	File        string // 非空则额外写入文件并按大小切割
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
	Compress    bool
}

// New 按配置构建 logger；返回的 cleanup 负责 Sync
func New(c config.Log) (*zap.Logger, func()) {
	return Build(Options{
		Level:       c.Level,
		JSON:        c.JSON,
		AddCaller:   true,
		Development: !c.JSON,
		File:        c.File,
		MaxSizeMB:   c.MaxSizeMB,
		MaxBackups:  c.MaxBackups,
		MaxAgeDays:  c.MaxAgeDays,
		Compress:    c.Compress,
	})
}

func Build(opt Options) (*zap.Logger, func()) {
	var lvl zapcore.Level
	if err := lvl.Set(opt.Level); err != nil {
		lvl = zapcore.InfoLevel
	}

	enc := encoder(opt.JSON)
	cores := []zapcore.Core{zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), lvl)}

	var rotator *lumberjack.Logger
	if opt.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   opt.File,
			MaxSize:    max(1, opt.MaxSizeMB),
			MaxBackups: max(0, opt.MaxBackups),
			MaxAge:     max(0, opt.MaxAgeDays),
			Compress:   opt.Compress,
		}
		// 文件始终 JSON，便于采集
		cores = append(cores, zapcore.NewCore(encoder(true), zapcore.AddSync(rotator), lvl))
	}

	core := zapcore.NewSamplerWithOptions(zapcore.NewTee(cores...), time.Second, 100, 100)

	var zopts []zap.Option
	if opt.AddCaller {
		zopts = append(zopts, zap.AddCaller())
	}
	if opt.Development {
		zopts = append(zopts, zap.Development())
	}
	l := zap.New(core, zopts...)
	return l, func() {
		_ = l.Sync()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
}

func encoder(json bool) zapcore.Encoder {
	if json {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.TimeKey = "ts"
		cfg.EncodeCaller = zapcore.ShortCallerEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

// RedirectStdLog 把标准库 log 输出接到 zap（gorm/driver 的零散输出）
func RedirectStdLog(l *zap.Logger, level zapcore.Level) func() {
	undo, err := zap.RedirectStdLogAt(l, level)
	if err != nil {
		return func() {}
	}
	return undo
}
