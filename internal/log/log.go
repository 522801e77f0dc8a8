package log

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = newLogger("")

// Init replaces the default stdout logger, teeing to logFile when set.
// Called once from main before any request is served.
func Init(logFile string) {
	logger = newLogger(logFile)
}

func newLogger(logFile string) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if logFile != "" {
		if f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
			sinks = append(sinks, zapcore.AddSync(f))
		}
	}
	core := zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(sinks...), zapcore.InfoLevel)
	return zap.New(core)
}

func fieldsOf(c *fiber.Ctx, action string, err error, extra map[string]any) []zap.Field {
	fs := []zap.Field{zap.String("action", action)}
	if c != nil {
		fs = append(fs,
			zap.String("ip", c.IP()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			fs = append(fs, zap.String("req_id", rid))
		}
	}
	if err != nil {
		fs = append(fs, zap.String("err", err.Error()))
	}
	for k, v := range extra {
		fs = append(fs, zap.Any(k, v))
	}
	return fs
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	logger.Info(action, fieldsOf(c, action, nil, fields)...)
}

// Audit records state-changing actions (orders, admin writes, logins).
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	logger.Info(action, append(fieldsOf(c, action, nil, fields), zap.String("level_tag", "audit"))...)
}

// Security records rejected input, throttling and authz denials.
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	logger.Warn(action, fieldsOf(c, action, nil, fields)...)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	logger.Error(action, fieldsOf(c, action, err, fields)...)
}
