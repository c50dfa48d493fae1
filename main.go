package main

import (
	"fmt"
	"os"
	"strconv"
	"syscall"
	"time"

	tg "github.com/amarnathcjd/gogram/telegram"
	dotenv "github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"main/modules"
	"main/modules/db"
	"main/modules/gate"
)

var startTimeStamp = time.Now().Unix()

func main() {
	dotenv.Load()

	lock, err := acquireInstanceLock()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lock.Close()

	var stream *NetworkLogger
	if port := os.Getenv("LOGSTREAM_PORT"); port != "" {
		stream = NewNetworkLogger(port)
		stream.Start()
		defer stream.Stop()
	}
	logger := newLogger(stream)
	defer logger.Sync()

	db.SetPath(os.Getenv("DB_PATH"))
	defer db.CloseDB()

	appId, _ := strconv.Atoi(os.Getenv("APP_ID"))
	client, err := tg.NewClient(tg.ClientConfig{
		AppID:    int32(appId),
		AppHash:  os.Getenv("APP_HASH"),
		LogLevel: tg.LogInfo,
		Session:  "session.dat",
	})
	if err != nil {
		logger.Fatal("failed to create client", zap.Error(err))
	}
	client.Log.SetColor(false)

	client.Conn()
	client.LoginBot(os.Getenv("BOT_TOKEN"))

	if err := modules.InitGate(client, logger, gateConfig()); err != nil {
		logger.Fatal("failed to initialize protection gate", zap.Error(err))
	}

	initFunc(client)

	me, err := client.GetMe()
	if err != nil {
		logger.Fatal("failed to get self", zap.Error(err))
	}

	logger.Info("authenticated",
		zap.String("username", me.Username),
		zap.String("took", time.Since(time.Unix(startTimeStamp, 0)).String()))
	client.Idle()
}

func gateConfig() gate.Config {
	cfg := gate.Config{}
	if d, err := time.ParseDuration(os.Getenv("CAPTCHA_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	if n, err := strconv.Atoi(os.Getenv("CAPTCHA_MAX_ATTEMPTS")); err == nil && n > 0 {
		cfg.MaxAttempts = n
	}
	return cfg
}

func newLogger(stream *NetworkLogger) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if stream != nil {
		sinks = append(sinks, zapcore.AddSync(stream))
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.NewMultiWriteSyncer(sinks...),
		zap.InfoLevel,
	)
	return zap.New(core)
}

// acquireInstanceLock takes an exclusive flock on the lock file so a
// second instance exits instead of double-processing updates.
func acquireInstanceLock() (*os.File, error) {
	path := os.Getenv("LOCK_FILE")
	if path == "" {
		path = "sentinel.lock"
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("another instance is already running")
	}

	f.Truncate(0)
	f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	return f, nil
}
