package main

import (
	"context"
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/joho/godotenv"

	"github.com/cupshup/ops-backend/internal/ocr"
	"github.com/cupshup/ops-backend/pkg/config"
	"github.com/cupshup/ops-backend/pkg/logger"
)

const functionName = "extract-order-id"

var (
	cfg  *config.OCRFunctionConfig
	logg *logger.Logger
)

func init() {
	logg = logger.New(logger.Options{ServiceName: "ocr-function"})
	_ = godotenv.Load()

	var err error
	cfg, err = config.LoadOCRFunction()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "ocr-function",
		Level:       logger.ParseLevel(cfg.LogLevel),
	})

	// Credentials are read on the first request.
	functions.HTTP(functionName, ocr.NewHandler(ocr.HandlerConfig{
		CredentialsEnvVar: cfg.CredentialsEnvVar,
		FetchTimeout:      cfg.FetchTimeout,
		MaxImageBytes:     int64(cfg.MaxImageMB) << 20,
		LookupEnv:         os.LookupEnv,
		Logger:            logg,
	}).ServeHTTP)
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.Env,
		"port":     port,
		"function": functionName,
	})
	logg.Info(ctx, "starting ocr function")
	if err := funcframework.Start(port); err != nil {
		logg.Error(ctx, "ocr function stopped unexpectedly", err)
		os.Exit(1)
	}
}
