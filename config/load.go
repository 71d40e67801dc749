package config

import (
	"log/slog"
	"os"
)

func Load() App {
	cfg := App{
		Port:         getenv("APP_PORT", "10000"),
		DatabaseURL:  must("DATABASE_URL"),
		BotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		PDFRenderURL: must("PDF_RENDER_URL"),
		S3Endpoint:   os.Getenv("S3_ENDPOINT"),
		S3Region:     getenv("S3_REGION", "us-east-1"),
		S3Bucket:     must("S3_BUCKET"),
		S3AccessKey:  os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:  os.Getenv("S3_SECRET_KEY"),
		S3PublicURL:  must("S3_PUBLIC_URL"),
		WebAppURL:    os.Getenv("WEBAPP_URL"),
		Env:          getenv("APP_ENV", "dev"),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
