package config

type App struct {
	Port         string `env:"APP_PORT" default:"10000"`
	DatabaseURL  string `env:"DATABASE_URL,required"`
	BotToken     string `env:"TELEGRAM_BOT_TOKEN"`
	PDFRenderURL string `env:"PDF_RENDER_URL,required"`
	S3Endpoint   string `env:"S3_ENDPOINT"`
	S3Region     string `env:"S3_REGION"`
	S3Bucket     string `env:"S3_BUCKET,required"`
	S3AccessKey  string `env:"S3_ACCESS_KEY"`
	S3SecretKey  string `env:"S3_SECRET_KEY"`
	S3PublicURL  string `env:"S3_PUBLIC_URL,required"`
	WebAppURL    string `env:"WEBAPP_URL"`
	Env          string `env:"APP_ENV" default:"dev"`
}
