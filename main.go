// Package main rental-contract API.
//
// @title           Bike Rental Contract API
// @version         1.0
// @description     Rental lifecycle service: contract and return-act signing, admin return finalization and verification.
// @BasePath        /
// @schemes         http
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/kerpat/serverdogovor/app/echoServer"
	adminctrl "github.com/kerpat/serverdogovor/app/echoServer/controller/admin"
	userctrl "github.com/kerpat/serverdogovor/app/echoServer/controller/user"
	"github.com/kerpat/serverdogovor/app/echoServer/validation"
	"github.com/kerpat/serverdogovor/config"
	bikerepo "github.com/kerpat/serverdogovor/repository/bike"
	clientrepo "github.com/kerpat/serverdogovor/repository/client"
	"github.com/kerpat/serverdogovor/repository/pdfrender"
	rentalrepo "github.com/kerpat/serverdogovor/repository/rental"
	storagerepo "github.com/kerpat/serverdogovor/repository/storage"
	telegramrepo "github.com/kerpat/serverdogovor/repository/telegram"
	"github.com/kerpat/serverdogovor/service/document"
	"github.com/kerpat/serverdogovor/service/notify"
	rentalsvc "github.com/kerpat/serverdogovor/service/rental"
	"github.com/kerpat/serverdogovor/util/database"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: one process-scoped pool
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	cr := clientrepo.New(db)
	rr := rentalrepo.New(db)
	br := bikerepo.New(db)
	engine := pdfrender.NewHTTP(cfg.PDFRenderURL)
	store, err := storagerepo.NewS3(ctx, storagerepo.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		log.Error("s3 init failed", "err", err)
		os.Exit(1)
	}
	tg := telegramrepo.NewHTTP(cfg.BotToken)

	// services
	pub := document.NewPublisher(engine, store)
	notifier := notify.New(tg, log)
	rs := rentalsvc.New(cr, rr, br, pub, notifier, cfg.WebAppURL, log)

	// controllers
	v := validator.New()
	userC := userctrl.New(rs, v, log)
	adminC := adminctrl.New(rs, v, log)

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		User:  userC,
		Admin: adminC,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	slog.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
