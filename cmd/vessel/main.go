package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/vessel-net/vessel/client"
	"github.com/vessel-net/vessel/internal/config"
	"github.com/vessel-net/vessel/internal/domain"
	"github.com/vessel-net/vessel/internal/infrastructure/database"
	"github.com/vessel-net/vessel/internal/infrastructure/repository"
	"github.com/vessel-net/vessel/internal/present/rest"
	"github.com/vessel-net/vessel/internal/present/rest/middleware"
	"github.com/vessel-net/vessel/internal/service"
	"github.com/vessel-net/vessel/internal/usecase"
	"github.com/vessel-net/vessel/token"
)

func main() {
	configPath := os.Getenv("VESSEL_CONFIG")
	if configPath == "" {
		configPath = "/etc/vessel/config.yaml"
	}

	conf, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if conf.Server.EnableTrace {
		shutdown, err := setupTrace(conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to set up tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer shutdown(context.Background())
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		panic("failed to connect database")
	}

	err = database.MigratePostgres(db)
	if err != nil {
		panic("failed to migrate database")
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)
	cl := client.New(conf.NodeInfo.FQDN)

	domainConf := domain.Config{
		FQDN:        conf.NodeInfo.FQDN,
		URL:         conf.NodeInfo.URL,
		PrivateKey:  conf.NodeInfo.PrivateKey,
		TokenSecret: conf.Server.TokenSecret,
		Title:       conf.NodeInfo.Title,
		Description: conf.NodeInfo.Description,
		Address:     conf.NodeInfo.Address,
	}

	tokens := token.NewManager(conf.Server.TokenSecret, conf.NodeInfo.FQDN, token.DefaultTTL)

	publicationRepo := repository.NewPublicationRepository(db, mc)
	commentRepo := repository.NewCommentRepository(db)
	connectionRepo := repository.NewConnectionRepository(db)
	nodeRepo := repository.NewNodeRepository(db, cl)

	signal := service.NewSignalService(rdb)
	auth := service.NewAuthService(domainConf, tokens)
	mailer := service.NewLogMailer(conf.NodeInfo.URL)

	publicationUC := usecase.NewPublicationUsecase(publicationRepo, signal)
	commentUC := usecase.NewCommentUsecase(commentRepo, publicationRepo, tokens, mailer, signal, domainConf)
	connectionUC := usecase.NewConnectionUsecase(connectionRepo)
	nodeUC := usecase.NewNodeUsecase(nodeRepo)

	if err := nodeUC.EnsureSelf(context.Background(), domainConf); err != nil {
		slog.Error("failed to register local node", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handler := rest.NewHandler(domainConf, publicationUC, commentUC, connectionUC, nodeUC, auth, signal)
	authMiddleware := middleware.NewAuthMiddleware(auth, domainConf)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware(conf.NodeInfo.FQDN))
	}
	e.Use(authMiddleware.IdentifySession)

	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(":8000"))
}

func setupTrace(endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
