package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	esv7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	rv8 "github.com/go-redis/redis/v8"
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/riandyrn/otelchi"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/taksyapp/tasks-api/cmd/internal"
	internaldomain "github.com/taksyapp/tasks-api/internal"
	"github.com/taksyapp/tasks-api/internal/auth"
	"github.com/taksyapp/tasks-api/internal/elasticsearch"
	"github.com/taksyapp/tasks-api/internal/envvar"
	"github.com/taksyapp/tasks-api/internal/kafka"
	"github.com/taksyapp/tasks-api/internal/memcached"
	"github.com/taksyapp/tasks-api/internal/mongodb"
	"github.com/taksyapp/tasks-api/internal/redis"
	"github.com/taksyapp/tasks-api/internal/rest"
	"github.com/taksyapp/tasks-api/internal/service"
	"github.com/taksyapp/tasks-api/internal/uploads"
)

func main() {
	var env, address string

	flag.StringVar(&env, "env", "", "Environment Variables filename")
	flag.StringVar(&address, "address", ":9234", "HTTP Server Address")
	flag.Parse()

	errC, err := run(env, address)
	if err != nil {
		log.Fatalf("Couldn't run: %s", err)
	}

	if err := <-errC; err != nil {
		log.Fatalf("Error while running: %s", err)
	}
}

func run(env, address string) (<-chan error, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "zap.NewProduction")
	}

	if err := envvar.Load(env); err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "envvar.Load")
	}

	vault, err := internal.NewVaultProvider()
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewVaultProvider")
	}

	conf := envvar.New(vault)

	db, err := internal.NewMongoDB(conf)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewMongoDB")
	}

	es, err := internal.NewElasticSearch(conf)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewElasticSearch")
	}

	kafkaProducer, err := internal.NewKafkaProducer(conf)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewKafkaProducer")
	}

	rdb, err := internal.NewRedis(conf)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewRedis")
	}

	memcachedClient, err := internal.NewMemcached(conf)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewMemcached")
	}

	metrics, err := internal.NewOTExporter(conf, "tasks-api-server")
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "internal.NewOTExporter")
	}

	jwtSecret, err := conf.Get("JWT_SECRET")
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "conf.Get JWT_SECRET")
	}

	uploadsDir, err := conf.Get("UPLOADS_DIR")
	if err != nil {
		uploadsDir = "uploads"
	}

	docs, err := uploads.NewStore(uploadsDir)
	if err != nil {
		return nil, internaldomain.WrapErrorf(err, internaldomain.ErrorCodeUnknown, "uploads.NewStore")
	}

	logging := func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Info(r.Method,
				zap.Time("time", time.Now()),
				zap.String("url", r.URL.String()),
			)
			h.ServeHTTP(w, r)
		})
	}

	corsOrigins, _ := conf.Get("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "*"
	}

	strictOwnership, _ := conf.Get("AUTHZ_STRICT_OWNERSHIP")

	srv, err := newServer(serverConfig{
		Address:       address,
		DB:            db,
		ElasticSearch: es,
		Kafka:         kafkaProducer,
		Redis:         rdb,
		Memcached:     memcachedClient,
		Metrics:       metrics,
		Middlewares:   []func(next http.Handler) http.Handler{otelchi.Middleware("tasks-api-server"), logging},
		Logger:        logger,
		JWTSecret:     jwtSecret,
		Documents:     docs,
		CORSOrigins:   corsOrigins,
		Gate:          service.Gate{StrictOwnership: strictOwnership == "true"},
	})
	if err != nil {
		return nil, fmt.Errorf("newServer %w", err)
	}

	errC := make(chan error, 1)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		defer func() {
			logger.Sync()
			_ = db.Client().Disconnect(context.Background())
			kafkaProducer.Close()
			rdb.Close()
			stop()
			cancel()
			close(errC)
		}()

		srv.SetKeepAlivesEnabled(false)

		if err := srv.Shutdown(ctxTimeout); err != nil {
			errC <- err
		}
		logger.Info("Shutdown completed")
	}()

	go func() {
		logger.Info("Listening and serving", zap.String("address", address))
		// "ListenAndServe always returns a non-nil error. After Shutdown or Close, the returned error is
		// ErrServerClosed."
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errC <- err
		}
	}()

	return errC, nil
}

type serverConfig struct {
	Address       string
	DB            *mongo.Database
	ElasticSearch *esv7.Client
	Kafka         *internal.KafkaProducer
	Redis         *rv8.Client
	Memcached     *memcache.Client
	Metrics       http.Handler
	Middlewares   []func(next http.Handler) http.Handler
	Logger        *zap.Logger
	JWTSecret     string
	Documents     *uploads.Store
	CORSOrigins   string
	Gate          service.Gate
}

func newServer(conf serverConfig) (*http.Server, error) {
	router := chi.NewRouter()
	router.Use(render.SetContentType(render.ContentTypeJSON))
	for _, mw := range conf.Middlewares {
		router.Use(mw)
	}

	taskRepo := memcached.NewTask(conf.Memcached, mongodb.NewTask(conf.DB), conf.Logger)
	userRepo := mongodb.NewUser(conf.DB)
	search := elasticsearch.NewTask(conf.ElasticSearch)
	msgBroker := kafka.NewTask(conf.Kafka.Producer, conf.Kafka.Topic)

	tokens := auth.NewTokens(conf.JWTSecret)
	denylist := redis.NewTokens(conf.Redis)

	taskSvc := service.NewTask(conf.Logger, taskRepo, search, msgBroker, userRepo, conf.Gate)
	userSvc := service.NewUser(conf.Logger, userRepo, tokens, denylist, conf.Gate)

	taskHandler := rest.NewTaskHandler(taskSvc, conf.Documents)
	userHandler := rest.NewUserHandler(userSvc)

	router.Route("/api", func(r chi.Router) {
		userHandler.RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(rest.Authenticator(tokens, denylist))

			taskHandler.Register(r)
			userHandler.Register(r)
		})
	})

	rest.RegisterOpenAPI(router)

	router.Handle("/uploads/*", http.StripPrefix("/uploads/", conf.Documents.Handler()))
	router.Handle("/metrics", conf.Metrics)

	lmt := tollbooth.NewLimiter(3, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Second})
	lmtmw := tollbooth.LimitHandler(lmt, router)

	handler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(conf.CORSOrigins, ","),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}).Handler(lmtmw)

	return &http.Server{
		Handler:           handler,
		Addr:              conf.Address,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, nil
}
