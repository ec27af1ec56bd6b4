package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/2beens/gymrpg/internal/auth"
	"github.com/2beens/gymrpg/internal/config"
	"github.com/2beens/gymrpg/internal/db"
	"github.com/2beens/gymrpg/internal/exercises"
	"github.com/2beens/gymrpg/internal/middleware"
	"github.com/2beens/gymrpg/internal/notify"
	"github.com/2beens/gymrpg/internal/stats"
	gymsync "github.com/2beens/gymrpg/internal/sync"
	"github.com/2beens/gymrpg/internal/telemetry/metrics"
	"github.com/2beens/gymrpg/internal/telemetry/tracing"
	"github.com/2beens/gymrpg/internal/training"
	"github.com/2beens/gymrpg/internal/training/postgres"
	"github.com/2beens/gymrpg/pkg"
)

type eventPublisher interface {
	PublishLevelUp(ctx context.Context, event notify.LevelUp) error
	Close() error
}

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	tokenConfig auth.Config
	dbPool      *pgxpool.Pool // nil when running on the memory store
	store       training.Store
	catalog     *exercises.Catalog
	publisher   eventPublisher

	redisClient *redis.Client
	revocations *auth.Revocations

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	TokenSecret             string
	RedisPassword           string
	PostgresPassword        string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	if params.TokenSecret == "" {
		return nil, errors.New("token secret not set")
	}

	promRegistry := metrics.NewRegistry(params.VersionInfo)
	metricsManager := metrics.NewManager("gymrpg", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	s := &Server{
		config:      cfg,
		versionInfo: params.VersionInfo,
		tokenConfig: auth.Config{
			Secret: params.TokenSecret,
			Issuer: cfg.TokenIssuer,
			TTL:    cfg.TokenTTL.Duration,
		},
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
	}

	switch cfg.Store {
	case config.StoreMemory:
		log.Warnln("using in-memory store, nothing will survive a restart")
		s.store = training.NewMemoryStore()
	default:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         cfg.PostgresUser,
			DBPassword:     params.PostgresPassword,
			MaxConns:       cfg.PostgresMaxConns,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		if err := db.RegisterPoolMetrics(promRegistry, dbPool, cfg.PostgresDBName); err != nil {
			return nil, fmt.Errorf("register db pool metrics: %w", err)
		}

		pgStore := postgres.NewStore(dbPool)
		if err := pgStore.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate db: %w", err)
		}
		s.dbPool = dbPool
		s.store = pgStore
	}

	s.redisClient = redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})
	rdbStatus := s.redisClient.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}
	s.revocations = auth.NewRevocations(s.redisClient)

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "gymrpg", s.redisClient)
	if err != nil {
		return nil, err
	}
	s.otelShutdown = otelShutdown

	if cfg.KafkaEnabled {
		log.Debugf("publishing progression events to kafka topic [%s]", cfg.KafkaTopic)
		s.publisher = notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	} else {
		s.publisher = notify.NopPublisher{}
	}

	s.catalog = exercises.NewCatalog(s.store, cfg.ExercisesCacheTTL.Duration, cfg.ExercisesCacheSizeBytes)
	if _, err := s.catalog.Seed(ctx); err != nil {
		return nil, fmt.Errorf("seed exercise catalog: %w", err)
	}

	return s, nil
}

func (s *Server) routerSetup(pushRateLimiter middleware.RequestRateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("gymrpg-router"))

	r.HandleFunc("/", s.handleRoot).Methods("GET", "OPTIONS").Name("root")
	r.HandleFunc("/version", s.handleVersion).Methods("GET", "OPTIONS").Name("version")

	auth.NewHandler(s.revocations).SetupRoutes(r)
	exercises.NewHandler(s.catalog).SetupRoutes(r)
	stats.NewHandler(stats.NewService(s.store)).SetupRoutes(r)

	syncHandler := gymsync.NewHandler(
		gymsync.NewReconciler(s.store, s.publisher, s.metricsManager),
		s.config.MaxPushBodyBytes,
	)
	syncHandler.SetupRoutes(r, middleware.RateLimit(
		pushRateLimiter,
		"sync-push",
		s.config.SyncRateLimitPerMin,
		s.metricsManager,
	))

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.tokenConfig, s.revocations)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"version":%q}`, s.versionInfo))
}

func (s *Server) Serve(host string, port int) {
	router := s.routerSetup(redis_rate.NewLimiter(s.redisClient))

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking pushes before the stores go away
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if err := s.publisher.Close(); err != nil {
		log.Errorf("failed to close event publisher: %s", err)
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}
