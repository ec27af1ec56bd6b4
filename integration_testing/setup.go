package integration_testing

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/2beens/gymrpg/internal"
	"github.com/2beens/gymrpg/internal/auth"
	"github.com/2beens/gymrpg/internal/config"
	"github.com/2beens/gymrpg/internal/training"
	"github.com/2beens/gymrpg/internal/training/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const (
	serverPort  = 9000
	serverHost  = "localhost"
	tokenSecret = "integration-test-secret"
)

var serverEndpoint = fmt.Sprintf("http://%s:%d", serverHost, serverPort)

type Suite struct {
	store      *postgres.Store
	storePool  *pgxpool.Pool
	dockerPool *dockertest.Pool
	server     *internal.Server
	config     *config.Config
	teardown   []func()
}

func newSuite(ctx context.Context) *Suite {
	var err error
	suite := &Suite{
		teardown: make([]func(), 0),
	}

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	suite.dockerPool, err = dockertest.NewPool("")
	if err != nil {
		log.Fatalf("could not create new dockertest pool: %s", err)
	}

	// uses pool to try to connect to Docker
	if err = suite.dockerPool.Client.Ping(); err != nil {
		log.Fatalf("could not ping dockertest pool: %s", err)
	}

	redisPort, err := suite.redisSetup()
	if err != nil {
		suite.cleanup()
		log.Fatalf("failed to setup redis: %s", err.Error())
	}

	pgPort, err := suite.postgresSetup(ctx)
	if err != nil {
		suite.cleanup()
		log.Fatalf("failed to setup postgres: %s", err)
	}

	suite.config, err = config.Parse("development", fmt.Sprintf(`
[development]
host = %q
port = %d
log_level = "error"
store = "postgres"
postgres_host = "localhost"
postgres_port = %q
postgres_user = "postgres"
redis_host = "localhost"
redis_port = %q
prometheus_metrics_host = "localhost"
prometheus_metrics_port = "2113"
`, serverHost, serverPort, pgPort, redisPort))
	if err != nil {
		suite.cleanup()
		log.Fatalf("parse test config: %s", err)
	}

	suite.server, err = internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:      suite.config,
			VersionInfo: "test-version-info",
			TokenSecret: tokenSecret,
		},
	)
	if err != nil {
		suite.cleanup()
		log.Fatalf("new server: %s", err)
	}

	suite.server.Serve(suite.config.Host, suite.config.Port)

	if err := suite.dockerPool.Retry(func() error {
		resp, err := http.Get(serverEndpoint + "/")
		if err != nil {
			return err
		}
		return resp.Body.Close()
	}); err != nil {
		suite.cleanup()
		log.Fatalf("server not reachable: %s", err)
	}

	return suite
}

func (s *Suite) cleanup() {
	if s.server != nil {
		s.server.GracefulShutdown()
	}
	if s.storePool != nil {
		s.storePool.Close()
	}
	for _, teardown := range s.teardown {
		teardown()
	}
}

// newOwner stores a fresh owner and returns it with a valid bearer token.
func (s *Suite) newOwner(ctx context.Context, username string) (*training.User, string, error) {
	owner, err := s.store.CreateUser(ctx, &training.User{
		Username: username,
		Email:    username + "@example.com",
	})
	if err != nil {
		return nil, "", err
	}

	token, err := auth.IssueToken(owner.Key, auth.Config{
		Secret: tokenSecret,
		Issuer: s.config.TokenIssuer,
		TTL:    time.Hour,
	}, time.Now())
	if err != nil {
		return nil, "", err
	}
	return owner, token, nil
}

func (s *Suite) redisSetup() (string, error) {
	redisResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Name:       "gymrpg-test-redis",
		Tag:        "7",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		return "", fmt.Errorf("run redis: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		redisResource.Close()
	})

	return redisResource.GetPort("6379/tcp"), nil
}

func (s *Suite) postgresSetup(ctx context.Context) (string, error) {
	pgResource, err := s.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=gymrpg",
			"POSTGRES_HOST_AUTH_METHOD=trust",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return "", fmt.Errorf("dockerpool run postgres: %s", err)
	}

	s.teardown = append(s.teardown, func() {
		pgResource.Close()
	})

	pgPort := pgResource.GetPort("5432/tcp")
	dsn := fmt.Sprintf("postgres://postgres@localhost:%s/gymrpg?sslmode=disable", pgPort)

	if err := s.dockerPool.Retry(func() error {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Ping()
	}); err != nil {
		return "", fmt.Errorf("ping db: %s", err)
	}

	// the server migrates the schema on start, the suite only needs a handle to create owners
	s.storePool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		return "", fmt.Errorf("create connection pool: %s", err)
	}
	s.store = postgres.NewStore(s.storePool)

	return pgPort, nil
}
