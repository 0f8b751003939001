//go:build integration

package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/api/apifake"
	"github.com/jrsteele09/readify/sessions"
	"github.com/jrsteele09/readify/sessions/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type RedisRepoSuite struct {
	suite.Suite
	container testcontainers.Container
	client    *redis.Client
	repo      *redisstore.RedisRepo
}

func TestRedisRepoSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisRepoSuite))
}

func (s *RedisRepoSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	url, err := container.ConnectionString(ctx)
	s.Require().NoError(err)

	s.client, err = redisstore.Connect(ctx, url)
	s.Require().NoError(err)
	s.repo = redisstore.New(s.client)
}

func (s *RedisRepoSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *RedisRepoSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *RedisRepoSuite) TestSetGetDelete() {
	ctx := context.Background()

	_, err := s.repo.Get(ctx, "k")
	s.Require().ErrorIs(err, sessions.ErrNotFound)

	s.Require().NoError(s.repo.Set(ctx, "k", "v"))
	value, err := s.repo.Get(ctx, "k")
	s.Require().NoError(err)
	s.Equal("v", value)

	raw, err := s.client.Get(ctx, "readify:k").Result()
	s.Require().NoError(err)
	s.Equal("v", raw)

	s.Require().NoError(s.repo.Delete(ctx, "k"))
	s.Require().NoError(s.repo.Delete(ctx, "k"))
	_, err = s.repo.Get(ctx, "k")
	s.Require().ErrorIs(err, sessions.ErrNotFound)
}

func (s *RedisRepoSuite) TestTTL() {
	ctx := context.Background()
	repo := redisstore.New(s.client, redisstore.WithTTL(time.Minute), redisstore.WithKeyPrefix("ttl:"))

	s.Require().NoError(repo.Set(ctx, "k", "v"))
	ttl, err := s.client.TTL(ctx, "ttl:k").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)
}

// Two frontend instances sharing Redis see the same browser session.
func (s *RedisRepoSuite) TestSessionSharedBetweenInstances() {
	ctx := context.Background()
	fake, srv := apifake.Start()
	defer srv.Close()
	fake.AddUser(7, "reader@example.com", "reader", "secret")
	client := api.New(srv.URL + "/api")

	first, err := sessions.Scope(redisstore.New(s.client), "browser-1")
	s.Require().NoError(err)
	store, err := sessions.Open(ctx, first, client)
	s.Require().NoError(err)
	s.Require().NoError(store.Login(ctx, "reader@example.com", "secret"))

	second, err := sessions.Scope(redisstore.New(s.client), "browser-1")
	s.Require().NoError(err)
	restored, err := sessions.Open(ctx, second, client)
	s.Require().NoError(err)
	s.True(restored.Authenticated())
	s.Equal("7", restored.Identity().UserID)
}
