//go:build integration

package visibility_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	platformredis "kesher/internal/platform/redis"
	"kesher/internal/visibility"
	id "kesher/pkg/domain"
	"kesher/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *visibility.RedisCache
	ctx   context.Context
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.cache = visibility.NewRedisCache(&platformredis.Client{Client: s.redis.Client}, logger)
	s.ctx = context.Background()
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisCacheSuite) TestReadThrough() {
	owner, requester := id.NewUserID(), id.NewUserID()

	_, hit := s.cache.GetCanView(s.ctx, owner, requester)
	s.False(hit)

	s.cache.SetCanView(s.ctx, owner, requester, true)
	canView, hit := s.cache.GetCanView(s.ctx, owner, requester)
	s.True(hit)
	s.True(canView)

	s.cache.SetCanView(s.ctx, owner, requester, false)
	canView, hit = s.cache.GetCanView(s.ctx, owner, requester)
	s.True(hit)
	s.False(canView)
}

func (s *RedisCacheSuite) TestInvalidate() {
	owner, requester := id.NewUserID(), id.NewUserID()
	s.cache.SetCanView(s.ctx, owner, requester, true)

	s.cache.Invalidate(s.ctx, owner, requester)

	_, hit := s.cache.GetCanView(s.ctx, owner, requester)
	s.False(hit)
}

func (s *RedisCacheSuite) TestPairsAreIndependent() {
	owner, requester := id.NewUserID(), id.NewUserID()
	s.cache.SetCanView(s.ctx, owner, requester, true)

	_, hit := s.cache.GetCanView(s.ctx, requester, owner)
	s.False(hit)
}
