package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"zonecheck/internal/zoning"
	"zonecheck/pkg/platform/sentinel"
)

type MemoryCacheSuite struct {
	suite.Suite
	cache *InMemory
	ctx   context.Context
}

func TestMemoryCacheSuite(t *testing.T) {
	suite.Run(t, new(MemoryCacheSuite))
}

func (s *MemoryCacheSuite) SetupTest() {
	s.cache = NewInMemory()
	s.ctx = context.Background()
}

func ruleSetFixture(jurisdiction string, districts ...string) zoning.RuleSet {
	rs := zoning.RuleSet{
		Jurisdiction: jurisdiction,
		Districts:    make(map[string]zoning.DistrictRules, len(districts)),
	}
	for _, code := range districts {
		rs.Districts[code] = zoning.DistrictRules{
			Code: code,
			Uses: zoning.AllowedUses{ByRight: []string{"park"}},
		}
	}
	return rs
}

func (s *MemoryCacheSuite) TestGetAndPut() {
	s.Run("missing jurisdiction returns ErrNotFound", func() {
		_, err := s.cache.Get(s.ctx, "springfield")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("put then get round-trips the entry", func() {
		fetchedAt := time.Now().Add(-time.Hour)
		s.Require().NoError(s.cache.Put(s.ctx, "springfield", ruleSetFixture("springfield", "R-1"), fetchedAt))

		entry, err := s.cache.Get(s.ctx, "springfield")
		s.Require().NoError(err)
		s.Equal("springfield", entry.Jurisdiction)
		s.True(entry.FetchedAt.Equal(fetchedAt))
		s.Contains(entry.RuleSet.Districts, "R-1")
	})

	s.Run("jurisdictions do not collide", func() {
		s.Require().NoError(s.cache.Put(s.ctx, "springfield", ruleSetFixture("springfield", "R-1"), time.Now()))
		_, err := s.cache.Get(s.ctx, "shelbyville")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryCacheSuite) TestReplaceIsAtomic() {
	old := time.Now().Add(-10 * 24 * time.Hour)
	s.Require().NoError(s.cache.Put(s.ctx, "springfield", ruleSetFixture("springfield", "R-1"), old))

	// A reader holding the old entry keeps it across a replacement.
	held, err := s.cache.Get(s.ctx, "springfield")
	s.Require().NoError(err)

	fresh := time.Now()
	s.Require().NoError(s.cache.Put(s.ctx, "springfield", ruleSetFixture("springfield", "R-1", "C-2"), fresh))

	s.Len(held.RuleSet.Districts, 1, "in-flight reader unaffected by replacement")

	replaced, err := s.cache.Get(s.ctx, "springfield")
	s.Require().NoError(err)
	s.Len(replaced.RuleSet.Districts, 2)
	s.True(replaced.FetchedAt.Equal(fresh), "replacement resets age")
}

func (s *MemoryCacheSuite) TestAge() {
	fetchedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.cache.Put(s.ctx, "springfield", ruleSetFixture("springfield", "R-1"), fetchedAt))

	entry, err := s.cache.Get(s.ctx, "springfield")
	s.Require().NoError(err)

	now := fetchedAt.Add(36 * time.Hour)
	s.Equal(36*time.Hour, entry.Age(now))
}

func (s *MemoryCacheSuite) TestConcurrentAccess() {
	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.cache.Put(s.ctx, "springfield", ruleSetFixture("springfield", "R-1"), time.Now())
			_, _ = s.cache.Get(s.ctx, "springfield")
		}()
	}
	wg.Wait()

	entry, err := s.cache.Get(s.ctx, "springfield")
	s.Require().NoError(err)
	s.Equal("springfield", entry.Jurisdiction)
}
