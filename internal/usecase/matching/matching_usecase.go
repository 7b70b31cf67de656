package matching

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/metrics"
	"github.com/gdugdh24/matchmaker-backend/internal/repository"
	"golang.org/x/sync/errgroup"
)

// Cache stores ranked lists between requests. Implementations must treat an
// unreachable backend as a miss.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type Config struct {
	CandidateCap int
	TopK         int
	CacheTTL     time.Duration
}

type MatchingUseCase struct {
	profileRepo repository.ProfileRepository
	prefRepo    repository.PreferenceRepository
	discovery   *Discovery
	scorer      *Scorer
	cache       Cache
	cfg         Config
	logger      *slog.Logger
}

func NewMatchingUseCase(
	profileRepo repository.ProfileRepository,
	prefRepo repository.PreferenceRepository,
	swipeRepo repository.SwipeRepository,
	cache Cache,
	cfg Config,
	logger *slog.Logger,
) *MatchingUseCase {
	if cfg.CandidateCap <= 0 {
		cfg.CandidateCap = 100
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 20
	}
	return &MatchingUseCase{
		profileRepo: profileRepo,
		prefRepo:    prefRepo,
		discovery:   NewDiscovery(profileRepo, swipeRepo, cfg.CandidateCap, time.Now),
		scorer:      NewScorer(time.Now),
		cache:       cache,
		cfg:         cfg,
		logger:      logger,
	}
}

// MatchResult is a ranked candidate as returned to the API layer.
type MatchResult struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	ShortBio        string    `json:"short_bio"`
	AvatarURL       *string   `json:"avatar_url"`
	Gender          string    `json:"gender"`
	Interests       []string  `json:"interests"`
	PopularityScore int       `json:"popularity_score"`
	Age             *int      `json:"age"`
	Score           float64   `json:"score"`
	Breakdown       Breakdown `json:"breakdown"`
}

// FindMatches ranks candidates for userID. A non-positive limit uses the
// configured top-K; limits above the candidate cap are clamped to it.
func (uc *MatchingUseCase) FindMatches(ctx context.Context, userID string, limit int, mode Mode) ([]*MatchResult, error) {
	start := time.Now()
	if limit <= 0 {
		limit = uc.cfg.TopK
	}
	if limit > uc.cfg.CandidateCap {
		limit = uc.cfg.CandidateCap
	}
	if mode == "" {
		mode = ModeFresh
	}

	key := cacheKey(userID, mode, limit)
	if uc.cache != nil {
		var cached []*MatchResult
		hit, err := uc.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			uc.logger.Warn("match cache read failed", "user_id", userID, "error", err)
		}
		if hit {
			metrics.RankingDuration.WithLabelValues(string(mode), "hit").Observe(time.Since(start).Seconds())
			return cached, nil
		}
	}

	var (
		requester *domain.Profile
		pref      *domain.Preference
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := uc.profileRepo.FindByID(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get requester profile: %w", err)
		}
		requester = p
		return nil
	})
	g.Go(func() error {
		p, err := uc.prefRepo.FindByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get requester preferences: %w", err)
		}
		pref = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates, err := uc.discovery.Discover(ctx, requester, pref, mode)
	if err != nil {
		return nil, err
	}
	metrics.CandidatesScored.Observe(float64(len(candidates)))

	now := time.Now()
	ranked := uc.scorer.Rank(requester, pref, candidates, limit)
	results := make([]*MatchResult, 0, len(ranked))
	for _, sc := range ranked {
		results = append(results, toMatchResult(sc, now))
	}

	if uc.cache != nil && uc.cfg.CacheTTL > 0 {
		if err := uc.cache.SetJSON(ctx, key, results, uc.cfg.CacheTTL); err != nil {
			uc.logger.Warn("match cache write failed", "user_id", userID, "error", err)
		}
	}

	metrics.RankingDuration.WithLabelValues(string(mode), "miss").Observe(time.Since(start).Seconds())
	uc.logger.Debug("ranked candidates",
		"user_id", userID, "mode", mode, "pool", len(candidates), "returned", len(results))
	return results, nil
}

// InvalidateUser drops every cached ranked list of userID.
func (uc *MatchingUseCase) InvalidateUser(ctx context.Context, userID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.DeleteByPattern(ctx, "matches:"+userID+":*"); err != nil {
		uc.logger.Warn("match cache invalidation failed", "user_id", userID, "error", err)
	}
}

func cacheKey(userID string, mode Mode, limit int) string {
	return fmt.Sprintf("matches:%s:%s:%d", userID, mode, limit)
}

func toMatchResult(sc ScoredCandidate, now time.Time) *MatchResult {
	p := sc.Profile
	res := &MatchResult{
		ID:              p.ID,
		Name:            p.Name,
		ShortBio:        p.ShortBio,
		AvatarURL:       p.AvatarURL,
		Gender:          p.Gender,
		Interests:       p.Interests,
		PopularityScore: p.PopularityScore,
		Score:           sc.Score,
		Breakdown:       sc.Breakdown,
	}
	if res.Interests == nil {
		res.Interests = []string{}
	}
	if age, ok := p.Age(now); ok {
		res.Age = &age
	}
	return res
}
