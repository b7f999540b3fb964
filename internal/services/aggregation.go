package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"suarawarga/internal/logger"
	"suarawarga/internal/models"
	"suarawarga/internal/utils"
)

const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = DefaultActivityLimit
	LeaderboardSize      = 10
	TopProvinces         = 5
	MaxNotifications     = 50

	cacheKeyActivities  = "activities"
	cacheKeyLeaderboard = "leaderboard"
	cacheKeyStats       = "stats"
)

// CategoryCount 分类分布
type CategoryCount struct {
	Category models.Category `json:"category"`
	Label    string          `json:"label"`
	Count    int             `json:"count"`
}

type ProvinceCount struct {
	Provinsi string `json:"provinsi"`
	Count    int    `json:"count"`
}

type Stats struct {
	Total        int             `json:"total"`
	Verified     int             `json:"verified"`
	Pending      int             `json:"pending"`
	Contributors int             `json:"contributors"`
	Categories   []CategoryCount `json:"categories"`
	TopProvinces []ProvinceCount `json:"topProvinces"`
}

type Locations struct {
	Provinsi  []string `json:"provinsi"`
	Kabupaten []string `json:"kabupaten"`
}

// AggregationService derives read models from reports and activities.
// Results may be served from cache until the next write invalidates them.
type AggregationService struct {
	reports    *ReportRepository
	activities *ActivityRecorder
	cache      *utils.Cache
	metrics    *Metrics
	log        *logger.Logger

	// generation 每次写入后递增；扫描期间若发生变化，结果不再写回缓存
	generation atomic.Uint64
}

// Invalidate drops every cached aggregate.
func (s *AggregationService) Invalidate() {
	s.generation.Add(1)
	s.cache.Delete(cacheKeyActivities, cacheKeyLeaderboard, cacheKeyStats)
}

// fill caches v only if no write landed since gen was read.
func (s *AggregationService) fill(key string, v any, gen uint64) {
	if s.generation.Load() != gen {
		return
	}
	s.cache.Set(key, v)
	// Invalidate 可能恰好发生在检查与 Set 之间
	if s.generation.Load() != gen {
		s.cache.Delete(key)
	}
}

func (s *AggregationService) cached(key string) any {
	v := s.cache.Get(key)
	s.metrics.cacheLookup(v != nil)
	return v
}

// RecentActivities returns at most limit activities, newest first.
// A non-positive limit means DefaultActivityLimit; limits above
// MaxActivityLimit are capped.
func (s *AggregationService) RecentActivities(ctx context.Context, limit int) ([]*models.Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	limit = min(limit, MaxActivityLimit)

	all, ok := s.cached(cacheKeyActivities).([]*models.Activity)
	if !ok {
		gen := s.generation.Load()
		var err error
		all, err = s.activities.List(ctx)
		if err != nil {
			return nil, err
		}
		s.fill(cacheKeyActivities, all, gen)
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return slices.Clone(all), nil
}

// Leaderboard ranks wallets by owned reports and by verifications cast.
// Ties keep the order in which wallets were first seen while scanning
// reports newest first.
func (s *AggregationService) Leaderboard(ctx context.Context) (*models.Leaderboard, error) {
	if lb, ok := s.cached(cacheKeyLeaderboard).(*models.Leaderboard); ok {
		return cloneLeaderboard(lb), nil
	}

	gen := s.generation.Load()
	reports, err := s.reports.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	reporters := newTally()
	verifiers := newTally()
	for _, r := range reports {
		reporters.add(r.WalletAddress)
		for _, w := range r.Verifications {
			verifiers.add(w)
		}
	}

	lb := &models.Leaderboard{
		TopReporters: reporters.top(LeaderboardSize),
		TopVerifiers: verifiers.top(LeaderboardSize),
	}
	s.fill(cacheKeyLeaderboard, lb, gen)
	return cloneLeaderboard(lb), nil
}

func cloneLeaderboard(lb *models.Leaderboard) *models.Leaderboard {
	return &models.Leaderboard{
		TopReporters: slices.Clone(lb.TopReporters),
		TopVerifiers: slices.Clone(lb.TopVerifiers),
	}
}

// tally 计数并保留首次出现顺序
type tally struct {
	order  []string
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(key string) {
	if key == "" {
		return
	}
	if _, seen := t.counts[key]; !seen {
		t.order = append(t.order, key)
	}
	t.counts[key]++
}

func (t *tally) top(n int) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(t.order))
	for _, key := range t.order {
		entries = append(entries, models.LeaderboardEntry{Wallet: key, Count: t.counts[key]})
	}
	slices.SortStableFunc(entries, func(a, b models.LeaderboardEntry) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Stats summarises every report: status split, distinct contributors
// (reporters and verifiers), per-category counts and the busiest provinces.
func (s *AggregationService) Stats(ctx context.Context) (*Stats, error) {
	if st, ok := s.cached(cacheKeyStats).(*Stats); ok {
		return cloneStats(st), nil
	}

	gen := s.generation.Load()
	reports, err := s.reports.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{Total: len(reports)}
	contributors := make(map[string]struct{})
	byCategory := make(map[models.Category]int)
	provinces := newTally()

	for _, r := range reports {
		if r.IsVerified {
			st.Verified++
		} else {
			st.Pending++
		}
		contributors[r.WalletAddress] = struct{}{}
		for _, w := range r.Verifications {
			contributors[w] = struct{}{}
		}
		byCategory[r.Category]++
		provinces.add(r.Provinsi)
	}
	st.Contributors = len(contributors)

	for _, info := range models.Categories() {
		st.Categories = append(st.Categories, CategoryCount{
			Category: info.ID,
			Label:    info.Label,
			Count:    byCategory[info.ID],
		})
	}
	for _, e := range provinces.top(TopProvinces) {
		st.TopProvinces = append(st.TopProvinces, ProvinceCount{Provinsi: e.Wallet, Count: e.Count})
	}
	if st.TopProvinces == nil {
		st.TopProvinces = []ProvinceCount{}
	}

	s.fill(cacheKeyStats, st, gen)
	return cloneStats(st), nil
}

func cloneStats(st *Stats) *Stats {
	c := *st
	c.Categories = slices.Clone(st.Categories)
	c.TopProvinces = slices.Clone(st.TopProvinces)
	return &c
}

// Locations lists the distinct provinces, and the kabupaten of provinsi
// (or of every province when provinsi is empty), sorted.
func (s *AggregationService) Locations(ctx context.Context, provinsi string) (*Locations, error) {
	reports, err := s.reports.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	provSet := make(map[string]struct{})
	kabSet := make(map[string]struct{})
	for _, r := range reports {
		provSet[r.Provinsi] = struct{}{}
		if provinsi == "" || strings.EqualFold(r.Provinsi, provinsi) {
			kabSet[r.Kabupaten] = struct{}{}
		}
	}

	return &Locations{
		Provinsi:  sortedKeys(provSet),
		Kabupaten: sortedKeys(kabSet),
	}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		if k != "" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// Notifications derives what happened to wallet's own reports: reaching the
// threshold, each verification by someone else, and the latest comment when
// another wallet wrote it. Newest first.
func (s *AggregationService) Notifications(ctx context.Context, wallet string) ([]models.Notification, error) {
	wallet = strings.TrimSpace(wallet)
	if wallet == "" {
		return nil, missingFields("walletAddress")
	}

	reports, err := s.reports.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	activities, err := s.activities.List(ctx)
	if err != nil {
		return nil, err
	}

	own := make(map[string]*models.Report)
	for _, r := range reports {
		if r.WalletAddress == wallet {
			own[r.ID] = r
		}
	}
	if len(own) == 0 {
		return []models.Notification{}, nil
	}

	out := []models.Notification{}
	// 阈值达成时间取该报告第 N 次验证动态的时间，找不到时退回创建时间
	verifiedAt := make(map[string]int)

	// activities 按新到旧排列，倒序遍历才能数出第几次验证
	for i := len(activities) - 1; i >= 0; i-- {
		a := activities[i]
		r, ok := own[a.ReportID]
		if !ok || a.Type != models.ActivityTypeVerification || a.WalletAddress == wallet {
			continue
		}
		verifiedAt[a.ReportID]++
		out = append(out, models.Notification{
			ID:          "verification-" + a.ID,
			Type:        models.NotificationTypeVerification,
			ReportID:    a.ReportID,
			ReportTitle: r.Title,
			Actor:       a.WalletAddress,
			Message:     fmt.Sprintf("Laporan \"%s\" diverifikasi oleh %s", r.Title, shortWallet(a.WalletAddress)),
			CreatedAt:   a.CreatedAt,
		})
		if r.IsVerified && verifiedAt[a.ReportID] == models.VerificationThreshold {
			out = append(out, models.Notification{
				ID:          "verified-" + r.ID,
				Type:        models.NotificationTypeVerified,
				ReportID:    r.ID,
				ReportTitle: r.Title,
				Message:     fmt.Sprintf("Laporan \"%s\" telah terverifikasi!", r.Title),
				CreatedAt:   a.CreatedAt,
			})
		}
	}

	for _, r := range own {
		if r.IsVerified && verifiedAt[r.ID] < models.VerificationThreshold {
			out = append(out, models.Notification{
				ID:          "verified-" + r.ID,
				Type:        models.NotificationTypeVerified,
				ReportID:    r.ID,
				ReportTitle: r.Title,
				Message:     fmt.Sprintf("Laporan \"%s\" telah terverifikasi!", r.Title),
				CreatedAt:   r.CreatedAt,
			})
		}
		if n := len(r.Comments); n > 0 {
			latest := r.Comments[n-1]
			if latest.WalletAddress != wallet {
				out = append(out, models.Notification{
					ID:          "comment-" + latest.ID,
					Type:        models.NotificationTypeComment,
					ReportID:    r.ID,
					ReportTitle: r.Title,
					Actor:       latest.WalletAddress,
					Message:     fmt.Sprintf("Komentar baru di \"%s\"", r.Title),
					CreatedAt:   latest.CreatedAt,
				})
			}
		}
	}

	slices.SortStableFunc(out, func(a, b models.Notification) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	if len(out) > MaxNotifications {
		out = out[:MaxNotifications]
	}
	return out, nil
}

func shortWallet(w string) string {
	if len(w) <= 10 {
		return w
	}
	return w[:4] + "..." + w[len(w)-4:]
}
