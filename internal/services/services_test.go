package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suarawarga/internal/logger"
	"suarawarga/internal/models"
	"suarawarga/internal/store"
)

// fakeClock 每次调用前进一秒，保证时间戳严格递增
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 8, 17, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newBadger(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewBadgerStore("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestServices(t *testing.T, st store.Store) *Services {
	t.Helper()
	svc, err := New(st, Options{
		LockTimeout:   5 * time.Second,
		MaxRetries:    3,
		CacheSize:     16,
		CacheTTL:      time.Minute,
		MaxImageBytes: 1024,
		Now:           newFakeClock().Now,
	}, logger.Nop(), nil)
	require.NoError(t, err)
	return svc
}

func reportInput(wallet, title string) ReportInput {
	return ReportInput{
		Title:         title,
		Description:   "Jalan berlubang di depan sekolah",
		Category:      string(models.CategoryInfrastruktur),
		Desa:          "Sukamaju",
		Kecamatan:     "Cibeunying",
		Kabupaten:     "Bandung",
		Provinsi:      "Jawa Barat",
		WalletAddress: wallet,
	}
}

func TestSubmitValidation(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	in := reportInput("W1", "  ")
	in.Desa = ""
	_, err := svc.Engine.Submit(ctx, in)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Missing required fields: title, desa", err.Error())

	in = reportInput("W1", "Jalan rusak")
	in.Category = "politik"
	_, err = svc.Engine.Submit(ctx, in)
	require.ErrorIs(t, err, ErrValidation)

	lat := 120.0
	in = reportInput("W1", "Jalan rusak")
	in.Latitude = &lat
	_, err = svc.Engine.Submit(ctx, in)
	require.ErrorIs(t, err, ErrValidation)

	in = reportInput("W1", "Jalan rusak")
	in.ImageData = strings.Repeat("a", 2048)
	_, err = svc.Engine.Submit(ctx, in)
	require.ErrorIs(t, err, ErrValidation)

	activities, err := svc.Aggregation.RecentActivities(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, activities, "rejected submissions record nothing")
}

func TestSubmitCreatesPendingReport(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	lng := 107.6
	in := reportInput(" W1 ", " Jalan rusak ")
	in.Longitude = &lng
	report, err := svc.Engine.Submit(ctx, in)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(report.ID, ReportPrefix))
	assert.Equal(t, "Jalan rusak", report.Title)
	assert.Equal(t, "W1", report.WalletAddress)
	assert.Empty(t, report.Verifications)
	assert.Zero(t, report.VerifiedCount)
	assert.False(t, report.IsVerified)
	assert.Empty(t, report.Comments)
	assert.Nil(t, report.Latitude, "coordinates are independently optional")
	require.NotNil(t, report.Longitude)

	got, err := svc.Reports.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report, got)

	activities, err := svc.Aggregation.RecentActivities(ctx, 0)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, models.ActivityTypeReport, activities[0].Type)
	assert.Equal(t, "Jalan rusak", activities[0].ReportTitle)
}

func TestGetByIDNotFound(t *testing.T) {
	svc := newTestServices(t, newBadger(t))

	_, err := svc.Reports.GetByID(context.Background(), "report:nope")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Reports.GetByID(context.Background(), "activity:nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestVerificationScenario(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	report, err := svc.Engine.Submit(ctx, reportInput("W1", "Sampah menumpuk"))
	require.NoError(t, err)

	_, err = svc.Engine.Verify(ctx, report.ID, "W1")
	require.ErrorIs(t, err, ErrSelfVerification)

	r, err := svc.Engine.Verify(ctx, report.ID, "W2")
	require.NoError(t, err)
	assert.Equal(t, 1, r.VerifiedCount)
	assert.False(t, r.IsVerified)

	r, err = svc.Engine.Verify(ctx, report.ID, "W3")
	require.NoError(t, err)
	assert.Equal(t, 2, r.VerifiedCount)

	_, err = svc.Engine.Verify(ctx, report.ID, "W2")
	require.ErrorIs(t, err, ErrDuplicateVerification)
	assert.Equal(t, "You have already verified this report", err.Error())

	r, err = svc.Engine.Verify(ctx, report.ID, "W4")
	require.NoError(t, err)
	assert.Equal(t, 3, r.VerifiedCount)
	assert.True(t, r.IsVerified)
	assert.Equal(t, models.StatusVerified, r.Status())
	assert.Equal(t, []string{"W2", "W3", "W4"}, r.Verifications)

	_, err = svc.Engine.Verify(ctx, report.ID, "W5")
	require.ErrorIs(t, err, ErrAlreadyVerified)

	// 自我验证在任何状态下都被拒绝
	_, err = svc.Engine.Verify(ctx, report.ID, "W1")
	require.ErrorIs(t, err, ErrSelfVerification)

	stored, err := svc.Reports.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"W2", "W3", "W4"}, stored.Verifications)
	assert.Equal(t, len(stored.Verifications), stored.VerifiedCount)
	assert.True(t, stored.IsVerified)

	activities, err := svc.Aggregation.RecentActivities(ctx, 0)
	require.NoError(t, err)
	require.Len(t, activities, 4, "one report plus three accepted verifications")
	assert.Equal(t, "W4", activities[0].WalletAddress)
	assert.Equal(t, models.ActivityTypeReport, activities[3].Type)
}

func TestVerifyMissingInput(t *testing.T) {
	svc := newTestServices(t, newBadger(t))

	_, err := svc.Engine.Verify(context.Background(), "", " ")
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Missing required fields: reportId, walletAddress", err.Error())

	_, err = svc.Engine.Verify(context.Background(), "report:missing", "W2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentVerifications(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	report, err := svc.Engine.Submit(ctx, reportInput("W0", "Lampu jalan mati"))
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(wallet string) {
			defer wg.Done()
			_, err := svc.Engine.Verify(ctx, report.ID, wallet)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyVerified):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(fmt.Sprintf("W%d", i))
	}
	wg.Wait()

	assert.Equal(t, 3, successes)
	assert.Equal(t, 7, rejected)

	stored, err := svc.Reports.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Verifications, 3)
	assert.True(t, stored.IsVerified)
}

func TestConcurrentCommentsAndVerifications(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	report, err := svc.Engine.Submit(ctx, reportInput("W0", "Jembatan retak"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Engine.AddComment(ctx, report.ID, fmt.Sprintf("C%d", n), fmt.Sprintf("komentar %d", n))
			assert.NoError(t, err)
		}(i)
	}
	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Engine.Verify(ctx, report.ID, fmt.Sprintf("V%d", n))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := svc.Reports.GetByID(ctx, report.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Comments, 5)
	assert.Equal(t, 3, stored.VerifiedCount)
	assert.True(t, stored.IsVerified)

	activities, err := svc.Aggregation.RecentActivities(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, activities, 9)
}

func TestAddComment(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	report, err := svc.Engine.Submit(ctx, reportInput("W1", "Banjir"))
	require.NoError(t, err)

	_, err = svc.Engine.AddComment(ctx, report.ID, "W2", "   ")
	require.ErrorIs(t, err, ErrValidation)

	r, err := svc.Engine.AddComment(ctx, report.ID, "W2", "Saya juga melihatnya")
	require.NoError(t, err)
	r, err = svc.Engine.AddComment(ctx, report.ID, "W1", "Terima kasih")
	require.NoError(t, err)

	require.Len(t, r.Comments, 2)
	assert.Equal(t, "W2", r.Comments[0].WalletAddress)
	assert.Equal(t, "Terima kasih", r.Comments[1].Text)
	assert.True(t, strings.HasPrefix(r.Comments[0].ID, CommentPrefix))
	assert.Zero(t, r.VerifiedCount, "comments never touch verification state")

	activities, err := svc.Aggregation.RecentActivities(ctx, 0)
	require.NoError(t, err)
	require.Len(t, activities, 3)
	assert.Equal(t, models.ActivityTypeComment, activities[0].Type)
}

func TestAddCommentMissingReport(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	_, err := svc.Engine.AddComment(ctx, "report:missing", "W2", "halo")
	require.ErrorIs(t, err, ErrNotFound)

	activities, err := svc.Aggregation.RecentActivities(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestListAllOrderAndIdempotence(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	var ids []string
	for i := 1; i <= 3; i++ {
		r, err := svc.Engine.Submit(ctx, reportInput("W1", fmt.Sprintf("Laporan %d", i)))
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	first, err := svc.Reports.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{first[0].ID, first[1].ID, first[2].ID})

	second, err := svc.Reports.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListAllTiesKeepInsertionOrder(t *testing.T) {
	st := newBadger(t)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, err := New(st, Options{Now: func() time.Time { return fixed }}, logger.Nop(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		r, err := svc.Reports.Create(ctx, reportInput("W1", fmt.Sprintf("Laporan %d", i)))
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	all, err := svc.Reports.ListAll(ctx)
	require.NoError(t, err)
	for i, r := range all {
		assert.Equal(t, ids[i], r.ID)
	}
}

func TestListFilters(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	a, err := svc.Engine.Submit(ctx, reportInput("W1", "Jalan rusak"))
	require.NoError(t, err)
	in := reportInput("W2", "Sungai tercemar")
	in.Category = string(models.CategoryLingkungan)
	in.Provinsi = "Jawa Tengah"
	in.Kabupaten = "Semarang"
	b, err := svc.Engine.Submit(ctx, in)
	require.NoError(t, err)
	for _, w := range []string{"W3", "W4", "W5"} {
		_, err := svc.Engine.Verify(ctx, b.ID, w)
		require.NoError(t, err)
	}

	got, err := svc.Reports.List(ctx, ReportFilter{Category: "lingkungan"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)

	got, err = svc.Reports.List(ctx, ReportFilter{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	got, err = svc.Reports.List(ctx, ReportFilter{Query: "SEMARANG"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)

	got, err = svc.Reports.List(ctx, ReportFilter{Provinsi: "jawa barat", Status: "all"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)

	got, err = svc.Reports.List(ctx, ReportFilter{Sort: "trending"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID, "verified report with activity ranks first")
}

func TestLeaderboard(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	a1, err := svc.Engine.Submit(ctx, reportInput("A", "Satu"))
	require.NoError(t, err)
	_, err = svc.Engine.Submit(ctx, reportInput("A", "Dua"))
	require.NoError(t, err)
	b1, err := svc.Engine.Submit(ctx, reportInput("B", "Tiga"))
	require.NoError(t, err)

	lb, err := svc.Aggregation.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.LeaderboardEntry{{Wallet: "A", Count: 2}, {Wallet: "B", Count: 1}}, lb.TopReporters)
	assert.Empty(t, lb.TopVerifiers)

	_, err = svc.Engine.Verify(ctx, a1.ID, "C")
	require.NoError(t, err)
	_, err = svc.Engine.Verify(ctx, b1.ID, "C")
	require.NoError(t, err)
	_, err = svc.Engine.Verify(ctx, a1.ID, "B")
	require.NoError(t, err)

	lb, err = svc.Aggregation.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.LeaderboardEntry{{Wallet: "C", Count: 2}, {Wallet: "B", Count: 1}}, lb.TopVerifiers)
}

func TestLeaderboardCapsAtTen(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := svc.Engine.Submit(ctx, reportInput(fmt.Sprintf("W%02d", i), "Laporan"))
		require.NoError(t, err)
	}

	lb, err := svc.Aggregation.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, lb.TopReporters, LeaderboardSize)
	// 同分时保持扫描顺序（新到旧）
	assert.Equal(t, "W11", lb.TopReporters[0].Wallet)
	assert.Equal(t, "W02", lb.TopReporters[9].Wallet)
}

func TestRecentActivitiesOrderAndLimit(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := svc.Engine.Submit(ctx, reportInput("W1", fmt.Sprintf("t%d", i)))
		require.NoError(t, err)
	}

	activities, err := svc.Aggregation.RecentActivities(ctx, 0)
	require.NoError(t, err)
	require.Len(t, activities, 3)
	assert.Equal(t, "t3", activities[0].ReportTitle)
	assert.Equal(t, "t2", activities[1].ReportTitle)
	assert.Equal(t, "t1", activities[2].ReportTitle)

	activities, err = svc.Aggregation.RecentActivities(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, activities, 2)
}

func TestRecentActivitiesCappedAtTwenty(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		_, err := svc.Engine.Submit(ctx, reportInput("W1", fmt.Sprintf("t%d", i)))
		require.NoError(t, err)
	}

	activities, err := svc.Aggregation.RecentActivities(ctx, 100)
	require.NoError(t, err)
	require.Len(t, activities, DefaultActivityLimit)
	assert.Equal(t, "t25", activities[0].ReportTitle)
}

func TestActivityKeepsTitleSnapshot(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	r, err := svc.Engine.Submit(ctx, reportInput("W1", "Judul lama"))
	require.NoError(t, err)

	r.Title = "Judul baru"
	require.NoError(t, svc.Reports.Save(ctx, r))
	svc.Aggregation.Invalidate()

	activities, err := svc.Aggregation.RecentActivities(ctx, 0)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "Judul lama", activities[0].ReportTitle)
}

func TestStatsAndLocations(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	a, err := svc.Engine.Submit(ctx, reportInput("W1", "Jalan rusak"))
	require.NoError(t, err)
	in := reportInput("W2", "Sungai tercemar")
	in.Category = string(models.CategoryLingkungan)
	in.Provinsi = "Jawa Tengah"
	in.Kabupaten = "Semarang"
	_, err = svc.Engine.Submit(ctx, in)
	require.NoError(t, err)
	for _, w := range []string{"W3", "W4", "W5"} {
		_, err := svc.Engine.Verify(ctx, a.ID, w)
		require.NoError(t, err)
	}

	st, err := svc.Aggregation.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.Verified)
	assert.Equal(t, 1, st.Pending)
	assert.Equal(t, 5, st.Contributors)
	require.Len(t, st.Categories, len(models.Categories()))
	assert.Equal(t, 1, st.Categories[0].Count)
	assert.Equal(t, []ProvinceCount{{"Jawa Tengah", 1}, {"Jawa Barat", 1}}, st.TopProvinces)

	loc, err := svc.Aggregation.Locations(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Jawa Barat", "Jawa Tengah"}, loc.Provinsi)
	assert.Equal(t, []string{"Bandung", "Semarang"}, loc.Kabupaten)

	loc, err = svc.Aggregation.Locations(ctx, "jawa tengah")
	require.NoError(t, err)
	assert.Equal(t, []string{"Semarang"}, loc.Kabupaten)
}

func TestCacheInvalidatedOnWrite(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	lb, err := svc.Aggregation.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Empty(t, lb.TopReporters)

	_, err = svc.Engine.Submit(ctx, reportInput("W1", "Baru"))
	require.NoError(t, err)

	lb, err = svc.Aggregation.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Len(t, lb.TopReporters, 1)

	// 返回值是副本，修改不影响缓存
	lb.TopReporters[0].Count = 99
	again, err := svc.Aggregation.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, again.TopReporters[0].Count)
}

// gateStore 在第一次按前缀扫描拿到快照后挂起，直到 release 被关闭
type gateStore struct {
	store.Store
	prefix  string
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGateStore(t *testing.T, prefix string) *gateStore {
	return &gateStore{
		Store:   newBadger(t),
		prefix:  prefix,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gateStore) GetByPrefix(ctx context.Context, prefix string) ([]store.Entry, error) {
	entries, err := g.Store.GetByPrefix(ctx, prefix)
	if prefix == g.prefix {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return entries, err
}

func TestCacheNotRefilledWithReadsOlderThanWrite(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		count  func(ctx context.Context, a *AggregationService) (int, error)
	}{
		{
			name:   "leaderboard",
			prefix: ReportPrefix,
			count: func(ctx context.Context, a *AggregationService) (int, error) {
				lb, err := a.Leaderboard(ctx)
				if err != nil {
					return 0, err
				}
				return len(lb.TopReporters), nil
			},
		},
		{
			name:   "stats",
			prefix: ReportPrefix,
			count: func(ctx context.Context, a *AggregationService) (int, error) {
				st, err := a.Stats(ctx)
				if err != nil {
					return 0, err
				}
				return st.Total, nil
			},
		},
		{
			name:   "activities",
			prefix: ActivityPrefix,
			count: func(ctx context.Context, a *AggregationService) (int, error) {
				list, err := a.RecentActivities(ctx, 0)
				return len(list), err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := newGateStore(t, tt.prefix)
			svc := newTestServices(t, gs)
			ctx := context.Background()

			type result struct {
				n   int
				err error
			}
			done := make(chan result, 1)
			go func() {
				n, err := tt.count(ctx, svc.Aggregation)
				done <- result{n, err}
			}()

			<-gs.entered
			_, err := svc.Engine.Submit(ctx, reportInput("W1", "Sampah menumpuk"))
			require.NoError(t, err)
			close(gs.release)

			stale := <-done
			require.NoError(t, stale.err)
			assert.Zero(t, stale.n, "in-flight read saw the snapshot taken before the write")

			n, err := tt.count(ctx, svc.Aggregation)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestNotifications(t *testing.T) {
	svc := newTestServices(t, newBadger(t))
	ctx := context.Background()

	r, err := svc.Engine.Submit(ctx, reportInput("W1", "Pohon tumbang"))
	require.NoError(t, err)
	_, err = svc.Engine.Submit(ctx, reportInput("W9", "Bukan milik W1"))
	require.NoError(t, err)
	for _, w := range []string{"W2", "W3", "W4"} {
		_, err := svc.Engine.Verify(ctx, r.ID, w)
		require.NoError(t, err)
	}
	_, err = svc.Engine.AddComment(ctx, r.ID, "W5", "Sudah dilaporkan ke desa")
	require.NoError(t, err)

	got, err := svc.Aggregation.Notifications(ctx, "W1")
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, models.NotificationTypeComment, got[0].Type)
	assert.Equal(t, "W5", got[0].Actor)

	var types []models.NotificationType
	for _, n := range got {
		types = append(types, n.Type)
		assert.Equal(t, r.ID, n.ReportID)
	}
	assert.ElementsMatch(t, []models.NotificationType{
		models.NotificationTypeComment,
		models.NotificationTypeVerified,
		models.NotificationTypeVerification,
		models.NotificationTypeVerification,
		models.NotificationTypeVerification,
	}, types)

	// 自己的评论不产生通知
	_, err = svc.Engine.AddComment(ctx, r.ID, "W1", "Terima kasih")
	require.NoError(t, err)
	got, err = svc.Aggregation.Notifications(ctx, "W1")
	require.NoError(t, err)
	assert.Len(t, got, 4)

	got, err = svc.Aggregation.Notifications(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)

	// W9 有报告但没有任何动态，仍返回空切片而不是 nil
	got, err = svc.Aggregation.Notifications(ctx, "W9")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = svc.Aggregation.Notifications(ctx, "")
	require.ErrorIs(t, err, ErrValidation)
}

// flakyStore 包装真实存储，按需注入失败
type flakyStore struct {
	store.Store
	failActivities bool
	conflictAlways bool
}

func (f *flakyStore) CompareAndSwap(ctx context.Context, key string, value []byte, version uint64) (uint64, error) {
	if f.failActivities && strings.HasPrefix(key, ActivityPrefix) {
		return 0, errors.New("disk full")
	}
	if f.conflictAlways && version > 0 {
		return 0, store.ErrVersionConflict
	}
	return f.Store.CompareAndSwap(ctx, key, value, version)
}

func TestActivityFailureIsNonFatal(t *testing.T) {
	fs := &flakyStore{Store: newBadger(t), failActivities: true}
	svc := newTestServices(t, fs)
	ctx := context.Background()

	r, err := svc.Engine.Submit(ctx, reportInput("W1", "Jalan rusak"))
	require.NoError(t, err)
	_, err = svc.Engine.Verify(ctx, r.ID, "W2")
	require.NoError(t, err)

	stored, err := svc.Reports.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.VerifiedCount)

	activities, err := svc.Aggregation.RecentActivities(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestPersistentConflictFailsFast(t *testing.T) {
	fs := &flakyStore{Store: newBadger(t)}
	registry := prometheus.NewRegistry()
	svc, err := New(fs, Options{MaxRetries: 2, Now: newFakeClock().Now}, logger.Nop(), registry)
	require.NoError(t, err)
	ctx := context.Background()

	r, err := svc.Engine.Submit(ctx, reportInput("W1", "Jalan rusak"))
	require.NoError(t, err)

	fs.conflictAlways = true
	_, err = svc.Engine.Verify(ctx, r.ID, "W2")
	require.ErrorIs(t, err, ErrConflict)

	stored, err := svc.Reports.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Verifications)

	metrics := NewMetrics(nil)
	metrics.reject(ErrConflict) // nil registry 不应 panic
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Engine.metrics.conflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.Engine.metrics.reportsCreated))
}

func TestStorageErrorsWrapCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := wrapStorage("load report", cause)
	require.ErrorIs(t, err, ErrStorage)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, "load report: connection reset", err.Error())
	assert.NoError(t, wrapStorage("noop", nil))
}
