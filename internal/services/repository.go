package services

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"suarawarga/internal/logger"
	"suarawarga/internal/models"
	"suarawarga/internal/store"
	"suarawarga/internal/utils"
)

const (
	ReportPrefix   = "report:"
	ActivityPrefix = "activity:"
	CommentPrefix  = "comment:"
)

// ReportInput 提交报告时的原始输入，字符串字段在校验前会去除首尾空白
type ReportInput struct {
	Title         string
	Description   string
	Category      string
	Desa          string
	Kecamatan     string
	Kabupaten     string
	Provinsi      string
	Latitude      *float64
	Longitude     *float64
	ImageData     string
	WalletAddress string
}

// ReportFilter narrows List. Zero values match everything.
type ReportFilter struct {
	Category  string
	Status    string // all, verified, pending
	Provinsi  string
	Kabupaten string
	Query     string
	Sort      string // newest (default) or trending
}

// ReportRepository stores reports as JSON documents under report:<uuid> keys.
type ReportRepository struct {
	store         store.Store
	now           func() time.Time
	maxImageBytes int
	log           *logger.Logger
}

func NewReportRepository(st store.Store, now func() time.Time, maxImageBytes int, log *logger.Logger) *ReportRepository {
	return &ReportRepository{
		store:         st,
		now:           now,
		maxImageBytes: maxImageBytes,
		log:           log.WithComponent("reports"),
	}
}

// Create validates input and persists a fresh pending report.
func (r *ReportRepository) Create(ctx context.Context, in ReportInput) (*models.Report, error) {
	if err := r.validate(&in); err != nil {
		return nil, err
	}

	report := &models.Report{
		ID:            utils.NewID(ReportPrefix),
		Title:         in.Title,
		Description:   in.Description,
		Category:      models.Category(in.Category),
		Desa:          in.Desa,
		Kecamatan:     in.Kecamatan,
		Kabupaten:     in.Kabupaten,
		Provinsi:      in.Provinsi,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		ImageData:     in.ImageData,
		WalletAddress: in.WalletAddress,
		CreatedAt:     r.now().UTC(),
	}
	report.Normalize()

	if err := r.saveVersion(ctx, report, 0); err != nil {
		// UUIDv7 冲突几乎不可能，按存储错误处理
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, wrapStorage("create report", err)
		}
		return nil, err
	}
	return report, nil
}

func (r *ReportRepository) validate(in *ReportInput) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"title", &in.Title},
		{"description", &in.Description},
		{"category", &in.Category},
		{"desa", &in.Desa},
		{"kecamatan", &in.Kecamatan},
		{"kabupaten", &in.Kabupaten},
		{"provinsi", &in.Provinsi},
		{"walletAddress", &in.WalletAddress},
	}

	var missing []string
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return missingFields(missing...)
	}

	if !models.Category(in.Category).Valid() {
		return invalid(fmt.Sprintf("Unknown category %q", in.Category))
	}
	if in.Latitude != nil && (math.IsNaN(*in.Latitude) || *in.Latitude < -90 || *in.Latitude > 90) {
		return invalid("Latitude must be between -90 and 90")
	}
	if in.Longitude != nil && (math.IsNaN(*in.Longitude) || *in.Longitude < -180 || *in.Longitude > 180) {
		return invalid("Longitude must be between -180 and 180")
	}
	if r.maxImageBytes > 0 && len(in.ImageData) > r.maxImageBytes {
		return invalid(fmt.Sprintf("Image exceeds %d bytes", r.maxImageBytes))
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	report, _, err := r.load(ctx, id)
	return report, err
}

// ListAll returns every report, newest first. Reports created at the same
// instant keep insertion order.
func (r *ReportRepository) ListAll(ctx context.Context) ([]*models.Report, error) {
	entries, err := r.store.GetByPrefix(ctx, ReportPrefix)
	if err != nil {
		return nil, wrapStorage("list reports", err)
	}

	// key 内含 UUIDv7，按 key 排序即为插入顺序
	slices.SortFunc(entries, func(a, b store.Entry) int {
		return strings.Compare(a.Key, b.Key)
	})

	reports := make([]*models.Report, 0, len(entries))
	for _, e := range entries {
		report, err := decodeReport(e.Value)
		if err != nil {
			r.log.Warn().Err(err).Str("key", e.Key).Msg("skipping undecodable report")
			continue
		}
		reports = append(reports, report)
	}

	slices.SortStableFunc(reports, func(a, b *models.Report) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return reports, nil
}

// List applies f on top of ListAll.
func (r *ReportRepository) List(ctx context.Context, f ReportFilter) ([]*models.Report, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]*models.Report, 0, len(all))
	for _, report := range all {
		if f.Category != "" && f.Category != "all" && string(report.Category) != f.Category {
			continue
		}
		switch f.Status {
		case "verified":
			if !report.IsVerified {
				continue
			}
		case "pending":
			if report.IsVerified {
				continue
			}
		}
		if f.Provinsi != "" && !strings.EqualFold(report.Provinsi, f.Provinsi) {
			continue
		}
		if f.Kabupaten != "" && !strings.EqualFold(report.Kabupaten, f.Kabupaten) {
			continue
		}
		if query != "" && !matchesQuery(report, query) {
			continue
		}
		out = append(out, report)
	}

	if f.Sort == "trending" {
		now := r.now()
		score := func(rep *models.Report) float64 {
			return utils.CalculateScore(rep.CreatedAt, now, rep.VerifiedCount, len(rep.Comments), rep.IsVerified)
		}
		slices.SortStableFunc(out, func(a, b *models.Report) int {
			return cmp.Compare(score(b), score(a))
		})
	}
	return out, nil
}

func matchesQuery(report *models.Report, query string) bool {
	for _, field := range []string{
		report.Title, report.Description,
		report.Desa, report.Kecamatan, report.Kabupaten, report.Provinsi,
	} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Save overwrites report unconditionally.
func (r *ReportRepository) Save(ctx context.Context, report *models.Report) error {
	report.Normalize()
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return wrapStorage("save report", r.store.Set(ctx, report.ID, data))
}

// load returns the report with the version it was read at.
func (r *ReportRepository) load(ctx context.Context, id string) (*models.Report, uint64, error) {
	if !strings.HasPrefix(id, ReportPrefix) {
		return nil, 0, ErrNotFound
	}
	entry, err := r.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, wrapStorage("load report", err)
	}
	report, err := decodeReport(entry.Value)
	if err != nil {
		return nil, 0, wrapStorage("decode report", err)
	}
	return report, entry.Version, nil
}

// saveVersion writes report only if it is still at version. A lost race is
// returned as store.ErrVersionConflict, anything else as a storage error.
func (r *ReportRepository) saveVersion(ctx context.Context, report *models.Report, version uint64) error {
	report.Normalize()
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = r.store.CompareAndSwap(ctx, report.ID, data, version)
	if err == nil || errors.Is(err, store.ErrVersionConflict) {
		return err
	}
	return wrapStorage("save report", err)
}

// decodeReport 读取时重新计算派生字段，旧数据中的 verifiedCount 不可信
func decodeReport(data []byte) (*models.Report, error) {
	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	report.Normalize()
	return &report, nil
}
