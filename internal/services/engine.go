package services

import (
	"context"
	"errors"

	"suarawarga/internal/logger"
	"suarawarga/internal/models"
	"suarawarga/internal/store"
)

// Engine 所有写操作的入口：提交、验证、评论。
// 同一报告上的修改先拿进程内锁，再用版本号 CAS 写回，冲突时重试
type Engine struct {
	reports     *ReportRepository
	activities  *ActivityRecorder
	aggregation *AggregationService
	locker      *KeyedLocker
	maxRetries  int
	metrics     *Metrics
	log         *logger.Logger
}

// Submit creates a report and records its activity.
func (e *Engine) Submit(ctx context.Context, in ReportInput) (*models.Report, error) {
	report, err := e.reports.Create(ctx, in)
	if err != nil {
		e.fail("submit", "", err)
		return nil, err
	}
	e.metrics.incReport()
	e.log.Info().Str("report_id", report.ID).Str("wallet", report.WalletAddress).Msg("report submitted")

	e.afterWrite(ctx, models.ActivityTypeReport, report, report.WalletAddress)
	return report, nil
}

// mutate runs fn against a private copy of the report and writes it back
// only if nobody else wrote in between. A rejection from fn persists nothing.
func (e *Engine) mutate(ctx context.Context, reportID string, fn func(*models.Report) error) (*models.Report, error) {
	unlock, err := e.locker.Lock(ctx, reportID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		current, version, err := e.reports.load(ctx, reportID)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}

		err = e.reports.saveVersion(ctx, next, version)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return nil, err
		}
		// 其他进程抢先写入，重新读取后再判断规则
		e.log.Debug().Str("report_id", reportID).Int("attempt", attempt).Msg("version conflict, retrying")
	}
	return nil, ErrConflict
}

// afterWrite 主记录已写入后调用，动态写入失败只记日志
func (e *Engine) afterWrite(ctx context.Context, typ models.ActivityType, report *models.Report, wallet string) {
	if _, err := e.activities.Record(ctx, typ, report, wallet); err != nil {
		e.log.Warn().Err(err).
			Str("report_id", report.ID).
			Str("type", string(typ)).
			Msg("failed to record activity")
	}
	e.aggregation.Invalidate()
}

func (e *Engine) fail(op, reportID string, err error) {
	e.metrics.reject(err)
	if errors.Is(err, ErrStorage) {
		e.log.Error().Err(err).Str("op", op).Str("report_id", reportID).Msg("storage failure")
		return
	}
	e.log.Debug().Err(err).Str("op", op).Str("report_id", reportID).Msg("rejected")
}
