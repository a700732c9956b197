package app

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/talkincode/storefront/internal/domain"
	"github.com/talkincode/storefront/pkg/metrics"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// JobInfo a scheduled job as reported to admins
type JobInfo struct {
	Name string    `json:"name"`
	Spec string    `json:"spec"`
	Next time.Time `json:"next"`
	Prev time.Time `json:"prev"`
}

// ErrJobRunning a manual run was refused because the job is already executing
var ErrJobRunning = errors.New("job is already running")

type scheduledJob struct {
	name  string
	spec  string
	fn    func()
	entry cron.EntryID
	mu    sync.Mutex
}

// tryRun runs the job unless another run (cron tick or manual) holds it
func (j *scheduledJob) tryRun() bool {
	if !j.mu.TryLock() {
		return false
	}
	defer j.mu.Unlock()
	j.fn()
	return true
}

// cronLogger routes cron's own messages to zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	zap.S().Debugw(msg, append(keysAndValues, "namespace", "jobs")...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	zap.S().Errorw(msg, append(keysAndValues, "error", err, "namespace", "jobs")...)
}

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(
		cron.WithLocation(loc),
		cron.WithParser(cronParser),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
	)

	a.jobs = []*scheduledJob{
		{name: "notify_retry", spec: "@every 1m", fn: a.SchedNotifyRetryTask},
		{name: "low_stock", spec: "@every 5m", fn: a.SchedLowStockTask},
		{name: "purge_notify_logs", spec: "@daily", fn: a.SchedClearExpireData},
		{name: "process_monitor", spec: "@every 30s", fn: a.SchedProcessMonitorTask},
	}
	for _, job := range a.jobs {
		job := job
		id, err := a.sched.AddFunc(job.spec, func() {
			if !job.tryRun() {
				zap.L().Info("job still running, tick skipped",
					zap.String("job", job.name), zap.String("namespace", "jobs"))
			}
		})
		if err != nil {
			zap.S().Errorf("init job error %s", err.Error())
			continue
		}
		job.entry = id
	}

	a.sched.Start()
}

// Jobs lists the registered jobs with their next and previous run times
func (a *Application) Jobs() []JobInfo {
	out := make([]JobInfo, 0, len(a.jobs))
	for _, job := range a.jobs {
		info := JobInfo{Name: job.name, Spec: job.spec}
		if a.sched != nil && job.entry != 0 {
			entry := a.sched.Entry(job.entry)
			info.Next, info.Prev = entry.Next, entry.Prev
		}
		out = append(out, info)
	}
	return out
}

// RunJobNow runs a registered job synchronously. It returns ErrJobRunning when a
// scheduled or manual run of the same job is in progress.
func (a *Application) RunJobNow(name string) error {
	for _, job := range a.jobs {
		if job.name == name {
			if !job.tryRun() {
				return ErrJobRunning
			}
			return nil
		}
	}
	return errors.Errorf("job %s not found", name)
}

// SchedNotifyRetryTask re-sends failed order notifications
func (a *Application) SchedNotifyRetryTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
	defer cancel()
	sent, err := a.dispatcher.RetryFailed(ctx)
	if err != nil {
		zap.L().Warn("notification retry", zap.Error(err), zap.String("namespace", "notify"))
	}
	if sent > 0 {
		zap.L().Info("notifications re-sent", zap.Int("count", sent), zap.String("namespace", "notify"))
	}
}

// SchedLowStockTask refreshes the low stock gauge
func (a *Application) SchedLowStockTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	n, err := a.CountLowStock(context.Background())
	if err != nil {
		zap.L().Warn("count low stock products", zap.Error(err))
		return
	}
	metrics.LowStockProducts.Set(float64(n))
}

// CountLowStock active products at or below the configured threshold
func (a *Application) CountLowStock(ctx context.Context) (int64, error) {
	threshold := a.configManager.GetInt(StoreCategory, "low_stock_threshold")
	var n int64
	err := a.gormDB.WithContext(ctx).Model(&domain.Product{}).
		Where("is_active = ? AND stock <= ?", true, threshold).
		Count(&n).Error
	return n, err
}

// SchedProcessMonitorTask app process monitor
func (a *Application) SchedProcessMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	p, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		return
	}
	if cpuuse, err := p.CPUPercent(); err == nil {
		metrics.ProcessCPU.Set(cpuuse)
	}
	if meminfo, err := p.MemoryInfo(); err == nil {
		metrics.ProcessMemory.Set(float64(meminfo.RSS))
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		metrics.SystemMemoryUsed.Set(vm.UsedPercent)
	}
}

// SchedClearExpireData purges delivered notification logs
func (a *Application) SchedClearExpireData() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()
	n, err := a.dispatcher.PurgeSent(context.Background(), a.appConfig.Checkout.NotifyLogDays)
	if err != nil {
		zap.L().Warn("purge notification logs", zap.Error(err))
		return
	}
	zap.L().Info("purged notification logs", zap.Int64("count", n))
}
