package app

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"

	"github.com/talkincode/digistore/internal/domain"
	"github.com/talkincode/digistore/internal/fileprobe"
	"github.com/talkincode/digistore/internal/store"
	"github.com/talkincode/digistore/pkg/metrics"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@every 30s", func() {
		go a.SchedSystemMonitorTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		a.gormDB.
			Where("opt_time < ? ", time.Now().
				Add(-time.Hour*24*365)).Delete(domain.SysOprLog{})
		if err := store.NewGormWebhookEventRepository(a.gormDB).
			PruneBefore(context.Background(), time.Now().Add(-time.Hour*24*90)); err != nil {
			zap.L().Error("webhook event prune failed", zap.Error(err))
		}
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@every 1h", func() {
		a.SchedFileProbeTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@every 10m", func() {
		if a.limiter != nil {
			a.limiter.Sweep()
		}
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}
}

// SchedSystemMonitorTask records host cpu/mem usage into local metrics.
func (a *Application) SchedSystemMonitorTask() {
	percents, err := cpu.Percent(0, false)
	if err == nil && len(percents) > 0 {
		metrics.GaugeSet(metrics.SystemCpuUsage, percents[0])
	}
	vm, err := mem.VirtualMemory()
	if err == nil {
		metrics.GaugeSet(metrics.SystemMemUsage, vm.UsedPercent)
	}
}

// SchedFileProbeTask re-probes stored file urls for active products and
// clears any that are no longer reachable, so stale products drop out of
// checkout before a buyer hits them.
func (a *Application) SchedFileProbeTask() {
	repo := store.NewGormProductRepository(a.gormDB)
	products, err := repo.ListActiveWithFiles(context.Background(), 500)
	if err != nil {
		zap.L().Error("file probe task query failed", zap.Error(err))
		return
	}
	if len(products) == 0 {
		return
	}

	prober := fileprobe.NewHTTPProber(time.Duration(a.appConfig.Checkout.ProbeTimeout) * time.Second)
	pool, err := ants.NewPool(8)
	if err != nil {
		zap.L().Error("file probe pool init failed", zap.Error(err))
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range products {
		p := products[i]
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := prober.Probe(ctx, p.FileURL); err != nil {
				zap.L().Warn("scheduled probe failed, clearing file url",
					zap.Int64("product_id", p.ID), zap.Error(err))
				if err := repo.ClearFileURL(ctx, p.ID); err != nil {
					zap.L().Error("failed to clear product file url",
						zap.Int64("product_id", p.ID), zap.Error(err))
				}
			}
		}); err != nil {
			wg.Done()
		}
	}
	wg.Wait()
}
