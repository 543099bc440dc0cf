package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/schoolbank/backend/internal/config"
)

// StatementWorker generates last month's statements for every account once
// the configured day of the month is reached. With Redis configured only one
// replica runs the batch for a given month.
type StatementWorker struct {
	statements *StatementService
	redis      *redis.Client
	cfg        *config.BankingConfig
	now        func() time.Time

	mu   sync.Mutex
	done map[string]bool
}

func NewStatementWorker(statements *StatementService, client *redis.Client, cfg *config.BankingConfig) *StatementWorker {
	return &StatementWorker{
		statements: statements,
		redis:      client,
		cfg:        cfg,
		now:        time.Now,
		done:       make(map[string]bool),
	}
}

func (w *StatementWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.StatementCheckInterval)
	defer ticker.Stop()

	log.Printf("[STATEMENTS] Worker started, batch day %d, interval %s", w.cfg.StatementDay, w.cfg.StatementCheckInterval)

	if err := w.RunOnce(ctx); err != nil {
		log.Printf("[STATEMENTS] Batch failed: %v", err)
	}
	for {
		select {
		case <-ctx.Done():
			log.Println("[STATEMENTS] Worker stopped")
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				log.Printf("[STATEMENTS] Batch failed: %v", err)
			}
		}
	}
}

func batchKeys(year, month int) (lockKey, doneKey, period string) {
	period = fmt.Sprintf("%04d-%02d", year, month)
	return "statements:batch:lock:" + period, "statements:batch:done:" + period, period
}

// RunOnce runs the batch for the previous month if it is due and has not
// completed yet.
func (w *StatementWorker) RunOnce(ctx context.Context) error {
	now := w.now().UTC()
	if now.Day() < w.cfg.StatementDay {
		return nil
	}
	year, month := previousMonth(now.Year(), int(now.Month()))
	lockKey, doneKey, period := batchKeys(year, month)

	w.mu.Lock()
	finished := w.done[period]
	w.mu.Unlock()
	if finished {
		return nil
	}

	if w.redis != nil {
		n, err := w.redis.Exists(ctx, doneKey).Result()
		if err != nil {
			return fmt.Errorf("check batch marker: %w", err)
		}
		if n > 0 {
			w.markDone(period)
			return nil
		}

		acquired, err := w.redis.SetNX(ctx, lockKey, now.Format(time.RFC3339), w.cfg.StatementBatchLockTTL).Result()
		if err != nil {
			return fmt.Errorf("acquire batch lock: %w", err)
		}
		if !acquired {
			log.Printf("[STATEMENTS] Batch %s already running elsewhere", period)
			return nil
		}
		defer func() {
			if err := w.redis.Del(context.Background(), lockKey).Err(); err != nil {
				log.Printf("[STATEMENTS] Failed to release batch lock %s: %v", lockKey, err)
			}
		}()
	}

	log.Printf("[STATEMENTS] Generating %s statements", period)
	generated, failed, err := w.statements.GenerateMonthlyStatements(ctx, year, month)
	if err != nil {
		return err
	}
	log.Printf("[STATEMENTS] Batch %s finished: %d generated, %d failed", period, generated, failed)
	if failed > 0 {
		return fmt.Errorf("%d statements failed for %s", failed, period)
	}

	if w.redis != nil {
		// keep the marker until the period can no longer be current
		if err := w.redis.Set(ctx, doneKey, generated, 45*24*time.Hour).Err(); err != nil {
			log.Printf("[STATEMENTS] Failed to mark batch %s done: %v", period, err)
		}
	}
	w.markDone(period)
	return nil
}

func (w *StatementWorker) markDone(period string) {
	w.mu.Lock()
	w.done[period] = true
	w.mu.Unlock()
}
