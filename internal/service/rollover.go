package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"telegram-checkin-bot/internal/period"
	"telegram-checkin-bot/internal/repository"
)

// metaKeyLastCleanup tracks the last period the rollover check completed for.
const metaKeyLastCleanup = "last_cleanup_period"

// RolloverManager performs the once-per-period maintenance step: when the
// current month differs from the recorded one, it optionally purges all
// history outside the current month and records the new period.
//
// Ensure is called before every ledger write. After the first call of a
// period it is a single string comparison under a mutex, so a long-lived
// process picks up a month boundary on its first write of the new month
// instead of waiting for a restart.
type RolloverManager struct {
	ledger    Ledger
	meta      MetaStore
	autoClean bool

	mu      sync.Mutex
	checked string // period already verified during this process run
}

// NewRolloverManager creates a new RolloverManager. When autoClean is set the
// period transition deletes every record outside the current month, not just
// the previous one.
func NewRolloverManager(ledger Ledger, meta MetaStore, autoClean bool) *RolloverManager {
	return &RolloverManager{
		ledger:    ledger,
		meta:      meta,
		autoClean: autoClean,
	}
}

// Ensure verifies the rollover state for the period containing now. The
// mutex makes concurrent first writes of a period perform the transition
// exactly once.
func (m *RolloverManager) Ensure(ctx context.Context, now time.Time) error {
	current := period.MonthOf(now).String()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.checked == current {
		return nil
	}

	last, err := m.meta.Get(ctx, metaKeyLastCleanup)
	if err != nil && !errors.Is(err, repository.ErrMetaNotFound) {
		return fmt.Errorf("failed to read rollover state: %w", err)
	}

	if last != current {
		if m.autoClean {
			deleted, err := m.ledger.DeleteOutsideMonth(ctx, period.MonthOf(now))
			if err != nil {
				return fmt.Errorf("failed to purge stale check-ins: %w", err)
			}
			log.Info().
				Str("period", current).
				Int64("deleted", deleted).
				Msg("Rollover purge completed")
		}

		// Recorded even when the purge is disabled, so the transition is
		// acknowledged once per period either way.
		if err := m.meta.Set(ctx, metaKeyLastCleanup, current); err != nil {
			return fmt.Errorf("failed to record rollover period: %w", err)
		}
		log.Info().Str("from", last).Str("to", current).Msg("Rollover period advanced")
	}

	m.checked = current
	return nil
}

// Purge deletes every record outside the month containing now, regardless of
// the auto-clean setting. Backs the admin purge command.
func (m *RolloverManager) Purge(ctx context.Context, now time.Time) (int64, error) {
	month := period.MonthOf(now)
	deleted, err := m.ledger.DeleteOutsideMonth(ctx, month)
	if err != nil {
		return 0, fmt.Errorf("failed to purge history: %w", err)
	}
	log.Info().
		Str("period", month.String()).
		Int64("deleted", deleted).
		Msg("Manual history purge completed")
	return deleted, nil
}
