package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/gridsoup/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkHuntBreakthrough BookmarkType = "hunt_breakthrough"
	BookmarkPredatorRecovery BookmarkType = "predator_recovery"
	BookmarkPreyCrash        BookmarkType = "prey_crash"
	BookmarkStableEcosystem  BookmarkType = "stable_ecosystem"
	BookmarkExtinction       BookmarkType = "extinction"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int          `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark", "type", string(b.Type), "tick", b.Tick, "description", b.Description)
}

// BookmarkDetector flags notable moments in the population history.
type BookmarkDetector struct {
	cfg config.BookmarksConfig

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recentPredMin int
	preyPeak      int
	crashed       bool
	stableRun     int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int, cfg config.BookmarksConfig) *BookmarkDetector {
	if historySize < cfg.StableWindows {
		historySize = cfg.StableWindows
	}
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		cfg:           cfg,
		history:       make([]WindowStats, historySize),
		historySize:   historySize,
		recentPredMin: -1,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark
	add := func(b *Bookmark) {
		if b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	if bd.historyFull || bd.historyIdx > 0 {
		add(bd.checkHuntBreakthrough(stats))
		add(bd.checkPredatorRecovery(stats))
		add(bd.checkPreyCrash(stats))
		add(bd.checkExtinction(stats))
	}

	bd.addToHistory(stats)
	add(bd.checkStableEcosystem(stats))

	if bd.recentPredMin < 0 || stats.PredCount < bd.recentPredMin {
		bd.recentPredMin = stats.PredCount
	}
	if stats.PreyCount > bd.preyPeak {
		bd.preyPeak = stats.PreyCount
		bd.crashed = false
	}
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// latest returns the most recent n windows, oldest first.
func (bd *BookmarkDetector) latest(n int) []WindowStats {
	h := bd.getHistory()
	if len(h) < n {
		return nil
	}
	out := make([]WindowStats, 0, n)
	for i := n; i >= 1; i-- {
		idx := (bd.historyIdx - i + bd.historySize) % bd.historySize
		out = append(out, bd.history[idx])
	}
	return out
}

func (bd *BookmarkDetector) previous() WindowStats {
	return bd.history[(bd.historyIdx-1+bd.historySize)%bd.historySize]
}

func (bd *BookmarkDetector) checkHuntBreakthrough(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 || stats.Kills < 3 {
		return nil
	}
	var sum float64
	for _, h := range history {
		sum += h.KillRate
	}
	avg := sum / float64(len(history))
	if avg == 0 || stats.KillRate <= avg*bd.cfg.HuntBreakthroughMultiplier {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkHuntBreakthrough,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Kill rate %.3f is %.1fx average (%.3f)", stats.KillRate, stats.KillRate/avg, avg),
	}
}

func (bd *BookmarkDetector) checkPredatorRecovery(stats WindowStats) *Bookmark {
	low := bd.recentPredMin
	if low <= 0 || low > bd.cfg.PredatorRecoveryMin {
		return nil
	}
	threshold := int(float64(low) * bd.cfg.PredatorRecoveryMultiplier)
	if stats.PredCount < threshold {
		return nil
	}
	bd.recentPredMin = stats.PredCount
	return &Bookmark{
		Type:        BookmarkPredatorRecovery,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Predator population recovered from %d to %d", low, stats.PredCount),
	}
}

func (bd *BookmarkDetector) checkPreyCrash(stats WindowStats) *Bookmark {
	if bd.crashed || bd.preyPeak < 10 {
		return nil
	}
	floor := float64(bd.preyPeak) * (1 - bd.cfg.PreyCrashDrop)
	if float64(stats.PreyCount) >= floor {
		return nil
	}
	bd.crashed = true
	drop := 100 * (1 - float64(stats.PreyCount)/float64(bd.preyPeak))
	return &Bookmark{
		Type:        BookmarkPreyCrash,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Prey dropped %.0f%% from peak %d to %d", drop, bd.preyPeak, stats.PreyCount),
	}
}

func (bd *BookmarkDetector) checkExtinction(stats WindowStats) *Bookmark {
	prev := bd.previous()
	switch {
	case prev.PreyCount > 0 && stats.PreyCount == 0:
		return &Bookmark{Type: BookmarkExtinction, Tick: stats.WindowEndTick, Description: "Prey went extinct"}
	case prev.PredCount > 0 && stats.PredCount == 0:
		return &Bookmark{Type: BookmarkExtinction, Tick: stats.WindowEndTick, Description: "Predators went extinct"}
	}
	return nil
}

// checkStableEcosystem fires once per run of StableWindows consecutive
// windows in which both populations vary by less than StableCV.
func (bd *BookmarkDetector) checkStableEcosystem(stats WindowStats) *Bookmark {
	n := bd.cfg.StableWindows
	if n < 2 {
		return nil
	}
	window := bd.latest(n)
	if window == nil || stats.PreyCount == 0 || stats.PredCount == 0 {
		bd.stableRun = 0
		return nil
	}
	prey := make([]float64, n)
	pred := make([]float64, n)
	for i, w := range window {
		prey[i] = float64(w.PreyCount)
		pred[i] = float64(w.PredCount)
	}
	if CoefficientOfVariation(prey) >= bd.cfg.StableCV || CoefficientOfVariation(pred) >= bd.cfg.StableCV {
		bd.stableRun = 0
		return nil
	}
	bd.stableRun++
	if bd.stableRun != 1 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkStableEcosystem,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Stable coexistence over %d windows: prey=%d pred=%d", n, stats.PreyCount, stats.PredCount),
	}
}
