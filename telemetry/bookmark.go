package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/creatures/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExtinction      BookmarkType = "extinction"
	BookmarkCapacityReached BookmarkType = "capacity_reached"
	BookmarkBabyBoom        BookmarkType = "baby_boom"
	BookmarkPopulationCrash BookmarkType = "population_crash"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `json:"type" csv:"type"`
	Tick        int64        `json:"tick" csv:"tick"`
	Description string       `json:"description" csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	cfg config.BookmarksConfig
	cap int

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentPeak int  // peak population in recent history
	atCapacity bool // last window ended at the cap
	seenAlive  bool // population has been non-zero at some point
}

// NewBookmarkDetector creates a detector with the given history size.
// populationCap is the world cap used for capacity bookmarks.
func NewBookmarkDetector(historySize, populationCap int, cfg config.BookmarksConfig) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		cfg:         cfg,
		cap:         populationCap,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkExtinction(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkCapacity(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkBabyBoom(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkPopulationCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	bd.recentPeak = 0
	for _, h := range bd.getHistory() {
		if h.Agents > bd.recentPeak {
			bd.recentPeak = h.Agents
		}
	}
	if stats.Agents > 0 {
		bd.seenAlive = true
	}
	bd.atCapacity = bd.cap > 0 && stats.Agents >= bd.cap

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

func (bd *BookmarkDetector) checkExtinction(stats WindowStats) *Bookmark {
	if !bd.seenAlive || stats.Agents > 0 {
		return nil
	}
	// Fires once per extinction; the next living window re-arms it.
	bd.seenAlive = false
	return &Bookmark{
		Type:        BookmarkExtinction,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Population died out after %d deaths this window", stats.Deaths),
	}
}

func (bd *BookmarkDetector) checkCapacity(stats WindowStats) *Bookmark {
	if bd.cap <= 0 || bd.atCapacity || stats.Agents < bd.cap {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkCapacityReached,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Population reached cap %d, %d additions discarded", bd.cap, stats.Discarded),
	}
}

func (bd *BookmarkDetector) checkBabyBoom(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Births
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 || stats.Births < bd.cfg.BabyBoom.MinBirths {
		return nil
	}

	if float64(stats.Births) > avg*bd.cfg.BabyBoom.Multiplier {
		return &Bookmark{
			Type:        BookmarkBabyBoom,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Births %d are %.1fx average (%.1f)", stats.Births, float64(stats.Births)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.recentPeak == 0 {
		return nil
	}
	drop := bd.recentPeak - stats.Agents
	dropPct := float64(drop) / float64(bd.recentPeak)
	if drop >= bd.cfg.PopulationCrash.MinDrop && dropPct >= bd.cfg.PopulationCrash.DropPercent {
		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population dropped %.0f%% from %d to %d", dropPct*100, bd.recentPeak, stats.Agents),
		}
	}
	return nil
}
