package postprocess

import (
	"github.com/hochfrequenz/padsched/internal/domain"
	"github.com/hochfrequenz/padsched/internal/precedence"
)

// Order numbers the wells of each pad and task by their position on the pad,
// flags the wells carrying the one-time mobilization and demobilization, and
// fills in each well's mob, main and demob windows. Hints must come from
// Explode so that wells appear in rank order.
func Order(hints []domain.Hint) []domain.Hint {
	groups := make(map[precedence.PadTask][]int)
	var keys []precedence.PadTask
	for i, h := range hints {
		key := precedence.PadTask{Pad: h.Pad, Task: h.Task}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], i)
	}

	out := append([]domain.Hint(nil), hints...)
	for _, key := range keys {
		members := groups[key]
		for k, i := range members {
			h := &out[i]
			h.Order = k + 1
			h.FirstJobOnPad = k == 0
			h.LastJobOnPad = k == len(members)-1
			setWindows(h, k)
		}
	}
	return out
}

func setWindows(h *domain.Hint, k int) {
	mob, demob := h.Mobilization, h.Demobilization
	if !h.RequiresResources {
		mob, demob = 0, 0
	}

	switch h.PadOperation {
	case domain.PadSequence:
		mainStart := h.Start + mob + float64(k)*h.DurationBase
		h.Main = domain.Interval{Start: mainStart, End: mainStart + h.DurationBase}
		h.Mob = domain.Interval{Start: h.Main.Start, End: h.Main.Start}
		if h.FirstJobOnPad {
			h.Mob = domain.Interval{Start: h.Start, End: h.Start + mob}
		}
		h.Demob = domain.Interval{Start: h.Main.End, End: h.Main.End}
		if h.LastJobOnPad {
			h.Demob = domain.Interval{Start: h.Main.End, End: h.Main.End + demob}
		}

	case domain.PadDisabled:
		cycle := h.DurationBase + mob + demob
		wellStart := h.Start + float64(k)*cycle
		h.Mob = domain.Interval{Start: wellStart, End: wellStart + mob}
		h.Main = domain.Interval{Start: h.Mob.End, End: h.Mob.End + h.DurationBase}
		h.Demob = domain.Interval{Start: h.Main.End, End: h.Main.End + demob}

	case domain.PadParallel, domain.PadBatch:
		h.Mob = domain.Interval{Start: h.Start, End: h.Start + mob}
		h.Main = domain.Interval{Start: h.Start + mob, End: h.End - demob}
		h.Demob = domain.Interval{Start: h.End - demob, End: h.End}
	}
}
