package ratelimit

import "time"

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
)

// window is the admission history of a single client, oldest first.
// Entries before head are expired and waiting to be compacted away.
type window struct {
	ts   []time.Time
	head int

	// denied is set on the first rejection of a streak and cleared on the next
	// admission, so OnFirstDenied fires once per streak
	denied bool
}

// prune drops every entry older than the hour window. Entries are appended in
// time order, so this only ever trims a prefix.
func (w *window) prune(now time.Time) {
	for w.head < len(w.ts) && now.Sub(w.ts[w.head]) > hourWindow {
		w.head++
	}
	// compact once the dead prefix is at least half the slice
	if w.head > 0 && w.head*2 >= len(w.ts) {
		n := copy(w.ts, w.ts[w.head:])
		clear(w.ts[n:])
		w.ts = w.ts[:n]
		w.head = 0
	}
}

// size is the number of live entries, ie the hour count after a prune.
func (w *window) size() int {
	return len(w.ts) - w.head
}

// within counts live entries no older than d, scanning back from the newest.
func (w *window) within(now time.Time, d time.Duration) int {
	n := 0
	for i := len(w.ts) - 1; i >= w.head; i-- {
		if now.Sub(w.ts[i]) > d {
			break
		}
		n++
	}
	return n
}

func (w *window) add(now time.Time) {
	w.ts = append(w.ts, now)
}
