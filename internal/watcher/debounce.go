package watcher

import (
	"sort"
	"sync"
	"time"
)

// eventDebouncer batches file events so a burst of writes to the same file
// triggers one annotation pass. The latest event per path wins.
type eventDebouncer struct {
	mutex    sync.Mutex
	events   map[string]struct{}
	timer    *time.Timer
	debounce time.Duration
	handle   func(path string)
	stopped  bool
	flushWG  sync.WaitGroup
}

func newEventDebouncer(debounce time.Duration, handle func(path string)) *eventDebouncer {
	if debounce <= 0 {
		debounce = 50 * time.Millisecond
	}
	return &eventDebouncer{
		events:   make(map[string]struct{}),
		debounce: debounce,
		handle:   handle,
	}
}

func (d *eventDebouncer) addEvent(path string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.stopped {
		return
	}

	d.events[path] = struct{}{}

	// Reset the timer so the batch settles before flushing.
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.debounce, d.flush)
}

// stop discards pending events and waits for an in-flight flush. Events
// pending at shutdown are acceptable to lose.
func (d *eventDebouncer) stop() {
	d.mutex.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.events = make(map[string]struct{})
	d.mutex.Unlock()

	d.flushWG.Wait()
}

// flush hands every accumulated path to the handler, in sorted order so
// repeated batches process deterministically.
func (d *eventDebouncer) flush() {
	d.mutex.Lock()
	if d.stopped {
		d.mutex.Unlock()
		return
	}
	events := d.events
	d.events = make(map[string]struct{})
	d.flushWG.Add(1)
	d.mutex.Unlock()
	defer d.flushWG.Done()

	if len(events) == 0 {
		return
	}

	paths := make([]string, 0, len(events))
	for path := range events {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		d.handle(path)
	}
}
