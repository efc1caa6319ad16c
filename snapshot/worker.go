package snapshot

import (
	"sync"

	"github.com/svanichkin/camterm/codec"
	"github.com/svanichkin/camterm/logs"
)

// Result describes one finished snapshot.
type Result struct {
	Path string
	Err  error
}

// Worker saves snapshots off the render path. Frames handed to Submit must
// not be modified afterwards.
type Worker struct {
	writer   *Writer
	onResult func(Result)

	queue    chan codec.Frame
	done     chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
	stopped  bool
}

const defaultQueueSize = 4

// StartWorker launches the background saver. onResult may be nil.
func StartWorker(w *Writer, onResult func(Result)) *Worker {
	wk := &Worker{
		writer:   w,
		onResult: onResult,
		queue:    make(chan codec.Frame, defaultQueueSize),
		done:     make(chan struct{}),
	}
	go wk.loop()
	return wk
}

func (wk *Worker) loop() {
	defer close(wk.done)
	for frame := range wk.queue {
		wk.save(frame)
	}
}

func (wk *Worker) save(frame codec.Frame) {
	path, err := wk.writer.SaveNext(frame)
	if err != nil {
		logs.LogV("[snap] %s: %v", path, err)
	} else {
		logs.LogV("[snap] saved %s", path)
	}
	if wk.onResult != nil {
		wk.onResult(Result{Path: path, Err: err})
	}
}

// Submit queues frame for saving. A snapshot request is never dropped: when
// the queue is full the frame is saved on the caller's goroutine.
func (wk *Worker) Submit(frame codec.Frame) {
	wk.mu.RLock()
	if wk.stopped {
		wk.mu.RUnlock()
		wk.save(frame)
		return
	}
	select {
	case wk.queue <- frame:
		wk.mu.RUnlock()
	default:
		wk.mu.RUnlock()
		wk.save(frame)
	}
}

// Stop drains pending snapshots and waits for the worker to exit.
func (wk *Worker) Stop() {
	wk.stopOnce.Do(func() {
		wk.mu.Lock()
		wk.stopped = true
		close(wk.queue)
		wk.mu.Unlock()
	})
	<-wk.done
}
