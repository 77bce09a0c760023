package device

import "sync"

// dispatchBuffer is the queued-callback capacity before Post blocks.
const dispatchBuffer = 64

// Dispatcher serialises observer callbacks onto one goroutine so events
// from concurrent channel goroutines arrive in a stable order.
type Dispatcher struct {
	fns      chan func()
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDispatcher creates a stopped dispatcher; call Start before use.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		fns:  make(chan func(), dispatchBuffer),
		done: make(chan struct{}),
	}
}

// Start launches the dispatch goroutine.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case fn := <-d.fns:
				fn()
			case <-d.done:
				// Drain whatever was queued before the stop.
				for {
					select {
					case fn := <-d.fns:
						fn()
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop shuts the dispatcher down, running queued callbacks first.
// Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.done) })
	d.wg.Wait()
}

// Post queues fn for execution on the dispatch goroutine. After Stop,
// callbacks are dropped.
func (d *Dispatcher) Post(fn func()) {
	select {
	case <-d.done:
	default:
		select {
		case d.fns <- fn:
		case <-d.done:
		}
	}
}
