package session

// Notifier carries the two outbound calls a session makes to its host.
type Notifier interface {
	// SendPick delivers the ids hit by a pick ray.
	SendPick(ids []uint64)
	// Block lets the host run its own work before a frame is simulated.
	Block()
}

// Bindings offers one notifier per host context. The session picks one
// when its window is created and keeps it.
type Bindings struct {
	MainThread Notifier
	Worker     Notifier
}

func (b Bindings) pick(inWorker bool) Notifier {
	n := b.MainThread
	if inWorker {
		n = b.Worker
	}
	if n == nil {
		return nopNotifier{}
	}
	return n
}

type nopNotifier struct{}

func (nopNotifier) SendPick([]uint64) {}
func (nopNotifier) Block()            {}

// NotifierFuncs adapts two functions into a Notifier. Nil fields are no-ops.
type NotifierFuncs struct {
	Pick  func(ids []uint64)
	Yield func()
}

func (n NotifierFuncs) SendPick(ids []uint64) {
	if n.Pick != nil {
		n.Pick(ids)
	}
}

func (n NotifierFuncs) Block() {
	if n.Yield != nil {
		n.Yield()
	}
}
