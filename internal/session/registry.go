package session

import (
	"errors"
	"log/slog"
	"sync"

	"blastview/internal/slotmap"
)

var (
	// ErrUnknownHandle is returned for handles that were never issued.
	ErrUnknownHandle = errors.New("session: unknown handle")
	// ErrStaleHandle is returned for handles of released sessions.
	ErrStaleHandle = errors.New("session: stale handle")
	// ErrRegistryClosed is returned by Init after Close.
	ErrRegistryClosed = errors.New("session: registry closed")
)

// Handle is the opaque token a host holds for a session. Zero is never issued.
type Handle uint64

// Registry hands out handles for sessions. Lookups are safe for concurrent
// use; the sessions themselves are not.
type Registry struct {
	mu       sync.Mutex
	sessions *slotmap.Map[*Session]
	closed   bool
	log      *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{sessions: slotmap.New[*Session](), log: log}
}

// Init creates a session and returns its handle.
func (r *Registry) Init(opts Options) (Handle, error) {
	if opts.Logger == nil {
		opts.Logger = r.log
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, ErrRegistryClosed
	}
	r.mu.Unlock()

	s := New(opts)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrRegistryClosed
	}
	h := Handle(r.sessions.Insert(s).Bits())
	s.log = s.log.With("session", uint64(h))
	r.log.Info("session created", "handle", uint64(h))
	return h, nil
}

// Get resolves a handle.
func (r *Registry) Get(h Handle) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookup(h)
}

func (r *Registry) lookup(h Handle) (*Session, error) {
	if h == 0 {
		return nil, ErrUnknownHandle
	}
	s, err := r.sessions.Get(slotmap.KeyFromBits(uint64(h)))
	switch {
	case errors.Is(err, slotmap.ErrStaleKey):
		return nil, ErrStaleHandle
	case err != nil:
		return nil, ErrUnknownHandle
	}
	return s, nil
}

// Release runs the session's final update and invalidates the handle.
func (r *Registry) Release(h Handle) error {
	r.mu.Lock()
	s, err := r.lookup(h)
	if err == nil {
		_, err = r.sessions.Remove(slotmap.KeyFromBits(uint64(h)))
	}
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Release()
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions.Len()
}

// Each calls fn for every live session until fn returns false. fn must not
// call back into the registry.
func (r *Registry) Each(fn func(Handle, *Session) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions.Each(func(k slotmap.Key, s *Session) bool {
		return fn(Handle(k.Bits()), s)
	})
}

// Close releases every session and refuses new ones.
func (r *Registry) Close() error {
	r.mu.Lock()
	r.closed = true
	var live []*Session
	var keys []slotmap.Key
	r.sessions.Each(func(k slotmap.Key, s *Session) bool {
		live = append(live, s)
		keys = append(keys, k)
		return true
	})
	for _, k := range keys {
		r.sessions.Remove(k)
	}
	r.mu.Unlock()

	var errs []error
	for _, s := range live {
		if err := s.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
