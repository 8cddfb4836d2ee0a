package homepage

import (
	"sync"
)

// ChangeKind says which part of the input changed.
type ChangeKind int

const (
	ChangeText ChangeKind = iota
	ChangeOption
	ChangeMode
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeText:
		return "text"
	case ChangeOption:
		return "option"
	case ChangeMode:
		return "mode"
	}
	return "unknown"
}

// Change is delivered to watchers after every mutation.
type Change struct {
	Kind    ChangeKind
	Option  string // option name, ChangeOption only
	Version uint64
}

// State is an immutable copy of the store.
type State struct {
	Text    string
	Options Options
	Mode    OutputMode
	Version uint64
}

// Store holds the user-controlled playground input.  Setters never
// validate across fields; the controller copes with any combination.
type Store struct {
	mu       sync.Mutex
	state    State
	watchers map[int]chan Change
	nextID   int
}

// NewStore returns a Store holding text, DefaultOptions and ModeJSON.
func NewStore(text string) *Store {
	return &Store{
		state: State{
			Text:    text,
			Options: DefaultOptions(),
			Mode:    ModeJSON,
		},
		watchers: make(map[int]chan Change),
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetText replaces the source text.
func (s *Store) SetText(text string) {
	s.mu.Lock()
	s.state.Text = text
	s.bump(Change{Kind: ChangeText})
	s.mu.Unlock()
}

// SetOption updates one option from its string form ("true", "errors",
// ...).  Unknown names wrap ErrUnknownOption.
func (s *Store) SetOption(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	opts := s.state.Options
	if err := opts.set(name, value); err != nil {
		return err
	}
	s.state.Options = opts
	s.bump(Change{Kind: ChangeOption, Option: name})
	return nil
}

// SetOptions replaces every option at once.
func (s *Store) SetOptions(opts Options) {
	s.mu.Lock()
	s.state.Options = opts
	s.bump(Change{Kind: ChangeOption})
	s.mu.Unlock()
}

// SetOutputMode replaces the output mode.
func (s *Store) SetOutputMode(m OutputMode) {
	s.mu.Lock()
	s.state.Mode = m
	s.bump(Change{Kind: ChangeMode})
	s.mu.Unlock()
}

// Watch returns a channel receiving a Change after each mutation, and a
// function that stops delivery.  Delivery never blocks a setter; when the
// buffer is full the change is dropped, and the receiver, which still has
// earlier changes queued, reads the latest state with Snapshot.
func (s *Store) Watch() (<-chan Change, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan Change, 32)
	s.watchers[id] = ch
	return ch, func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// bump must be called with s.mu held.
func (s *Store) bump(c Change) {
	s.state.Version++
	c.Version = s.state.Version
	for _, ch := range s.watchers {
		select {
		case ch <- c:
		default:
		}
	}
}
