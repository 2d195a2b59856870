// Package navigator tracks which page of a storybook is current and moves
// between pages in response to swipe gestures, silencing the outgoing page
// before the incoming one starts its own narration.
//
// The navigator is a two-state machine. Idle(i) rests on page i. A gesture
// towards a neighbouring page enters Transitioning(i, j, dir); committing it
// lands on Idle(j), cancelling it returns to Idle(i) without touching
// narration. There is no wraparound at either end of the book.
package navigator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"storybook/internal/domain/story"
)

var (
	// ErrBoundary rejects a move outside the book.
	ErrBoundary = errors.New("navigation would leave the storybook")
	// ErrTransitioning rejects a gesture while another is in progress.
	ErrTransitioning = errors.New("page transition already in progress")
	// ErrNotTransitioning rejects a commit or cancel with no gesture.
	ErrNotTransitioning = errors.New("no page transition in progress")
	// ErrNotStarted rejects navigation before Start.
	ErrNotStarted = errors.New("navigator not started")
)

// DefaultCommitThreshold is the gesture progress past which a swipe commits.
const DefaultCommitThreshold = 0.5

type Direction int

const (
	None Direction = iota
	Forward
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "none"
	}
}

func (d Direction) step() int {
	switch d {
	case Forward:
		return 1
	case Backward:
		return -1
	default:
		return 0
	}
}

// State is a snapshot of the navigation state. Target equals Current when
// idle.
type State struct {
	Current       int
	Target        int
	Direction     Direction
	Transitioning bool
}

func (s State) String() string {
	if s.Transitioning {
		return fmt.Sprintf("Transitioning(%d, %d, %s)", s.Current, s.Target, s.Direction)
	}
	return fmt.Sprintf("Idle(%d)", s.Current)
}

// Page is the collaborator behind one storybook page. It is told when it
// becomes the current page and when it stops being it.
type Page interface {
	BecameCurrent()
	BecameHidden()
}

// Narrator is the narration channel the navigator silences before every
// page change.
type Narrator interface {
	Stop()
}

// Navigator is the paginated story navigator.
type Navigator struct {
	book      []story.Page
	pages     []Page
	narrator  Narrator
	threshold float64
	start     int
	log       logrus.FieldLogger

	mu        sync.Mutex
	state     State
	started   bool
	observers []stateObserver
	nextObs   int
}

type stateObserver struct {
	id int
	fn func(State)
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithCommitThreshold sets the swipe progress needed to commit.
func WithCommitThreshold(t float64) Option {
	return func(n *Navigator) {
		if t > 0 && t <= 1 {
			n.threshold = t
		}
	}
}

// WithStartPage makes Start land on page i instead of the first page.
func WithStartPage(i int) Option {
	return func(n *Navigator) { n.start = i }
}

// WithLogger sets the logger used for navigation diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(n *Navigator) { n.log = log }
}

// WithPages replaces the default narrated pages with custom collaborators,
// built once per story page.
func WithPages(build func(story.Page) Page) Option {
	return func(n *Navigator) {
		for i, p := range n.book {
			n.pages[i] = build(p)
		}
	}
}

// New builds a navigator over the pages of book. Each page narrates its own
// text through speaker when it becomes current.
func New(book story.Book, speaker Speaker, opts ...Option) (*Navigator, error) {
	if err := book.Normalize(); err != nil {
		return nil, err
	}

	n := &Navigator{
		book:      append([]story.Page(nil), book.Pages...),
		narrator:  speaker,
		threshold: DefaultCommitThreshold,
		log:       logrus.StandardLogger(),
	}
	n.pages = make([]Page, len(n.book))
	for i, p := range n.book {
		n.pages[i] = NewNarratedPage(p, speaker)
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.start < 0 || n.start >= len(n.book) {
		return nil, fmt.Errorf("start page %d: %w", n.start, ErrBoundary)
	}
	n.state = State{Current: n.start, Target: n.start}
	return n, nil
}

// Len returns the number of pages.
func (n *Navigator) Len() int {
	return len(n.book)
}

// Start performs the initial programmatic navigation onto the start page.
// It runs the same stop-then-narrate sequence as any committed transition.
func (n *Navigator) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.started {
		return nil
	}
	n.started = true
	n.state = State{Current: n.start, Target: n.start, Direction: None, Transitioning: true}
	n.commitLocked(-1)
	return nil
}

// Begin starts a gesture towards the neighbouring page in dir.
func (n *Navigator) Begin(dir Direction) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.readyLocked(); err != nil {
		return err
	}
	if dir == None {
		return fmt.Errorf("gesture without direction: %w", ErrBoundary)
	}

	target := n.state.Current + dir.step()
	if target < 0 || target >= len(n.book) {
		n.log.WithFields(logrus.Fields{
			"page":      n.state.Current,
			"direction": dir.String(),
		}).Debug("Gesture rejected at book boundary")
		return ErrBoundary
	}

	n.state = State{Current: n.state.Current, Target: target, Direction: dir, Transitioning: true}
	n.notifyLocked()
	return nil
}

// Commit finishes the gesture in progress and lands on its target page.
func (n *Navigator) Commit() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.started {
		return ErrNotStarted
	}
	if !n.state.Transitioning {
		return ErrNotTransitioning
	}
	n.commitLocked(n.state.Current)
	return nil
}

// Cancel abandons the gesture in progress. Narration is left alone since
// the current page never changed.
func (n *Navigator) Cancel() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.started {
		return ErrNotStarted
	}
	if !n.state.Transitioning {
		return ErrNotTransitioning
	}
	n.state = State{Current: n.state.Current, Target: n.state.Current}
	n.notifyLocked()
	return nil
}

// Swipe runs a whole gesture: it commits when progress reached the commit
// threshold and cancels otherwise. It reports whether the page changed.
func (n *Navigator) Swipe(dir Direction, progress float64) (bool, error) {
	if err := n.Begin(dir); err != nil {
		return false, err
	}
	if progress >= n.threshold {
		return true, n.Commit()
	}
	return false, n.Cancel()
}

// Next moves one page forward with a completed gesture.
func (n *Navigator) Next() error {
	_, err := n.Swipe(Forward, 1)
	return err
}

// Previous moves one page backward with a completed gesture.
func (n *Navigator) Previous() error {
	_, err := n.Swipe(Backward, 1)
	return err
}

// Select jumps straight to page i, as a tap on the page indicator would.
func (n *Navigator) Select(i int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.readyLocked(); err != nil {
		return err
	}
	if i < 0 || i >= len(n.book) {
		return ErrBoundary
	}
	cur := n.state.Current
	if i == cur {
		return nil
	}

	dir := Forward
	if i < cur {
		dir = Backward
	}
	n.state = State{Current: cur, Target: i, Direction: dir, Transitioning: true}
	n.commitLocked(cur)
	return nil
}

// commitLocked lands on the transition target. outgoing is the page being
// left, or -1 when nothing was showing.
func (n *Navigator) commitLocked(outgoing int) {
	target := n.state.Target
	dir := n.state.Direction

	// the outgoing page must not be able to start a delayed narration
	// after the stop
	if outgoing >= 0 {
		n.pages[outgoing].BecameHidden()
	}
	n.narrator.Stop()

	n.state = State{Current: target, Target: target}
	n.log.WithFields(logrus.Fields{
		"from":      outgoing,
		"to":        target,
		"direction": dir.String(),
	}).Debug("Page committed")

	n.pages[target].BecameCurrent()
	n.notifyLocked()
}

func (n *Navigator) readyLocked() error {
	if !n.started {
		return ErrNotStarted
	}
	if n.state.Transitioning {
		return ErrTransitioning
	}
	return nil
}

// PageBefore returns the page preceding page i, or false at the first page
// and for indexes outside the book.
func (n *Navigator) PageBefore(i int) (story.Page, bool) {
	if i <= 0 || i >= len(n.book) {
		return story.Page{}, false
	}
	return n.book[i-1], true
}

// PageAfter returns the page following page i, or false at the last page
// and for indexes outside the book.
func (n *Navigator) PageAfter(i int) (story.Page, bool) {
	if i < 0 || i >= len(n.book)-1 {
		return story.Page{}, false
	}
	return n.book[i+1], true
}

// Page returns page i, or false for indexes outside the book.
func (n *Navigator) Page(i int) (story.Page, bool) {
	if i < 0 || i >= len(n.book) {
		return story.Page{}, false
	}
	return n.book[i], true
}

// State returns the current navigation state.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Current returns the current page.
func (n *Navigator) Current() story.Page {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.book[n.state.Current]
}

// Subscribe registers fn to be called synchronously after every state
// change. fn must not call back into the navigator's gesture methods.
func (n *Navigator) Subscribe(fn func(State)) (cancel func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextObs++
	id := n.nextObs
	n.observers = append(n.observers, stateObserver{id: id, fn: fn})

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, o := range n.observers {
			if o.id == id {
				n.observers = append(n.observers[:i:i], n.observers[i+1:]...)
				return
			}
		}
	}
}

func (n *Navigator) notifyLocked() {
	for _, o := range n.observers {
		o.fn(n.state)
	}
}

// Close hides the current page and silences narration.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.started {
		return
	}
	n.started = false
	n.pages[n.state.Current].BecameHidden()
	n.narrator.Stop()
	n.state = State{Current: n.state.Current, Target: n.state.Current}
}
