package game

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/phrazzld/concentration/internal/domain"
	"github.com/stretchr/testify/require"
)

// manualJob is a Job owned by a manualScheduler
type manualJob struct {
	due     time.Duration
	every   time.Duration
	seq     int
	fn      func()
	stopped bool
}

func (j *manualJob) Stop() bool {
	if j.stopped {
		return false
	}
	j.stopped = true
	return true
}

// manualScheduler runs jobs synchronously on the goroutine calling Advance,
// in due-time order, which is exactly the single-goroutine contract a
// Session expects from its host.
type manualScheduler struct {
	now  time.Duration
	seq  int
	jobs []*manualJob
}

func (s *manualScheduler) AfterFunc(d time.Duration, fn func()) Job {
	return s.add(d, 0, fn)
}

func (s *manualScheduler) Every(d time.Duration, fn func()) Job {
	return s.add(d, d, fn)
}

func (s *manualScheduler) add(d, every time.Duration, fn func()) *manualJob {
	s.seq++
	j := &manualJob{due: s.now + d, every: every, seq: s.seq, fn: fn}
	s.jobs = append(s.jobs, j)
	return j
}

// Advance moves time forward by d, firing every job that comes due.
func (s *manualScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		j := s.next(target)
		if j == nil {
			break
		}
		s.now = j.due
		if j.every > 0 {
			j.due += j.every
		} else {
			j.stopped = true
		}
		j.fn()
	}
	s.now = target
}

func (s *manualScheduler) next(limit time.Duration) *manualJob {
	live := s.jobs[:0]
	for _, j := range s.jobs {
		if !j.stopped {
			live = append(live, j)
		}
	}
	s.jobs = live

	sort.SliceStable(s.jobs, func(a, b int) bool {
		if s.jobs[a].due != s.jobs[b].due {
			return s.jobs[a].due < s.jobs[b].due
		}
		return s.jobs[a].seq < s.jobs[b].seq
	})
	if len(s.jobs) == 0 || s.jobs[0].due > limit {
		return nil
	}
	return s.jobs[0]
}

// Active counts jobs that can still fire.
func (s *manualScheduler) Active() int {
	n := 0
	for _, j := range s.jobs {
		if !j.stopped {
			n++
		}
	}
	return n
}

// recordingView keeps the latest render of every card and the history of
// counter renders.
type recordingView struct {
	cards       map[int]CardView
	cardRenders int
	times       []int
	flips       []int
	ended       []Outcome
}

func newRecordingView() *recordingView {
	return &recordingView{cards: make(map[int]CardView)}
}

func (v *recordingView) RenderCard(card CardView) {
	v.cards[card.ID] = card
	v.cardRenders++
}

func (v *recordingView) RenderTimeRemaining(seconds int) {
	v.times = append(v.times, seconds)
}

func (v *recordingView) RenderFlipCount(flips int) {
	v.flips = append(v.flips, flips)
}

func (v *recordingView) RenderEnded(outcome Outcome) {
	v.ended = append(v.ended, outcome)
}

func (v *recordingView) lastTime() int {
	return v.times[len(v.times)-1]
}

func (v *recordingView) lastFlips() int {
	return v.flips[len(v.flips)-1]
}

type fixture struct {
	session   *Session
	scheduler *manualScheduler
	view      *recordingView
}

func newFixture(t *testing.T, params Params) *fixture {
	t.Helper()

	scheduler := &manualScheduler{}
	view := newRecordingView()
	session, err := NewSession(params, scheduler, view, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	return &fixture{session: session, scheduler: scheduler, view: view}
}

// pairWithFace returns the two card ids holding face v.
func (f *fixture) pairWithFace(t *testing.T, v domain.FaceValue) (int, int) {
	t.Helper()

	var ids []int
	for _, c := range f.session.State().Cards {
		if c.Face == v {
			ids = append(ids, c.ID)
		}
	}
	require.Len(t, ids, 2)
	return ids[0], ids[1]
}

func (f *fixture) cardState(id int) domain.CardState {
	return f.session.State().Cards[id].State
}
