// Package navigation routes the console between screens.
package navigation

import "sync"

const (
	// EntryRoute is the sign-in screen.
	EntryRoute = "/"
	// PrimaryListingRoute is the screen shown after a successful sign-in.
	PrimaryListingRoute = "/clientes"
)

// Navigator moves the user to a route.
type Navigator interface {
	Navigate(route string)
}

// Func adapts a function to Navigator.
type Func func(route string)

// Navigate calls the function.
func (navigate Func) Navigate(route string) {
	navigate(route)
}

// Discard ignores navigation requests.
var Discard Navigator = Func(func(string) {})

// Recorder remembers every route it was asked to visit.
type Recorder struct {
	mutex  sync.Mutex
	visits []string
}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Navigate records the route.
func (recorder *Recorder) Navigate(route string) {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	recorder.visits = append(recorder.visits, route)
}

// Visits returns a copy of the recorded routes in order.
func (recorder *Recorder) Visits() []string {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	clone := make([]string, len(recorder.visits))
	copy(clone, recorder.visits)
	return clone
}

// Current returns the last visited route, or EntryRoute when nothing was visited.
func (recorder *Recorder) Current() string {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	if len(recorder.visits) == 0 {
		return EntryRoute
	}
	return recorder.visits[len(recorder.visits)-1]
}

// Count returns how many times route was visited.
func (recorder *Recorder) Count(route string) int {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	total := 0
	for _, visit := range recorder.visits {
		if visit == route {
			total++
		}
	}
	return total
}
