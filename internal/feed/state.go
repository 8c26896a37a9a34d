package feed

import "fmt"

// State is the lifecycle of a feed. Exactly one of Idle, Loading, Ready or
// Failed; a loading feed cannot also carry an error.
type State interface {
	isState()
	String() string
}

// Idle: no page requested for the current filter yet
type Idle struct{}

// Loading: a page request is in flight. Initial is true for the first page.
type Loading struct {
	Initial bool
}

// Ready: at least one page has been applied
type Ready struct{}

// Failed: the last request failed. Terminal until the filter changes or Reset.
type Failed struct {
	Err error
}

func (Idle) isState()    {}
func (Loading) isState() {}
func (Ready) isState()   {}
func (Failed) isState()  {}

func (Idle) String() string { return "idle" }

func (l Loading) String() string {
	if l.Initial {
		return "loading_initial"
	}
	return "loading_more"
}

func (Ready) String() string { return "ready" }

func (f Failed) String() string { return fmt.Sprintf("failed: %v", f.Err) }
