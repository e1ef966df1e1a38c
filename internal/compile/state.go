package compile

import "fmt"

// State is a document's position in the full compile sequence.
type State int

const (
	StateUnparsed State = iota
	StateParsed
	StateMetadataAssigned
	StateTocCollected
	StateMathRewritten
	StateEnriched
	StateCodegenned
)

var stateNames = [...]string{
	"unparsed", "parsed", "metadata_assigned", "toc_collected",
	"math_rewritten", "enriched", "codegenned",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// tracker enforces strictly sequential transitions.
type tracker struct {
	path  string
	state State
	trace func(path string, s State)
}

func (t *tracker) advance(to State) error {
	if to != t.state+1 {
		return fmt.Errorf("compile %s: invalid transition %s -> %s", t.path, t.state, to)
	}
	t.state = to
	if t.trace != nil {
		t.trace(t.path, to)
	}
	return nil
}
