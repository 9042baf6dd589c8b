package types

// CompletionKind classifies a CodeCompletionResult by its native cursor
// kind.
type CompletionKind uint8

const (
	CompletionFunction CompletionKind = iota
	CompletionConstructor
	CompletionDestructor
	CompletionVariable
	CompletionClass
	CompletionEnum
	CompletionEnumerator
	CompletionNamespace
	CompletionPreprocessor
	CompletionSignal
	CompletionSlot
	CompletionOther
)

// Availability reflects the native availability code of a completion
// candidate.
type Availability uint8

const (
	Available Availability = iota
	Deprecated
	NotAvailable
	NotAccessible
)

// CodeCompletionResult is one ranked completion candidate. Priority is
// already inverted from the native source (lower displayed priority is
// better); a non-empty Text is the only validity requirement.
type CodeCompletionResult struct {
	Priority      uint32
	Kind          CompletionKind
	Availability  Availability
	Text          string
	Hint          string
	HasParameters bool
}

func (c CodeCompletionResult) Valid() bool {
	return c.Text != ""
}

// Less orders results lexicographically on
// (priority, kind, text, hint, has_parameters, availability).
func (c CodeCompletionResult) Less(other CodeCompletionResult) bool {
	if c.Priority != other.Priority {
		return c.Priority < other.Priority
	}
	if c.Kind != other.Kind {
		return c.Kind < other.Kind
	}
	if c.Text != other.Text {
		return c.Text < other.Text
	}
	if c.Hint != other.Hint {
		return c.Hint < other.Hint
	}
	if c.HasParameters != other.HasParameters {
		return !c.HasParameters
	}
	return c.Availability < other.Availability
}

// SortCompletions sorts in place per the ordering above.
func SortCompletions(results []CodeCompletionResult) {
	for i := 1; i < len(results); i++ {
		j := i
		for j > 0 && results[j].Less(results[j-1]) {
			results[j-1], results[j] = results[j], results[j-1]
			j--
		}
	}
}
