package lecture

// Section is one ordinal unit of lecture content. The index within the
// lecture's sequence is its sole identity.
type Section struct {
	Name        string
	Description string
}

// Sequence is the ordered list of sections for one lecture plus the cursor
// driven by presenter navigation. The list is immutable once the lecture
// starts. The cursor holds 0 <= Index <= len; Index == len marks the
// completed state, which is terminal.
type Sequence struct {
	sections []Section
	cursor   int
}

func NewSequence(sections []Section) *Sequence {
	return &Sequence{sections: sections}
}

func (s *Sequence) Len() int { return len(s.sections) }

// At returns the section at index i. Callers index only with values the
// sequence itself handed out.
func (s *Sequence) At(i int) Section { return s.sections[i] }

// Index returns the cursor position.
func (s *Sequence) Index() int { return s.cursor }

// Current returns the active section. Only valid while !Completed().
func (s *Sequence) Current() Section { return s.sections[s.cursor] }

// Completed reports whether the cursor has passed the last section.
func (s *Sequence) Completed() bool { return s.cursor == len(s.sections) }

// Advance moves the cursor forward. Advancing from the last section enters
// the completed state; callers must not advance past it.
func (s *Sequence) Advance() {
	if !s.Completed() {
		s.cursor++
	}
}

// Retreat moves the cursor back one section. At index 0 it is a silent
// no-op and reports false so the caller can skip rebroadcasting.
func (s *Sequence) Retreat() bool {
	if s.cursor == 0 {
		return false
	}
	s.cursor--
	return true
}
