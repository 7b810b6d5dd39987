// Package dashboard turns the immutable dataset into chart data
// for one selected state.
package dashboard

// Selection is the dropdown model: the distinct states in first-seen order
// and the default choice.
type Selection struct {
	options []string
	index   map[string]bool
	def     string
}

// NewSelection builds the option set. The default is kept even when it is
// not an option; Resolve then reports it as unknown and the charts render
// blank.
func NewSelection(states []string, def string) *Selection {
	s := &Selection{
		options: append([]string(nil), states...),
		index:   make(map[string]bool, len(states)),
		def:     def,
	}
	for _, st := range states {
		s.index[st] = true
	}
	return s
}

// Options returns the selectable states.
func (s *Selection) Options() []string {
	return append([]string(nil), s.options...)
}

// Default returns the configured default state.
func (s *Selection) Default() string { return s.def }

// DefaultKnown reports whether the default state is one of the options.
func (s *Selection) DefaultKnown() bool { return s.index[s.def] }

// Resolve returns value and true when it is a known state. An empty value
// resolves to the default.
func (s *Selection) Resolve(value string) (string, bool) {
	if value == "" {
		value = s.def
	}
	return value, s.index[value]
}
