package job

// Arg is one command-line flag with an optional value.
type Arg struct {
	Flag     string
	Value    string
	HasValue bool
}

func Flag(name string) Arg { return Arg{Flag: name} }

func Value(name, value string) Arg { return Arg{Flag: name, Value: value, HasValue: true} }

// Args is an insertion-ordered flag -> optional value mapping. Setting an
// existing flag replaces its value in place and keeps its position.
type Args struct {
	items []Arg
}

func NewArgs(items ...Arg) Args {
	var a Args
	for _, it := range items {
		a.Put(it)
	}
	return a
}

func (a *Args) Put(arg Arg) {
	for i := range a.items {
		if a.items[i].Flag == arg.Flag {
			a.items[i] = arg
			return
		}
	}
	a.items = append(a.items, arg)
}

func (a Args) Get(flag string) (Arg, bool) {
	for _, it := range a.items {
		if it.Flag == flag {
			return it, true
		}
	}
	return Arg{}, false
}

func (a Args) Len() int { return len(a.items) }

// Items returns a copy in insertion order.
func (a Args) Items() []Arg { return append([]Arg(nil), a.items...) }

// Argv flattens the mapping into argv order: flag, then value when present.
func (a Args) Argv() []string {
	out := make([]string, 0, len(a.items)*2)
	for _, it := range a.items {
		out = append(out, it.Flag)
		if it.HasValue {
			out = append(out, it.Value)
		}
	}
	return out
}
