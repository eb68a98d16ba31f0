package builder

// Wiretap decorates a visitor and reports every check and visit to the
// registered listeners. The delegate's behavior is unchanged: a panic in
// the delegate propagates and AfterVisit is not called for that visit.
type Wiretap struct {
	delegate Visitor
}

func NewWiretap(delegate Visitor) *Wiretap {
	return &Wiretap{delegate: delegate}
}

func (w *Wiretap) Unwrap() Visitor { return w.delegate }

func (w *Wiretap) Visit(element any) {
	w.VisitPath(nil, element)
}

func (w *Wiretap) VisitPath(path Path, element any) {
	current := Listeners()
	for _, l := range current {
		l.BeforeVisit(w.delegate, path, element)
	}
	VisitWith(w.delegate, path, element)
	for _, l := range current {
		l.AfterVisit(w.delegate, path, element)
	}
}

func (w *Wiretap) CanVisit(path Path, element any) bool {
	ok := CanVisit(w.delegate, path, element)
	for _, l := range Listeners() {
		l.OnCheck(w.delegate, ok, element)
	}
	return ok
}

func (w *Wiretap) Order() int { return OrderOf(w.delegate) }
