package agent

// runState carries URL provenance for a single run. The loop is the only
// writer, so no locking is needed.
type runState struct {
	attempted map[string]struct{}
	verified  map[string]*urlRecord
	// verifiedOrder keeps source output stable across runs.
	verifiedOrder []string
	rejected      map[string]string
	fetched       map[string]struct{}
	traces        []Trace

	budgetNotified bool
}

func newRunState() *runState {
	return &runState{
		attempted: make(map[string]struct{}),
		verified:  make(map[string]*urlRecord),
		rejected:  make(map[string]string),
		fetched:   make(map[string]struct{}),
	}
}

func (st *runState) addVerified(rec *urlRecord) {
	if _, ok := st.verified[rec.URL]; !ok {
		st.verifiedOrder = append(st.verifiedOrder, rec.URL)
	}
	st.verified[rec.URL] = rec
}

func (st *runState) pagesFetched() int {
	return len(st.fetched)
}

// sources lists verified pages, preferring the canonical URL, then the
// final URL after redirects, then the URL as requested.
func (st *runState) sources() []Source {
	out := make([]Source, 0, len(st.verifiedOrder))
	for _, url := range st.verifiedOrder {
		rec, ok := st.verified[url]
		if !ok {
			continue
		}
		display := rec.CanonicalURL
		if display == "" {
			display = rec.FinalURL
		}
		if display == "" {
			display = url
		}
		title := rec.Title
		if title == "" {
			title = display
		}
		out = append(out, Source{URL: display, Title: title})
	}
	return out
}
