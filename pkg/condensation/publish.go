package condensation

// Publisher carries state changes out to whoever observes them. Calls must not
// block; results are never reported back.
type Publisher interface {
	PublishDewpoint(id string, dewpoint float64)
	PublishAlert(id string, state AlertState)
}

// Reader asks the physical sensor for a fresh reading.
type Reader interface {
	RequestRead(id string)
}

type PreferenceSource interface {
	Preferences(id string) Preferences
}

// ReaderFunc adapts a plain function to a Reader.
type ReaderFunc func(id string)

func (f ReaderFunc) RequestRead(id string) { f(id) }

// Publishers fans every publication out to each member in order.
type Publishers []Publisher

func (p Publishers) PublishDewpoint(id string, dewpoint float64) {
	for _, pub := range p {
		pub.PublishDewpoint(id, dewpoint)
	}
}

func (p Publishers) PublishAlert(id string, state AlertState) {
	for _, pub := range p {
		pub.PublishAlert(id, state)
	}
}
