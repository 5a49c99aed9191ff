package workout

// Observer receives engine events for metrics.
type Observer interface {
	// Command records a handle command and its result ("ok", "rejected",
	// "noop").
	Command(name, result string)

	// Completed records a completed attempt.
	Completed(early bool, ratio int)

	// Save records a persistence attempt ("ok" or "error").
	Save(result string)
}

type nopObserver struct{}

func (nopObserver) Command(string, string) {}
func (nopObserver) Completed(bool, int)    {}
func (nopObserver) Save(string)            {}
