package session

// Severity classifies a notification
type Severity int

const (
	Info Severity = iota
	Success
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "info"
}

// Renderer redraws a view from the session's current state
type Renderer interface {
	RenderMatches()
	RenderWatchlist()
	RenderRecommendations()
	RenderDashboard()
}

// Notifier shows a non-blocking message to the user
type Notifier interface {
	Notify(message string, severity Severity)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(message string, severity Severity)

// Notify calls f
func (f NotifierFunc) Notify(message string, severity Severity) { f(message, severity) }

type nopRenderer struct{}

func (nopRenderer) RenderMatches()         {}
func (nopRenderer) RenderWatchlist()       {}
func (nopRenderer) RenderRecommendations() {}
func (nopRenderer) RenderDashboard()       {}

type nopNotifier struct{}

func (nopNotifier) Notify(string, Severity) {}
