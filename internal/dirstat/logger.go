package dirstat

// Logger receives run output. Implementations must be safe for concurrent use.
type Logger interface {
	Info(msg string)
	Error(msg string)
}
