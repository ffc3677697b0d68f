package logging

import "time"

// Timer measures one campus operation, such as a route request or a
// snapshot reload, and logs a single entry with its outcome and latency.
type Timer struct {
	logger Logger
	op     string
	start  time.Time
	fields []Field
}

// StartTimer starts timing op. The fields are attached to the final entry.
func StartTimer(logger Logger, op string, fields ...Field) *Timer {
	return &Timer{
		logger: logger,
		op:     op,
		start:  time.Now(),
		fields: fields,
	}
}

// Elapsed returns the time since the timer started without logging
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Finish logs op at level with the given outcome and returns the elapsed
// time, so callers can feed the same duration into metrics.
func (t *Timer) Finish(level Level, outcome string, fields ...Field) time.Duration {
	elapsed := t.Elapsed()
	all := make([]Field, 0, len(t.fields)+len(fields)+2)
	all = append(all, t.fields...)
	all = append(all, fields...)
	all = append(all, Outcome(outcome), Latency(elapsed))

	switch level {
	case DebugLevel:
		t.logger.Debug(t.op, all...)
	case WarnLevel:
		t.logger.Warn(t.op, all...)
	case ErrorLevel:
		t.logger.Error(t.op, all...)
	default:
		t.logger.Info(t.op, all...)
	}
	return elapsed
}

// End logs a successful outcome at info level
func (t *Timer) End() time.Duration {
	return t.Finish(InfoLevel, "ok")
}

// EndError logs the failure at error level
func (t *Timer) EndError(err error) time.Duration {
	return t.Finish(ErrorLevel, "error", Error(err))
}
