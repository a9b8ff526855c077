package reasoning

import "github.com/rotisserie/eris"

// ErrUnavailable is returned when the reasoning service could not be reached
// after retries. On the answer path callers surface it without touching
// state; on background paths it feeds the dead letter queue.
var ErrUnavailable = eris.New("reasoning service unavailable")
