// Package eventlog is the structured event log for the matching core: one
// record per accepted or rejected request (a Market order rejected for an
// empty opposing side is the exception: the book counts it in metrics but
// writes no record for it). It is a thin, closed wrapper
// around zerolog so call sites can only emit one of a fixed set of event
// kinds — never an ad hoc unstructured line.
package eventlog

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/axiomx/ironbook/internal/common"
)

// Event is one of the outcomes an admission, cancel, or modify can produce.
type Event string

const (
	Accepted               Event = "accepted"
	RejectedDuplicate      Event = "rejected_duplicate"
	RejectedFAKUnmatchable Event = "rejected_fak_unmatchable"
	RejectedFOKUnfillable  Event = "rejected_fok_unfillable"
	Cancelled              Event = "cancelled"
	CancelOfUnknown        Event = "cancel_of_unknown"
	ModifyAccepted         Event = "modify_accepted"
	ModifyOfUnknown        Event = "modify_of_unknown"
)

// Logger emits one record per Event, tagged with the owning book's id so
// that logs from several books running in one process are attributable.
type Logger struct {
	zl     zerolog.Logger
	bookID uuid.UUID
}

// New wraps w (os.Stdout if nil) with a zerolog logger that writes one
// JSON object per record, with a timestamp and the book id always
// present.
func New(w io.Writer, bookID uuid.UUID, level zerolog.Level) *Logger {
	if w == nil {
		w = os.Stdout
	}
	zl := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("book_id", bookID.String()).
		Logger()
	return &Logger{zl: zl, bookID: bookID}
}

// Record logs one order-book event with its order id and a free-form
// message.
func (l *Logger) Record(id common.OrderID, event Event, message string) {
	evt := l.zl.Info()
	if event == RejectedDuplicate || event == RejectedFAKUnmatchable ||
		event == RejectedFOKUnfillable || event == CancelOfUnknown ||
		event == ModifyOfUnknown {
		evt = l.zl.Warn()
	}
	evt.Uint64("order_id", uint64(id)).
		Str("event", string(event)).
		Msg(message)
}
