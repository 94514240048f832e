package insight

import (
	"encoding/json"
	"fmt"
	"io"
)

// doneSentinel terminates a successful insight stream.
const doneSentinel = "[DONE]"

// Event is one message on an insight stream: a partial field update or a
// terminal error. The producer closes the channel after the last event; an
// event carrying a non-nil Err is always the last one.
type Event struct {
	Update *Update
	Err    error
}

// errorFrame is the wire shape of a failure event.
type errorFrame struct {
	Error string `json:"error"`
}

// WriteEvent marshals payload and writes one server-sent-events frame.
func WriteEvent(w io.Writer, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

// WriteDone writes the terminal sentinel frame.
func WriteDone(w io.Writer) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", doneSentinel)
	return err
}

// WriteError writes a terminal error frame carrying the cause's message.
func WriteError(w io.Writer, cause error) error {
	return WriteEvent(w, errorFrame{Error: cause.Error()})
}

// EncodeStream drains events onto w as server-sent-events frames. A clean
// channel close produces the done sentinel; an error event produces an error
// frame instead and is returned to the caller.
func EncodeStream(w io.Writer, events <-chan Event) error {
	for event := range events {
		if event.Err != nil {
			if werr := WriteError(w, event.Err); werr != nil {
				return werr
			}
			return event.Err
		}
		if event.Update == nil {
			continue
		}
		if err := WriteEvent(w, event.Update); err != nil {
			return err
		}
	}
	return WriteDone(w)
}
