// Package sendq serializes a multi-attachment send into ordered single-item
// network calls: the server must observe attachments in the order the user
// queued them, so each item waits for the prior item's acknowledgment.
package sendq

import (
	"errors"

	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

var ErrExhausted = errors.New("sendq: no items remaining")

// Item is one outbound send step.
type Item struct {
	// Content is the user's text; only item 0 carries it, later items send
	// empty content.
	Content    string
	Attachment *models.Attachment
}

// Queue walks the items one at a time. The caller dispatches Current, waits
// for the ack, then calls Advance on success or Halt on error. A failed step
// halts the whole queue; items already acknowledged stay sent (each
// attachment is an independent message, so a partial visible record is
// acceptable).
type Queue struct {
	items  []Item
	index  int
	halted bool
}

// Build lays out the send steps for the given text and attachments. With no
// attachments the result is a single text-only item.
func Build(content string, attachments []models.Attachment) *Queue {
	if len(attachments) == 0 {
		return &Queue{items: []Item{{Content: content}}}
	}
	items := make([]Item, len(attachments))
	for i := range attachments {
		att := attachments[i]
		item := Item{Attachment: &att}
		if i == 0 {
			item.Content = content
		}
		items[i] = item
	}
	return &Queue{items: items}
}

// Current returns the step awaiting dispatch or acknowledgment.
func (q *Queue) Current() (Item, error) {
	if q.halted || q.index >= len(q.items) {
		return Item{}, ErrExhausted
	}
	return q.items[q.index], nil
}

// Advance records the current step's acknowledgment and returns the next
// step, or ok=false when the queue is finished.
func (q *Queue) Advance() (Item, bool) {
	if q.halted || q.index >= len(q.items) {
		return Item{}, false
	}
	q.index++
	if q.index >= len(q.items) {
		return Item{}, false
	}
	return q.items[q.index], true
}

// Halt stops the queue after a step error. Already-sent items are not rolled
// back.
func (q *Queue) Halt() {
	q.halted = true
}

// Done reports whether every step was acknowledged.
func (q *Queue) Done() bool {
	return !q.halted && q.index >= len(q.items)
}

// Halted reports whether the queue stopped on an error.
func (q *Queue) Halted() bool {
	return q.halted
}

// Sent reports how many items were acknowledged before completion or halt.
func (q *Queue) Sent() int {
	return q.index
}

// Len reports the total number of steps.
func (q *Queue) Len() int {
	return len(q.items)
}
