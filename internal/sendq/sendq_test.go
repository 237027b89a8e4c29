package sendq

import (
	"testing"

	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

func TestBuildTextOnly(t *testing.T) {
	q := Build("hello", nil)
	if q.Len() != 1 {
		t.Fatalf("Len = %d, want 1", q.Len())
	}
	item, err := q.Current()
	if err != nil {
		t.Fatal(err)
	}
	if item.Content != "hello" || item.Attachment != nil {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestAttachmentOrderingAndCaption(t *testing.T) {
	atts := []models.Attachment{
		{Filename: "imgA.png", MimeType: "image/png"},
		{Filename: "fileB.pdf", MimeType: "application/pdf"},
	}
	q := Build("hello", atts)
	if q.Len() != 2 {
		t.Fatalf("Len = %d, want 2", q.Len())
	}

	first, err := q.Current()
	if err != nil {
		t.Fatal(err)
	}
	if first.Content != "hello" || first.Attachment == nil || first.Attachment.Filename != "imgA.png" {
		t.Errorf("first item = %+v, want caption + imgA", first)
	}

	second, ok := q.Advance()
	if !ok {
		t.Fatal("expected a second item")
	}
	if second.Content != "" || second.Attachment == nil || second.Attachment.Filename != "fileB.pdf" {
		t.Errorf("second item = %+v, want empty content + fileB", second)
	}

	if _, ok := q.Advance(); ok {
		t.Error("queue should be exhausted after two items")
	}
	if !q.Done() || q.Sent() != 2 {
		t.Errorf("Done=%v Sent=%d, want done with 2 sent", q.Done(), q.Sent())
	}
}

func TestHaltKeepsPriorSends(t *testing.T) {
	atts := []models.Attachment{
		{Filename: "a"},
		{Filename: "b"},
		{Filename: "c"},
	}
	q := Build("", atts)

	if _, ok := q.Advance(); !ok { // "a" acknowledged
		t.Fatal("expected item b")
	}
	q.Halt() // "b" failed

	if !q.Halted() {
		t.Error("queue should report halted")
	}
	if q.Done() {
		t.Error("halted queue is not done")
	}
	if q.Sent() != 1 {
		t.Errorf("Sent = %d, want 1 (only a was acknowledged)", q.Sent())
	}
	if _, err := q.Current(); err == nil {
		t.Error("halted queue must not hand out further items")
	}
	if _, ok := q.Advance(); ok {
		t.Error("halted queue must not advance")
	}
}
