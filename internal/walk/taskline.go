package walk

import (
	"bufio"
	"io"
	"strings"

	"github.com/opsfolio/resource-surveillance-sub000/internal/resource"
)

// TaskLineWalker yields one EncounteredResource per non-blank, non-comment
// line of an input stream; each line is treated as a shell-task executable,
// per spec.md 4.2's fourth producer. Grounded on
// original_source/src/resource_serde/src/ingest/tasks.rs's task-line model.
type TaskLineWalker struct {
	Input  io.Reader
	Nature string // nature assigned to captured task output, default "json"
}

func NewTaskLineWalker(r io.Reader) *TaskLineWalker {
	return &TaskLineWalker{Input: r, Nature: "json"}
}

func (w *TaskLineWalker) Walk(yield Yield) error {
	scanner := bufio.NewScanner(w.Input)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		class := resource.Class{
			Flags: resource.CapturableExecutable,
			CapturableExec: &resource.CapturableExec{
				URI:        line,
				Nature:     w.Nature,
				Executable: true,
			},
		}
		cr := &resource.ContentResource{
			URI:            line,
			Flags:          class.Flags,
			CapturableExec: class.CapturableExec,
		}
		if !yield(Encountered{Kind: KindResource, URI: line, Resource: cr, Class: class}) {
			return nil
		}
	}
	return scanner.Err()
}
