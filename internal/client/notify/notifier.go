package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/remindsync/internal/client/models"
	"github.com/dmitrijs2005/remindsync/internal/logging"
)

// WriterNotifier rings the terminal bell and prints a line.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

func (n *WriterNotifier) Notify(_ context.Context, r models.Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.w, "\a\nReminder: %s\n", r.Timestamp.Local().Format("15:04"))
	return err
}

// LogNotifier only logs.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, r models.Reminder) error {
	n.logger.Info(ctx, "reminder due", "id", r.ID, "at", r.Timestamp)
	return nil
}
