package ekf

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// DragLogger writes the values of a log map as CSV rows, one column per key.
type DragLogger struct {
	w      io.Writer
	logMap map[string]interface{}
	Header []string
	fmt    string
	vals   []interface{}
}

// NewDragLogger writes the CSV header for logMap to w and returns a logger
// that emits a row of its current values on each call to Log.
// Keys must already be present in logMap; they are written in sorted order.
func NewDragLogger(w io.Writer, logMap map[string]interface{}) (l *DragLogger, err error) {
	l = new(DragLogger)
	l.w = w
	l.logMap = logMap

	l.Header = make([]string, 0, len(logMap))
	for k := range l.logMap {
		l.Header = append(l.Header, k)
	}
	sort.Strings(l.Header)

	if _, err = fmt.Fprint(l.w, strings.Join(l.Header, ","), "\n"); err != nil {
		return nil, fmt.Errorf("writing log header: %w", err)
	}
	s := strings.Repeat("%v,", len(l.Header))
	l.fmt = strings.Join([]string{s[:len(s)-1], "\n"}, "")
	l.vals = make([]interface{}, len(l.Header))
	return l, nil
}

// Log writes one row.
func (l *DragLogger) Log() error {
	for i, k := range l.Header {
		l.vals[i] = l.logMap[k]
	}
	_, err := fmt.Fprintf(l.w, l.fmt, l.vals...)
	return err
}

// Close closes the underlying writer if it is closable.
func (l *DragLogger) Close() error {
	if c, ok := l.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
