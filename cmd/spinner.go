package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const spinnerInterval = 100 * time.Millisecond

// startSpinner draws message followed by a rotating glyph on out until the
// returned stop func is called. stop clears the line and may be called more
// than once.
func startSpinner(out io.Writer, message string) (stop func()) {
	frames := `|/-\`
	quit := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		fmt.Fprintf(out, "%s ", message)
		for i := 0; ; i++ {
			select {
			case <-quit:
				fmt.Fprintf(out, "\r%s\r", strings.Repeat(" ", len(message)+2))
				return
			case <-ticker.C:
				fmt.Fprintf(out, "\r%s %c", message, frames[i%len(frames)])
			}
		}
	}()

	var once sync.Once
	stop = func() {
		once.Do(func() {
			close(quit)
			wg.Wait()
		})
	}
	return stop
}
