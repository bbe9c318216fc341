package runner

import (
	"bufio"
	"io"
	"os/exec"
)

// OutputMsg is sent through the channel for each line of output
type OutputMsg struct {
	Line   string
	IsErr  bool
	Done   bool
	ErrMsg string
}

// Stream launches the program at path and streams its output through a channel
func Stream(path string, output chan<- OutputMsg) {
	defer close(output)

	c := exec.Command(path)

	stdout, err := c.StdoutPipe()
	if err != nil {
		output <- OutputMsg{Done: true, ErrMsg: err.Error()}
		return
	}

	stderr, err := c.StderrPipe()
	if err != nil {
		output <- OutputMsg{Done: true, ErrMsg: err.Error()}
		return
	}

	if err := c.Start(); err != nil {
		output <- OutputMsg{Done: true, ErrMsg: err.Error()}
		return
	}

	// Stream stdout and stderr concurrently
	done := make(chan struct{}, 2)

	streamReader := func(r io.Reader, isErr bool) {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			output <- OutputMsg{Line: scanner.Text(), IsErr: isErr}
		}
		done <- struct{}{}
	}

	go streamReader(stdout, false)
	go streamReader(stderr, true)

	<-done
	<-done

	err = c.Wait()
	if err != nil {
		output <- OutputMsg{Done: true, ErrMsg: err.Error()}
	} else {
		output <- OutputMsg{Done: true}
	}
}

// Start launches the program at path without waiting for it to exit.
func Start(path string) error {
	c := exec.Command(path)
	if err := c.Start(); err != nil {
		return err
	}
	go c.Wait()
	return nil
}
