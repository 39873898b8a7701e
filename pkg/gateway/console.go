package gateway

import (
	"bufio"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Console reads order commands from an input stream (normally stdin) until
// EOF. Same grammar as the TCP gateway.
type Console struct {
	sink              EventSink
	in                io.Reader
	defaultInstrument string
}

func NewConsole(sink EventSink, in io.Reader, defaultInstrument string) *Console {
	return &Console{
		sink:              sink,
		in:                in,
		defaultInstrument: defaultInstrument,
	}
}

// Run returns on EOF or when the sequencer refuses further events.
func (c *Console) Run() error {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ev, err := ParseLine(line, c.defaultInstrument)
		if err != nil {
			zap.L().Warn("failed to process input", zap.String("line", line), zap.Error(err))
			continue
		}
		if err := c.sink.Publish(ev); err != nil {
			return err
		}
	}
	return scanner.Err()
}
