// Package logreader turns the line stream of a vendor helper tool into a
// table of (section header, channel) to raw values. Each instrument model
// family has its own header and value transforms.
package logreader

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mesh-intelligence/qcwatch/pkg/types"
)

// maxLineSize bounds a single telemetry line.
const maxLineSize = 1 << 20

// Read parses the UTF-8 line stream r produced for an instrument of the given
// model. Repeated channels across scans are appended in encounter order.
// Lines with an empty channel name are skipped.
func Read(r io.Reader, model types.InstrumentModel) (*Table, error) {
	s := strategyFor(model.Family())
	t := NewTable()

	currentHeader := ""
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case strings.TrimSpace(line) == "" || s.isSeparator(line):
			currentHeader = ""
		case s.isHeader(line):
			currentHeader = s.header(line, currentHeader)
		default:
			channel, value := s.value(line)
			if channel == "" {
				continue
			}
			t.Append(Key{Header: currentHeader, Channel: channel}, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s log stream: %w", s.family, err)
	}
	return t, nil
}
