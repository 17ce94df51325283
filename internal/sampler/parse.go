package sampler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/oshokin/fall-alarm/internal/domain/fall"
)

// errMalformedLine is returned for lines that are neither 3 nor 4 numeric fields.
var errMalformedLine = errors.New("expected ax,ay,az or t_ms,ax,ay,az")

// lineParser turns text lines into samples.
type lineParser struct {
	// anchor is the instant that t_ms = 0 maps to.
	anchor time.Time
	// interval spaces samples without a timestamp column; zero uses now().
	interval time.Duration
	// now returns the receive time.
	now func() time.Time
	// count is the number of samples parsed so far.
	count int
}

// newLineParser creates a parser anchored at anchor.
func newLineParser(anchor time.Time, interval time.Duration) *lineParser {
	return &lineParser{
		anchor:   anchor,
		interval: interval,
		now:      time.Now,
	}
}

// parse returns ok=false for blank lines and comments.
func (p *lineParser) parse(line string) (fall.Sample, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return fall.Sample{}, false, nil
	}

	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})

	values := make([]float64, 0, len(fields))

	for _, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return fall.Sample{}, false, fmt.Errorf("parse %q: %w", field, err)
		}

		values = append(values, v)
	}

	var sample fall.Sample

	switch len(values) {
	case 3:
		sample = fall.Sample{Timestamp: p.stamp(), AX: values[0], AY: values[1], AZ: values[2]}
	case 4:
		offset := time.Duration(values[0] * float64(time.Millisecond))
		sample = fall.Sample{Timestamp: p.anchor.Add(offset), AX: values[1], AY: values[2], AZ: values[3]}
	default:
		return fall.Sample{}, false, errMalformedLine
	}

	p.count++

	return sample, true, nil
}

// stamp returns the timestamp for a line without a timestamp column.
func (p *lineParser) stamp() time.Time {
	if p.interval <= 0 {
		return p.now()
	}

	return p.anchor.Add(time.Duration(p.count) * p.interval)
}
