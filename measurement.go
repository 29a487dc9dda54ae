package bpreader

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// noneToken is what the model is told to emit for a value it cannot see.
const noneToken = "None"

// Reading is a single value read off the monitor display. Valid is false when
// the model reported the value as unavailable.
type Reading struct {
	Value int
	Valid bool
}

// Some returns a present Reading.
func Some(v int) Reading { return Reading{Value: v, Valid: true} }

// None is the absent Reading.
var None = Reading{}

func (r Reading) String() string {
	if !r.Valid {
		return noneToken
	}
	return strconv.Itoa(r.Value)
}

// Range is an inclusive interval of plausible values.
type Range struct {
	Min int `mapstructure:"min"`
	Max int `mapstructure:"max"`
}

func (r Range) Contains(v int) bool { return v >= r.Min && v <= r.Max }

// Limits holds the physiological plausibility bounds used to accept a
// reading.
type Limits struct {
	Systolic  Range `mapstructure:"systolic"`
	Diastolic Range `mapstructure:"diastolic"`
	Pulse     Range `mapstructure:"pulse"`
}

var DefaultLimits = Limits{
	Systolic:  Range{Min: 60, Max: 250},
	Diastolic: Range{Min: 40, Max: 130},
	Pulse:     Range{Min: 40, Max: 200},
}

// Check returns nil if the readings form a plausible measurement, otherwise
// an error wrapping ErrInvalidReadings that says which rule failed.
func (l Limits) Check(systolic, diastolic, pulse Reading) error {
	if !systolic.Valid || !diastolic.Valid {
		return fmt.Errorf("%w: systolic and diastolic are required", ErrInvalidReadings)
	}
	if !l.Systolic.Contains(systolic.Value) {
		return fmt.Errorf("%w: systolic %d outside [%d, %d]", ErrInvalidReadings, systolic.Value, l.Systolic.Min, l.Systolic.Max)
	}
	if !l.Diastolic.Contains(diastolic.Value) {
		return fmt.Errorf("%w: diastolic %d outside [%d, %d]", ErrInvalidReadings, diastolic.Value, l.Diastolic.Min, l.Diastolic.Max)
	}
	if systolic.Value <= diastolic.Value {
		return fmt.Errorf("%w: systolic %d not above diastolic %d", ErrInvalidReadings, systolic.Value, diastolic.Value)
	}
	if pulse.Valid && !l.Pulse.Contains(pulse.Value) {
		return fmt.Errorf("%w: pulse %d outside [%d, %d]", ErrInvalidReadings, pulse.Value, l.Pulse.Min, l.Pulse.Max)
	}

	return nil
}

// Validate reports whether the readings pass Check.
func (l Limits) Validate(systolic, diastolic, pulse Reading) bool {
	return l.Check(systolic, diastolic, pulse) == nil
}

// Measurement is a validated blood pressure reading. It can only be obtained
// through NewMeasurement or Parser.Parse and is immutable.
type Measurement struct {
	systolic  int
	diastolic int
	pulse     Reading
	timestamp time.Time
	source    string
}

// NewMeasurement validates the readings against limits and returns a
// Measurement captured at the given time.
func NewMeasurement(limits Limits, systolic, diastolic, pulse Reading, at time.Time, source string) (*Measurement, error) {
	if err := limits.Check(systolic, diastolic, pulse); err != nil {
		return nil, err
	}

	return &Measurement{
		systolic:  systolic.Value,
		diastolic: diastolic.Value,
		pulse:     pulse,
		timestamp: at,
		source:    source,
	}, nil
}

func (m *Measurement) Systolic() int  { return m.systolic }
func (m *Measurement) Diastolic() int { return m.diastolic }

// Pulse returns the pulse rate and whether one was read.
func (m *Measurement) Pulse() (int, bool) { return m.pulse.Value, m.pulse.Valid }

func (m *Measurement) Timestamp() time.Time { return m.timestamp }

// Source identifies the image the measurement was read from.
func (m *Measurement) Source() string { return m.source }

func (m *Measurement) String() string {
	return fmt.Sprintf("%d/%d/%s", m.systolic, m.diastolic, m.pulse)
}

// Parser turns the model's "systolic/diastolic/pulse" reply into a
// Measurement.
type Parser struct {
	Limits Limits
	Now    func() time.Time // if nil uses time.Now
}

// NewParser returns a Parser using DefaultLimits and the wall clock.
func NewParser() *Parser {
	return &Parser{Limits: DefaultLimits}
}

// Parse splits response on '/' and validates the fields. source is recorded on
// the returned Measurement. Failures are returned as *ResponseError.
func (p *Parser) Parse(response, source string) (*Measurement, error) {
	fields := strings.Split(strings.TrimSpace(response), "/")
	if len(fields) < 2 {
		return nil, &ResponseError{
			Response: response,
			Err:      fmt.Errorf("%w: expected systolic/diastolic[/pulse], got %d field(s)", ErrMalformedResponse, len(fields)),
		}
	}

	// Anything past the pulse is ignored
	var readings [3]Reading
	for i := 0; i < len(readings) && i < len(fields); i++ {
		r, err := parseReading(fields[i])
		if err != nil {
			return nil, &ResponseError{Response: response, Err: fmt.Errorf("%w: %w", ErrMalformedResponse, err)}
		}
		readings[i] = r
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	m, err := NewMeasurement(p.Limits, readings[0], readings[1], readings[2], now(), source)
	if err != nil {
		return nil, &ResponseError{Response: response, Err: err}
	}
	return m, nil
}

// parseReading accepts only the exact None token, while numbers may carry
// surrounding whitespace.
func parseReading(field string) (Reading, error) {
	if field == noneToken {
		return None, nil
	}

	v, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return None, err
	}
	return Some(v), nil
}
