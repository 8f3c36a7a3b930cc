// Package nmea reads position fixes from an NMEA-0183 receiver.
package nmea

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse errors.
var (
	ErrChecksum    = errors.New("nmea: checksum mismatch")
	ErrMalformed   = errors.New("nmea: malformed sentence")
	ErrUnsupported = errors.New("nmea: unsupported sentence")
)

// Sentence types understood by Parse.
const (
	TypeRMC = "RMC"
	TypeGGA = "GGA"
)

// Fix is the navigation content of one RMC or GGA sentence.
type Fix struct {
	Type       string
	Valid      bool
	Latitude   float64
	Longitude  float64
	SpeedKnots *float64 // RMC only
	Course     *float64 // RMC only, degrees true
	HDOP       float64  // GGA only
	Satellites int      // GGA only
	Time       time.Time
}

// Checksum returns the two-digit hex XOR of every byte between '$' and '*'.
// A leading '$' is skipped.
func Checksum(body string) string {
	body = strings.TrimPrefix(body, "$")
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("%02X", sum)
}

// Format appends the checksum and line ending to a sentence body.
func Format(body string) string {
	if !strings.HasPrefix(body, "$") {
		body = "$" + body
	}
	return fmt.Sprintf("%s*%s\r\n", body, Checksum(body))
}

// Parse decodes an RMC or GGA sentence from any talker (GP, GN, GL...).
// A sentence without a checksum is accepted; a wrong checksum is not.
func Parse(line string) (Fix, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Fix{}, ErrMalformed
	}

	body := line[1:]
	if idx := strings.IndexByte(body, '*'); idx >= 0 {
		want := strings.ToUpper(body[idx+1:])
		body = body[:idx]
		if len(want) != 2 || Checksum(body) != want {
			return Fix{}, ErrChecksum
		}
	}

	fields := strings.Split(body, ",")
	if len(fields[0]) < 5 {
		return Fix{}, ErrMalformed
	}
	switch fields[0][len(fields[0])-3:] {
	case TypeRMC:
		return parseRMC(fields)
	case TypeGGA:
		return parseGGA(fields)
	default:
		return Fix{}, fmt.Errorf("%w: %s", ErrUnsupported, fields[0])
	}
}

// $--RMC,hhmmss.ss,A,llll.ll,a,yyyyy.yy,a,x.x,x.x,ddmmyy,x.x,a*hh
func parseRMC(f []string) (Fix, error) {
	if len(f) < 10 {
		return Fix{}, ErrMalformed
	}
	fix := Fix{Type: TypeRMC, Valid: f[2] == "A"}
	fix.Time = parseTime(f[9], f[1])
	if !fix.Valid {
		return fix, nil
	}

	var err error
	if fix.Latitude, err = parseCoordinate(f[3], f[4]); err != nil {
		return Fix{}, err
	}
	if fix.Longitude, err = parseCoordinate(f[5], f[6]); err != nil {
		return Fix{}, err
	}
	if fix.SpeedKnots, err = optionalFloat(f[7]); err != nil {
		return Fix{}, err
	}
	if fix.Course, err = optionalFloat(f[8]); err != nil {
		return Fix{}, err
	}
	return fix, nil
}

// $--GGA,hhmmss.ss,llll.ll,a,yyyyy.yy,a,q,nn,x.x,x.x,M,x.x,M,x.x,xxxx*hh
func parseGGA(f []string) (Fix, error) {
	if len(f) < 9 {
		return Fix{}, ErrMalformed
	}
	fix := Fix{Type: TypeGGA, Valid: f[6] != "" && f[6] != "0"}
	fix.Time = parseTime("", f[1])
	if !fix.Valid {
		return fix, nil
	}

	var err error
	if fix.Latitude, err = parseCoordinate(f[2], f[3]); err != nil {
		return Fix{}, err
	}
	if fix.Longitude, err = parseCoordinate(f[4], f[5]); err != nil {
		return Fix{}, err
	}
	if f[7] != "" {
		if fix.Satellites, err = strconv.Atoi(f[7]); err != nil {
			return Fix{}, fmt.Errorf("%w: satellites %q", ErrMalformed, f[7])
		}
	}
	if f[8] != "" {
		if fix.HDOP, err = strconv.ParseFloat(f[8], 64); err != nil {
			return Fix{}, fmt.Errorf("%w: hdop %q", ErrMalformed, f[8])
		}
	}
	return fix, nil
}

// parseCoordinate converts (d)ddmm.mmmm plus hemisphere to signed degrees.
func parseCoordinate(value, hemi string) (float64, error) {
	if value == "" || hemi == "" {
		return 0, fmt.Errorf("%w: empty coordinate", ErrMalformed)
	}
	dot := strings.IndexByte(value, '.')
	if dot < 0 {
		dot = len(value)
	}
	if dot < 3 {
		return 0, fmt.Errorf("%w: coordinate %q", ErrMalformed, value)
	}
	deg, err := strconv.Atoi(value[:dot-2])
	if err != nil {
		return 0, fmt.Errorf("%w: coordinate %q", ErrMalformed, value)
	}
	minutes, err := strconv.ParseFloat(value[dot-2:], 64)
	if err != nil || minutes >= 60 {
		return 0, fmt.Errorf("%w: coordinate %q", ErrMalformed, value)
	}

	out := float64(deg) + minutes/60
	switch hemi {
	case "N", "E":
	case "S", "W":
		out = -out
	default:
		return 0, fmt.Errorf("%w: hemisphere %q", ErrMalformed, hemi)
	}
	return out, nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: number %q", ErrMalformed, s)
	}
	return &v, nil
}

// parseTime combines an ddmmyy date with an hhmmss(.ss) time. Without a date
// only the time of day is known, so today's UTC date is used.
func parseTime(date, clock string) time.Time {
	if len(clock) < 6 {
		return time.Time{}
	}
	hms := clock[:6]
	frac := 0.0
	if len(clock) > 7 && clock[6] == '.' {
		frac, _ = strconv.ParseFloat("0"+clock[6:], 64)
	}

	var t time.Time
	var err error
	if len(date) == 6 {
		t, err = time.Parse("020106150405", date+hms)
	} else {
		var tod time.Time
		tod, err = time.Parse("150405", hms)
		if err == nil {
			y, m, d := time.Now().UTC().Date()
			t = time.Date(y, m, d, tod.Hour(), tod.Minute(), tod.Second(), 0, time.UTC)
		}
	}
	if err != nil {
		return time.Time{}
	}
	return t.Add(time.Duration(frac * float64(time.Second)))
}
