// Package pretty formats values for log output.
package pretty

import "fmt"

// Abbrev returns s as a Stringer that truncates it when printed. With no
// ranges, strings longer than 12 bytes are cut to 12. One range sets both
// limits, two set the maximum length and the cut length.
func Abbrev(s string, ranges ...int) Abbreviated {
	maxLen, cutTo := 12, 12
	if len(ranges) >= 2 {
		maxLen, cutTo = ranges[0], ranges[1]
	} else if len(ranges) == 1 {
		maxLen, cutTo = ranges[0], ranges[0]
	}
	return Abbreviated{
		Original: s,
		MaxLen:   maxLen,
		CutTo:    cutTo,
	}
}

// Abbreviated is a string that is truncated with an ellipsis when printed.
type Abbreviated struct {
	Original string
	MaxLen   int
	CutTo    int
}

func (s Abbreviated) String() string {
	if len(s.Original) > s.MaxLen {
		return fmt.Sprintf("%s…", s.Original[:s.CutTo])
	}
	return s.Original
}

// Frame abbreviates a raw frame for a log line.
func Frame(data []byte) Abbreviated {
	return Abbrev(string(data), 512, 256)
}
