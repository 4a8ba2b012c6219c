package pretty

import (
	"fmt"
	"strings"
	"testing"
)

func TestAbbrev(t *testing.T) {
	tests := []struct {
		in     fmt.Stringer
		expect string
	}{
		{Abbrev("short"), "short"},
		{Abbrev("0123456789ab"), "0123456789ab"},
		{Abbrev("0123456789abcdef"), "0123456789ab…"},
		{Abbrev("0123456789abcdef", 4), "0123…"},
		{Abbrev("0123456789abcdef", 16, 4), "0123456789abcdef"},
		{Abbrev("0123456789abcdefg", 16, 4), "0123…"},
		{Frame([]byte(`{"rpcId":0}`)), `{"rpcId":0}`},
		{Frame([]byte(strings.Repeat("x", 600))), strings.Repeat("x", 256) + "…"},
	}

	for i, tc := range tests {
		if got := tc.in.String(); got != tc.expect {
			t.Errorf("case %d: got %q; want %q", i, got, tc.expect)
		}
	}
}
