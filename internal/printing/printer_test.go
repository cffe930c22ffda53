package printing

import (
	"context"
	"testing"
)

func TestParsePrinterList(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want []string
	}{
		{
			name: "two queues",
			out: "printer brady-01 is idle.  enabled since Mon\n" +
				"printer office-laser is idle.  enabled since Mon\n",
			want: []string{"brady-01", "office-laser"},
		},
		{
			name: "no queues",
			out:  "lpstat: No destinations added.\n",
			want: nil,
		},
		{
			name: "empty output",
			out:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePrinterList(tt.out)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("printer[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseDefaultPrinter(t *testing.T) {
	if got := parseDefaultPrinter("system default destination: brady-01\n"); got != "brady-01" {
		t.Errorf("got %q, want brady-01", got)
	}
	if got := parseDefaultPrinter("no system default destination\n"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestNoopPrint(t *testing.T) {
	msg, err := Noop{}.Print(context.Background(), []byte("%PDF"), "brady-01")
	if err != nil {
		t.Fatalf("noop print: %v", err)
	}
	if msg == "" {
		t.Error("expected a status message")
	}
}
