package progress

import (
	"bytes"
	"io"
	"math"
	"strings"
	"testing"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name  string
		sent  int64
		total int64
		want  float64
		ok    bool
	}{
		{"zero", 0, 100, 0, true},
		{"half", 50, 100, 50, true},
		{"full", 100, 100, 100, true},
		{"third", 1, 3, 100.0 / 3, true},
		{"overshoot", 120, 100, 100, true},
		{"negative", -5, 100, 0, true},
		{"unknown total", 10, 0, 0, false},
		{"negative total", 10, -1, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Percent(tt.sent, tt.total)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Percent(%d, %d) = %v, want %v", tt.sent, tt.total, got, tt.want)
			}
		})
	}
}

func TestReaderReportsCumulativeBytes(t *testing.T) {
	data := strings.Repeat("x", 10000)
	var seen []int64
	r := NewReader(strings.NewReader(data), int64(len(data)), func(sent, total int64) {
		if total != int64(len(data)) {
			t.Errorf("total = %d, want %d", total, len(data))
		}
		seen = append(seen, sent)
	})

	var buf bytes.Buffer
	if _, err := io.CopyBuffer(&buf, r, make([]byte, 512)); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if buf.String() != data {
		t.Fatal("data mismatch")
	}
	if len(seen) == 0 {
		t.Fatal("expected progress callbacks")
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("progress decreased: %d after %d", seen[i], seen[i-1])
		}
	}
	if last := seen[len(seen)-1]; last != int64(len(data)) {
		t.Errorf("last sent = %d, want %d", last, len(data))
	}
	if r.sent.Load() != int64(len(data)) {
		t.Errorf("sent = %d", r.sent.Load())
	}
}

func TestReaderNilFunc(t *testing.T) {
	r := NewReader(strings.NewReader("abc"), 3, nil)
	if _, err := io.ReadAll(r); err != nil {
		t.Fatalf("read: %v", err)
	}
	if r.sent.Load() != 3 {
		t.Errorf("sent = %d, want 3", r.sent.Load())
	}
}
