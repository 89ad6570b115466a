package handler

import "testing"

func TestByteSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{10 << 20, "10 MB"},
		{1 << 20, "1 MB"},
		{512 << 10, "512 KB"},
		{1536 << 10, "1,536 KB"},
		{1000, "1,000 bytes"},
		{1_500_000, "1,500,000 bytes"},
		{1, "1 byte"},
	}
	for _, tt := range tests {
		if got := byteSize(tt.n); got != tt.want {
			t.Errorf("byteSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
