package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBestTimestampSource(t *testing.T) {
	tests := []struct {
		names []string
		want  string
		ok    bool
	}{
		{nil, "", false},
		{[]string{"host", "host_lowprec"}, "", false},
		{[]string{"host", "host_hiprec"}, "host_hiprec", true},
		{[]string{"host_hiprec", "adapter"}, "adapter", true},
		{[]string{"adapter", "host_hiprec"}, "adapter", true},
		{[]string{"adapter_unsynced", "adapter", "host_hiprec"}, "adapter_unsynced", true},
		{[]string{"host_hiprec", "adapter", "adapter_unsynced"}, "adapter_unsynced", true},
		{[]string{"adapter", "adapter_unsynced", "adapter"}, "adapter_unsynced", true},
		{[]string{"unknown_type_9", "host"}, "", false},
	}
	for _, tt := range tests {
		got, ok := BestTimestampSource(tt.names)
		assert.Equal(t, tt.ok, ok, "%v", tt.names)
		assert.Equal(t, tt.want, got, "%v", tt.names)
	}
}
