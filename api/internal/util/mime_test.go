package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSniffMimeForOCR(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "jpeg", data: []byte{0xFF, 0xD8, 0xFF, 0xE0}, want: "JPEG"},
		{name: "png", data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, want: "PNG"},
		{name: "pdf", data: []byte("%PDF-1.7"), want: "PDF"},
		{name: "unknown", data: []byte{0x00, 0x01, 0x02}, want: ""},
		{name: "empty", data: nil, want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SniffMimeForOCR(tc.data))
		})
	}
}
