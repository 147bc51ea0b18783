package client

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MKhiriev/go-offline-sync/models"
)

func TestChangedFields(t *testing.T) {
	tests := []struct {
		name          string
		local, server models.Snapshot
		want          string
	}{
		{name: "same", local: models.Snapshot{"a": 1}, server: models.Snapshot{"a": 1}, want: ""},
		{name: "changed and added", local: models.Snapshot{"b": 2, "a": 1}, server: models.Snapshot{"a": 0, "c": 3}, want: "a,b,c"},
		{name: "nil sides", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, changedFields(tt.local, tt.server))
		})
	}
}

func TestRenderTable_Empty(t *testing.T) {
	var out bytes.Buffer
	renderActions(&out, nil)
	assert.Contains(t, out.String(), "nothing to show")
}

func TestRenderPairs_Aligned(t *testing.T) {
	var out bytes.Buffer
	renderPairs(&out, [][2]string{{"a", "1"}, {"longer", "2"}})
	assert.Equal(t, "  a       1\n  longer  2\n", out.String())
}
