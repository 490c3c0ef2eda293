package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeForceAdd(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		category string
		priority string
		want     string
	}{
		{"defaults stay out of the title", "Appeler le notaire", "general", "normal", "Appeler le notaire"},
		{"urgent prefix", "Appeler le notaire", "immobilier", "urgent", "urgent immobilier Appeler le notaire"},
		{"important prefix", "Préparer la démo", "easynode", "important", "important easynode Préparer la démo"},
		{"category only", "Payer le loyer", "admin", "normal", "admin Payer le loyer"},
		{"title is trimmed", "  Ranger le bureau  ", "general", "normal", "Ranger le bureau"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, composeForceAdd(tt.title, tt.category, tt.priority))
		})
	}
}
