package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ports   *Ports
		wantErr error
	}{
		{"all set", newTestPorts(), nil},
		{"documents optional", &Ports{Collections: &MockCollectionService{}, Query: &MockQueryService{}}, nil},
		{"missing collections", &Ports{Query: &MockQueryService{}}, ErrMissingCollectionService},
		{"missing query", &Ports{Collections: &MockCollectionService{}}, ErrMissingQueryService},
		{"empty", &Ports{}, ErrMissingCollectionService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestErrors_AreDistinct(t *testing.T) {
	assert.NotEqual(t, ErrMissingCollectionService.Error(), ErrMissingQueryService.Error())
	assert.Contains(t, ErrMissingCollectionService.Error(), "collection service")
	assert.Contains(t, ErrMissingQueryService.Error(), "query service")
}
