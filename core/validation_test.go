package core

import (
	"errors"
	"testing"
)

func TestValidateItem(t *testing.T) {
	self := int64(5)
	other := int64(4)

	tests := []struct {
		name    string
		item    Item
		wantErr error
	}{
		{"valid story", Item{ID: 1, Kind: KindStory}, nil},
		{"valid comment", Item{ID: 5, Kind: KindComment, Parent: &other}, nil},
		{"zero id", Item{ID: 0, Kind: KindStory}, ErrMissingID},
		{"negative id", Item{ID: -3, Kind: KindStory}, ErrMissingID},
		{"self parent", Item{ID: 5, Kind: KindComment, Parent: &self}, ErrSelfParent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItem(tt.item)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateItem() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateItem() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidItem) {
				t.Errorf("ValidateItem() error should wrap ErrInvalidItem")
			}
		})
	}
}

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  IndexRecord
		wantErr error
	}{
		{"valid", IndexRecord{KeyID: "k", Embedding: []float32{1, 2, 3}}, nil},
		{"missing key", IndexRecord{Embedding: []float32{1, 2, 3}}, ErrMissingKey},
		{"short vector", IndexRecord{KeyID: "k", Embedding: []float32{1, 2}}, ErrDimensionMismatch},
		{"nil vector", IndexRecord{KeyID: "k"}, ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.record, 3)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateRecord() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRecord() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
