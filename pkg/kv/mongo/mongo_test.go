package mongo

import (
	"fmt"
	"math"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestTTLSeconds(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want int32
	}{
		{time.Millisecond, 1},
		{500 * time.Millisecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{6 * time.Hour, 21600},
		{24 * time.Hour, 86400},
		{200 * 365 * 24 * time.Hour, math.MaxInt32},
	}

	for _, tt := range tests {
		t.Run(tt.ttl.String(), func(t *testing.T) {
			if got := ttlSeconds(tt.ttl); got != tt.want {
				t.Errorf("ttlSeconds(%v) = %d, want %d", tt.ttl, got, tt.want)
			}
		})
	}
}

func TestIsIndexOptionsConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"conflict", mongo.CommandError{Code: 85, Name: "IndexOptionsConflict"}, true},
		{"wrapped conflict", fmt.Errorf("create: %w", mongo.CommandError{Code: 85}), true},
		{"key specs conflict", mongo.CommandError{Code: 86, Name: "IndexKeySpecsConflict"}, false},
		{"other", fmt.Errorf("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isIndexOptionsConflict(tt.err); got != tt.want {
				t.Errorf("isIndexOptionsConflict(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
