package exec

import (
	"errors"
	"testing"
	"time"

	"github.com/zakeri-dev/simrun/sandbox"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "no invokers", opts: Options{}, wantErr: true},
		{name: "local only", opts: Options{Local: &mockInvoker{kind: sandbox.KindLocal}}},
		{name: "remote only", opts: Options{Remote: &mockInvoker{kind: sandbox.KindRemote}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrConfiguration) {
					t.Errorf("Validate() error = %v, want ErrConfiguration", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
		})
	}
}

func TestOptionsBudget(t *testing.T) {
	opts := Options{
		Local:          &mockInvoker{kind: sandbox.KindLocal},
		DefaultTimeout: 10 * time.Second,
		MaxTimeout:     time.Minute,
	}

	tests := []struct {
		name      string
		requested time.Duration
		want      time.Duration
	}{
		{name: "unset", requested: 0, want: 10 * time.Second},
		{name: "negative", requested: -time.Second, want: 10 * time.Second},
		{name: "within bounds", requested: 30 * time.Second, want: 30 * time.Second},
		{name: "above max", requested: time.Hour, want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := opts.budget(tt.requested); got != tt.want {
				t.Errorf("budget(%v) = %v, want %v", tt.requested, got, tt.want)
			}
		})
	}
}
