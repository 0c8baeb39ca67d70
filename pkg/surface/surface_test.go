package surface

import "testing"

type ptrListener struct{ n int }

func (p *ptrListener) HandleEvent(Event) { p.n++ }

type funcListener func(Event)

func (f funcListener) HandleEvent(ev Event) { f(ev) }

func TestSameListener(t *testing.T) {
	a := &ptrListener{}
	b := &ptrListener{}
	fn := funcListener(func(Event) {})

	tests := []struct {
		name string
		x, y Listener
		want bool
	}{
		{"both nil", nil, nil, true},
		{"one nil", a, nil, false},
		{"same pointer", a, a, true},
		{"different pointers", a, b, false},
		{"func never same", fn, fn, false},
		{"mixed types", a, fn, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameListener(tt.x, tt.y); got != tt.want {
				t.Errorf("SameListener = %v, want %v", got, tt.want)
			}
		})
	}
}
