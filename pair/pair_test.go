package pair

import (
	"errors"
	"math"
	"testing"

	"github.com/decibelcooper/eicana/event"
)

const (
	mPion = 0.13957018
	mKaon = 0.493677
)

func near(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestInvMass(t *testing.T) {
	// back-to-back pions of 1 GeV/c.
	d0 := &event.Track{Px: +1, Charge: +1}
	d1 := &event.Track{Px: -1, Charge: -1}
	p := New(d0, d1)

	m, err := p.InvMass(mPion, mPion)
	if err != nil {
		t.Fatalf("could not compute mass: %+v", err)
	}
	want := 2 * math.Sqrt(1+mPion*mPion)
	if !near(m, want, 1e-12) {
		t.Fatalf("invalid mass: got=%v, want=%v", m, want)
	}

	// mass hypotheses are assigned in daughter order.
	m, err = p.InvMass(mPion, mKaon)
	if err != nil {
		t.Fatalf("could not compute mass: %+v", err)
	}
	want = math.Sqrt(1+mPion*mPion) + math.Sqrt(1+mKaon*mKaon)
	if !near(m, want, 1e-12) {
		t.Fatalf("invalid mass: got=%v, want=%v", m, want)
	}

	p4, err := p.P4(mPion, mKaon)
	if err != nil {
		t.Fatalf("could not compute p4: %+v", err)
	}
	if !near(p4.M(), want, 1e-9) {
		t.Fatalf("invalid p4 mass: got=%v, want=%v", p4.M(), want)
	}

	if p.P2() != 0 || p.Pt() != 0 {
		t.Fatalf("invalid total momentum: %v", p.PTot())
	}
	if !p.UnlikeSign() {
		t.Fatalf("expected an unlike-sign pair")
	}

	y, err := p.Rapidity(mPion, mPion)
	if err != nil {
		t.Fatalf("could not compute rapidity: %+v", err)
	}
	if !near(y, 0, 1e-12) {
		t.Fatalf("invalid rapidity: %v", y)
	}
}

func TestInvMassCollinear(t *testing.T) {
	for _, tc := range []struct {
		name   string
		p0, p1 [3]float64
	}{
		{"same-momentum", [3]float64{0.1, 0.2, 0.3}, [3]float64{0.1, 0.2, 0.3}},
		{"scaled", [3]float64{0.1, 0.2, 0.3}, [3]float64{0.3, 0.6, 0.9}},
		{"thirds", [3]float64{1.0 / 3, 1.0 / 7, 0.1}, [3]float64{2.0 / 3, 2.0 / 7, 0.2}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d0 := &event.Track{Px: tc.p0[0], Py: tc.p0[1], Pz: tc.p0[2], Charge: +1,
				MC: &event.Truth{Px: tc.p0[0], Py: tc.p0[1], Pz: tc.p0[2]},
			}
			d1 := &event.Track{Px: tc.p1[0], Py: tc.p1[1], Pz: tc.p1[2], Charge: -1,
				MC: &event.Truth{Px: tc.p1[0], Py: tc.p1[1], Pz: tc.p1[2]},
			}
			p := New(d0, d1)

			for _, f := range []func(m0, m1 float64) (float64, error){p.InvMass, p.InvMassMC} {
				m, err := f(0, 0)
				if err != nil {
					t.Fatalf("could not compute mass: %+v", err)
				}
				if math.IsNaN(m) || !near(m, 0, 1e-6) {
					t.Fatalf("invalid mass of massless collinear pair: %v", m)
				}
			}
		})
	}
}

func TestInvMassMC(t *testing.T) {
	d0 := &event.Track{Px: 1, Charge: +1}
	d1 := &event.Track{Py: 1, Charge: +1}
	p := New(d0, d1)
	if p.UnlikeSign() {
		t.Fatalf("expected a like-sign pair")
	}

	_, err := p.InvMassMC(mPion, mPion)
	if !errors.Is(err, ErrMissingMC) {
		t.Fatalf("invalid error: %+v", err)
	}
	if _, ok := p.PTotMC(); ok {
		t.Fatalf("unexpected MC momentum")
	}

	d0.MC = &event.Truth{Px: 2}
	d1.MC = &event.Truth{Px: -2}
	p.Set(d0, d1)

	m, err := p.InvMassMC(0, 0)
	if err != nil {
		t.Fatalf("could not compute MC mass: %+v", err)
	}
	if !near(m, 4, 1e-12) {
		t.Fatalf("invalid MC mass: got=%v, want=4", m)
	}

	// reconstructed values are unaffected.
	m, err = p.InvMass(0, 0)
	if err != nil {
		t.Fatalf("could not compute mass: %+v", err)
	}
	if !near(m, 2, 1e-12) {
		t.Fatalf("invalid mass: got=%v, want=2", m)
	}
}

func TestMissingDaughter(t *testing.T) {
	p := New(&event.Track{Px: 1}, nil)
	if _, err := p.InvMass(0, 0); !errors.Is(err, ErrMissingDaughter) {
		t.Fatalf("invalid error: %+v", err)
	}
	if _, err := p.InvMassMC(0, 0); !errors.Is(err, ErrMissingDaughter) {
		t.Fatalf("invalid error: %+v", err)
	}
	if _, err := p.Angle(); !errors.Is(err, ErrMissingDaughter) {
		t.Fatalf("invalid error: %+v", err)
	}
	if p.IsTruePair(0) {
		t.Fatalf("invalid pair cannot be true")
	}
	if got, want := p.String(), "Pair{<invalid>}"; got != want {
		t.Fatalf("invalid string: got=%q, want=%q", got, want)
	}
}

func TestAngle(t *testing.T) {
	for _, tc := range []struct {
		name   string
		d0, d1 event.Track
		want   float64
	}{
		{"collinear", event.Track{Px: 1}, event.Track{Px: 3}, 0},
		{"orthogonal-xy", event.Track{Px: 1}, event.Track{Py: 2}, 90},
		// the y-components must enter the dot product as py0*py1.
		{"orthogonal-yz", event.Track{Py: 1, Pz: 1}, event.Track{Py: 1, Pz: -1}, 90},
		{"back-to-back", event.Track{Pz: 1}, event.Track{Pz: -5}, 180},
		{"45deg", event.Track{Px: 1}, event.Track{Px: 1, Py: 1}, 45},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := New(&tc.d0, &tc.d1).Angle()
			if err != nil {
				t.Fatalf("could not compute angle: %+v", err)
			}
			if !near(got, tc.want, 1e-9) {
				t.Fatalf("invalid angle: got=%v, want=%v", got, tc.want)
			}
		})
	}

	if _, err := New(&event.Track{}, &event.Track{Px: 1}).Angle(); err == nil {
		t.Fatalf("expected an error for a null momentum")
	}
}

func TestIsTruePair(t *testing.T) {
	phi := func(mother int64, pdg int) *event.Truth {
		return &event.Truth{Mother: mother, MotherPDG: pdg}
	}
	for _, tc := range []struct {
		name   string
		m0, m1 *event.Truth
		ref    int
		want   bool
	}{
		{"no-mc", nil, nil, 0, false},
		{"half-mc", phi(1, 333), nil, 0, false},
		{"same-mother", phi(1, 333), phi(1, 333), 0, true},
		{"same-mother-ref", phi(1, 333), phi(1, 333), 333, true},
		{"same-mother-antiref", phi(1, -313), phi(1, -313), 313, true},
		{"same-mother-wrong-ref", phi(1, 333), phi(1, 333), 313, false},
		{"other-mother", phi(1, 333), phi(2, 333), 0, false},
		{"unknown-mother", phi(-1, 0), phi(-1, 0), 0, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p := New(
				&event.Track{Px: 1, MC: tc.m0},
				&event.Track{Px: -1, MC: tc.m1},
			)
			if got := p.IsTruePair(tc.ref); got != tc.want {
				t.Fatalf("got=%v, want=%v", got, tc.want)
			}
		})
	}
}
