package countdown

import (
	"testing"

	"pgregory.net/rapid"
)

// TestStoreInvariants drives the store through random operation sequences and
// checks the countdown invariants after every step.
func TestStoreInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewStore(nil)
		s.SetHydrated(true)
		s.SetDuration(rapid.IntRange(0, 3).Draw(t, "initialMinutes"))

		steps := rapid.IntRange(1, 400).Draw(t, "steps")
		for i := range steps {
			before := s.State()
			op := rapid.SampledFrom([]string{"decrement", "decrement", "decrement", "toggle", "set", "reset"}).Draw(t, "op")

			var after State
			switch op {
			case "decrement":
				after = s.Decrement()
				if before.IsPaused && !after.Equal(before) {
					t.Fatalf("step %d: paused decrement changed state: %+v -> %+v", i, before, after)
				}
				if !before.IsPaused {
					wantCompleted := before.RemainingSeconds == 1
					if after.JustCompleted != wantCompleted {
						t.Fatalf("step %d: JustCompleted=%v after decrement from %d", i, after.JustCompleted, before.RemainingSeconds)
					}
				}
			case "toggle":
				after = s.TogglePause()
				if after.IsPaused == before.IsPaused {
					t.Fatalf("step %d: toggle did not flip pause", i)
				}
			case "set":
				minutes := rapid.IntRange(-5, 5).Draw(t, "minutes")
				after = s.SetDuration(minutes)
				if after.RemainingSeconds != max(0, minutes)*60 || !after.IsPaused || after.JustCompleted {
					t.Fatalf("step %d: SetDuration(%d) produced %+v", i, minutes, after)
				}
			case "reset":
				after = s.Reset()
				if after.RemainingSeconds != after.SelectedMinutes*60 || !after.IsPaused || after.JustCompleted {
					t.Fatalf("step %d: Reset produced %+v", i, after)
				}
			}

			if after.RemainingSeconds < 0 {
				t.Fatalf("step %d: remaining went negative: %d", i, after.RemainingSeconds)
			}
			if after.JustCompleted && (op != "decrement" || before.RemainingSeconds == 0) {
				t.Fatalf("step %d: JustCompleted set outside a completing decrement (op=%s)", i, op)
			}
		}
	})
}

// TestSetDurationProperty checks SetDuration for arbitrary non-negative minutes.
func TestSetDurationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewStore(nil)
		if rapid.Bool().Draw(t, "unpaused") {
			s.TogglePause()
		}
		minutes := rapid.IntRange(0, 24*60).Draw(t, "minutes")

		st := s.SetDuration(minutes)
		if st.RemainingSeconds != minutes*60 {
			t.Fatalf("RemainingSeconds = %d, want %d", st.RemainingSeconds, minutes*60)
		}
		if !st.IsPaused {
			t.Fatal("SetDuration must pause")
		}
	})
}
