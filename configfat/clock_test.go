package configfat

import "testing"

func TestFakeClockAdvanceAndSet(t *testing.T) {
	c := NewFakeClock(100)
	if c.NowMS() != 100 {
		t.Fatalf("NowMS() = %d, want 100", c.NowMS())
	}

	c.Advance(50)
	if c.NowMS() != 150 {
		t.Errorf("NowMS() after Advance(50) = %d, want 150", c.NowMS())
	}

	c.Set(0)
	if c.NowMS() != 0 {
		t.Errorf("NowMS() after Set(0) = %d, want 0", c.NowMS())
	}
}

func TestSystemClockMonotonicFromZero(t *testing.T) {
	c := NewSystemClock()
	first := c.NowMS()
	second := c.NowMS()
	if second < first {
		t.Errorf("NowMS() went backwards: %d then %d", first, second)
	}
}
