/*
 * core/segment - Segment generator test set.
 *
 * Copyright 2025, CNC Motion Core contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package segment

import "testing"

func TestTrapezoidalProfileReachesNominal(t *testing.T) {
	p := NewProfile(100, 0, 50, 0, 100)
	if p.AccelerateUntil <= 0 || p.DecelerateAfter >= p.Millimeters {
		t.Fatalf("expected a cruise phase, got accel=%v decel=%v", p.AccelerateUntil, p.DecelerateAfter)
	}
	mid := p.SpeedAt((p.AccelerateUntil + p.DecelerateAfter) / 2)
	if mid != p.NominalSpeed {
		t.Errorf("cruise speed = %v, want nominal %v", mid, p.NominalSpeed)
	}
}

func TestTriangleProfileNeverReachesNominal(t *testing.T) {
	p := NewProfile(1, 0, 1000, 0, 10)
	if p.AccelerateUntil != p.DecelerateAfter {
		t.Errorf("triangle profile should have a single peak, accel=%v decel=%v", p.AccelerateUntil, p.DecelerateAfter)
	}
	peak := p.SpeedAt(p.AccelerateUntil)
	if peak >= p.NominalSpeed {
		t.Errorf("triangle peak speed %v should be below nominal %v", peak, p.NominalSpeed)
	}
}

func TestSpeedAtEndpointsMatchEntryExit(t *testing.T) {
	p := NewProfile(100, 5, 50, 5, 100)
	if got := p.SpeedAt(0); got != 5 {
		t.Errorf("speed at start = %v, want entry speed 5", got)
	}
}

func TestGenerateConsumesAllSteps(t *testing.T) {
	p := NewProfile(10, 0, 50, 0, 500)
	segs := Generate(p, 250, 16_000_000, 0, 2500)
	var total uint32
	for _, s := range segs {
		total += s.StepEvents
		if s.ReloadTicks == 0 {
			t.Errorf("segment has zero reload ticks")
		}
	}
	if total != 2500 {
		t.Errorf("total step events = %d, want 2500", total)
	}
}

func TestGenerateZeroStepsReturnsNil(t *testing.T) {
	p := NewProfile(10, 0, 50, 0, 500)
	segs := Generate(p, 250, 16_000_000, 0, 0)
	if segs != nil {
		t.Errorf("expected nil for zero remaining steps, got %v", segs)
	}
}

func TestAmassLevelEscalatesAtLowRate(t *testing.T) {
	low := amassLevel(100)
	high := amassLevel(50000)
	if low <= high {
		t.Errorf("amassLevel(100)=%d should exceed amassLevel(50000)=%d", low, high)
	}
}
