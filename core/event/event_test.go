/*
 * core/event - Event list test set.
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

package event

import (
	"testing"
	"time"
)

func TestAdvanceFiresInOrder(t *testing.T) {
	l := NewList()
	var fired []int
	l.Add("a", func(arg int) { fired = append(fired, arg) }, 30*time.Millisecond, 1)
	l.Add("a", func(arg int) { fired = append(fired, arg) }, 10*time.Millisecond, 2)
	l.Add("a", func(arg int) { fired = append(fired, arg) }, 20*time.Millisecond, 3)

	l.Advance(10 * time.Millisecond)
	if len(fired) != 1 || fired[0] != 2 {
		t.Fatalf("after 10ms fired = %v, want [2]", fired)
	}
	l.Advance(10 * time.Millisecond)
	if len(fired) != 2 || fired[1] != 3 {
		t.Fatalf("after 20ms fired = %v, want [2 3]", fired)
	}
	l.Advance(10 * time.Millisecond)
	if len(fired) != 3 || fired[2] != 1 {
		t.Fatalf("after 30ms fired = %v, want [2 3 1]", fired)
	}
}

func TestCancelRemovesEvent(t *testing.T) {
	l := NewList()
	fired := false
	l.Add("owner", func(int) { fired = true }, 10*time.Millisecond, 7)
	l.Cancel("owner", 7)
	l.Advance(50 * time.Millisecond)
	if fired {
		t.Errorf("cancelled event fired")
	}
}

func TestCancelPreservesFollowingDeadline(t *testing.T) {
	l := NewList()
	var fired []int
	l.Add("a", func(arg int) { fired = append(fired, arg) }, 10*time.Millisecond, 1)
	l.Add("a", func(arg int) { fired = append(fired, arg) }, 30*time.Millisecond, 2)
	l.Cancel("a", 1)
	l.Advance(30 * time.Millisecond)
	if len(fired) != 1 || fired[0] != 2 {
		t.Errorf("fired = %v, want [2]", fired)
	}
}

func TestZeroDelayRunsSynchronously(t *testing.T) {
	l := NewList()
	ran := false
	l.Add("a", func(int) { ran = true }, 0, 0)
	if !ran {
		t.Errorf("zero-delay callback did not run synchronously")
	}
	if l.Pending("a") {
		t.Errorf("zero-delay callback should not be scheduled")
	}
}

func TestPending(t *testing.T) {
	l := NewList()
	if l.Pending("a") {
		t.Errorf("empty list reports pending")
	}
	l.Add("a", func(int) {}, 5*time.Millisecond, 0)
	if !l.Pending("a") {
		t.Errorf("scheduled event not reported pending")
	}
}
