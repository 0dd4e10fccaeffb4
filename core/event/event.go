/*
 * core/event - Delta-time event scheduler
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

// Package event implements a doubly-linked delta-time event list: a
// caller registers a callback a fixed duration out, and a single Advance
// call per tick fires whatever has matured. Each exec.Executor owns its
// own List instead of a process-wide singleton (spec.md §9).
package event

import "time"

// Callback receives the arg the event was registered with.
type Callback func(arg int)

// Event is one scheduled callback, stored relative to the event ahead of
// it in the list so Advance only ever touches the head.
type Event struct {
	remaining time.Duration
	owner     any
	cb        Callback
	arg       int
	prev      *Event
	next      *Event
}

// List is a delta-time ordered event queue. The zero value is ready to use.
type List struct {
	head *Event
	tail *Event
}

// NewList returns an empty event list.
func NewList() *List { return &List{} }

// Add schedules cb to run after delay, tagged with owner and arg so a
// later Cancel can find it. delay <= 0 runs cb synchronously and
// schedules nothing.
func (l *List) Add(owner any, cb Callback, delay time.Duration, arg int) {
	if delay <= 0 {
		cb(arg)
		return
	}

	ev := &Event{owner: owner, cb: cb, remaining: delay, arg: arg}

	cur := l.head
	if cur == nil {
		l.head = ev
		l.tail = ev
		return
	}

	for cur != nil {
		if ev.remaining <= cur.remaining {
			cur.remaining -= ev.remaining
			ev.prev = cur.prev
			ev.next = cur
			cur.prev = ev
			if ev.prev != nil {
				ev.prev.next = ev
			} else {
				l.head = ev
			}
			return
		}
		ev.remaining -= cur.remaining
		cur = cur.next
	}

	ev.prev = l.tail
	l.tail.next = ev
	l.tail = ev
}

// Cancel removes the first pending event matching owner and arg, if any,
// folding its remaining time into the following event so later deadlines
// stay correct.
func (l *List) Cancel(owner any, arg int) {
	cur := l.head
	for cur != nil {
		if cur.owner == owner && cur.arg == arg {
			if cur.next != nil {
				cur.next.remaining += cur.remaining
				cur.next.prev = cur.prev
			} else {
				l.tail = cur.prev
			}
			if cur.prev != nil {
				cur.prev.next = cur.next
			} else {
				l.head = cur.next
			}
			return
		}
		cur = cur.next
	}
}

// Pending reports whether any event is scheduled for owner, regardless of
// arg. Used by the idle-lock timeout to avoid re-arming while a dwell is
// already outstanding.
func (l *List) Pending(owner any) bool {
	for cur := l.head; cur != nil; cur = cur.next {
		if cur.owner == owner {
			return true
		}
	}
	return false
}

// Advance moves the clock forward by dt, firing and removing every event
// that has matured. A callback that schedules new events during Advance
// is safe: new events queue behind whatever is left of the current head.
func (l *List) Advance(dt time.Duration) {
	cur := l.head
	if cur == nil {
		return
	}
	cur.remaining -= dt
	for cur != nil && cur.remaining <= 0 {
		cb := cur.cb
		arg := cur.arg
		l.head = cur.next
		if l.head != nil {
			l.head.prev = nil
		} else {
			l.tail = nil
		}
		cb(arg)
		cur = l.head
	}
}
