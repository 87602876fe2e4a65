/*
 * rv32pipe - Relative-time scripted event scheduler
 *
 * Copyright 2024, Richard Cornwell
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

// Package event is a relative-time event list used to script interrupt
// injection ahead of a run ("assert the software interrupt line 40
// cycles from now") without threading a scenario-specific case into
// the pipeline itself. The list stores each pending event's delay
// relative to the event before it, so advancing time is an O(1)
// decrement of the head; this is the same delta-list shape as the
// teacher's emu/event, generalized from per-device I/O completion
// callbacks to named simulator-clock callbacks.
package event

// Callback is invoked when a scheduled event's delay reaches zero.
type Callback func()

type node struct {
	tag  string
	time int
	cb   Callback
	prev *node
	next *node
}

// List is an independent, instantiable event list. Unlike the
// teacher's package-level list, each simulator run owns its own List
// so multiple scenarios never share scheduler state.
type List struct {
	head *node
	tail *node
}

// NewList returns an empty event list.
func NewList() *List {
	return &List{}
}

// Schedule registers cb to fire after delay ticks. delay<=0 fires cb
// immediately and does not touch the list. tag identifies the event
// for a later Cancel and need not be unique.
func (l *List) Schedule(tag string, delay int, cb Callback) {
	if delay <= 0 {
		cb()
		return
	}

	ev := &node{tag: tag, time: delay, cb: cb}

	cur := l.head
	if cur == nil {
		l.head = ev
		l.tail = ev
		return
	}

	for cur != nil {
		if ev.time <= cur.time {
			cur.time -= ev.time
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
		ev.time -= cur.time
		cur = cur.next
	}

	ev.prev = l.tail
	l.tail.next = ev
	l.tail = ev
}

// Cancel removes the first scheduled event matching tag, if any.
func (l *List) Cancel(tag string) {
	cur := l.head
	for cur != nil {
		if cur.tag == tag {
			if cur.next != nil {
				cur.next.time += cur.time
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

// Advance moves the clock forward by t ticks, firing every event whose
// delay has reached zero, in time order. A callback is run before
// the list is given a chance to receive new Schedule calls from within
// the callback — matching the teacher's Advance/AddEvent reentrancy.
func (l *List) Advance(t int) {
	cur := l.head
	if cur == nil {
		return
	}
	cur.time -= t
	for cur != nil && cur.time <= 0 {
		over := cur.time
		cur.cb()
		l.head = cur.next
		cur = l.head
		if cur != nil {
			cur.prev = nil
			cur.time += over
		} else {
			l.tail = nil
		}
	}
}

// Pending reports whether any event remains scheduled.
func (l *List) Pending() bool {
	return l.head != nil
}
