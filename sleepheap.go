// File: sleepheap.go
// Author: momentics <momentics@gmail.com>
//
// The sleep heap orders parked fibers by absolute wake deadline so the
// idle fiber can compute a single bounded wait timeout (context.go's
// nextWaitTimeoutMS) instead of scanning every sleeper on each
// iteration. It is a classic binary min-heap over a slice; each
// Fiber.heapIndex caches its current slot so an arbitrary sleeper
// (e.g. one woken early by Poll or Interrupt) can be pulled out in
// O(log n) without a linear search.

package fiber

// heapLess orders by deadline, breaking ties by insertion order so
// equal-deadline sleepers wake FIFO (spec.md §8 property 11).
func heapLess(a, b *Fiber) bool {
	if a.deadline != b.deadline {
		return a.deadline < b.deadline
	}
	return a.heapSeq < b.heapSeq
}

func (rt *Runtime) heapSwap(i, j int) {
	rt.sleepHeap[i], rt.sleepHeap[j] = rt.sleepHeap[j], rt.sleepHeap[i]
	rt.sleepHeap[i].heapIndex = i
	rt.sleepHeap[j].heapIndex = j
}

func (rt *Runtime) heapUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !heapLess(rt.sleepHeap[i], rt.sleepHeap[parent]) {
			return
		}
		rt.heapSwap(i, parent)
		i = parent
	}
}

func (rt *Runtime) heapDown(i int) {
	n := len(rt.sleepHeap)
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < n && heapLess(rt.sleepHeap[left], rt.sleepHeap[smallest]) {
			smallest = left
		}
		if right < n && heapLess(rt.sleepHeap[right], rt.sleepHeap[smallest]) {
			smallest = right
		}
		if smallest == i {
			return
		}
		rt.heapSwap(i, smallest)
		i = smallest
	}
}

// sleepHeapInsert schedules f to wake at lastClockUS+timeoutUS.
func (rt *Runtime) sleepHeapInsert(f *Fiber, timeoutUS int64) {
	f.deadline = rt.lastClockUS + timeoutUS
	f.heapSeq = rt.heapSeqNext
	rt.heapSeqNext++
	f.heapIndex = len(rt.sleepHeap)
	rt.sleepHeap = append(rt.sleepHeap, f)
	rt.heapUp(f.heapIndex)
	f.flags |= FlagOnSleepHeap
}

// sleepHeapDelete removes f from the sleep heap. f must currently carry
// FlagOnSleepHeap.
func (rt *Runtime) sleepHeapDelete(f *Fiber) {
	n := len(rt.sleepHeap) - 1
	i := f.heapIndex
	if i != n {
		rt.heapSwap(i, n)
		rt.sleepHeap = rt.sleepHeap[:n]
		rt.heapDown(i)
		rt.heapUp(i)
	} else {
		rt.sleepHeap = rt.sleepHeap[:n]
	}
	f.heapIndex = 0
	f.flags &^= FlagOnSleepHeap
}

// checkClock advances the runtime clock and wakes every sleeper whose
// deadline has passed, marking each FlagTimedOut and moving it to the
// run queue.
func (rt *Runtime) checkClock() {
	rt.lastClockUS = rt.timeSource()
	if rt.coarseEnabled && rt.lastClockUS-rt.lastCoarseUS >= rt.coarseSeconds*1_000_000 {
		rt.lastCoarseUS = rt.lastClockUS
	}
	for len(rt.sleepHeap) > 0 && rt.sleepHeap[0].deadline <= rt.lastClockUS {
		f := rt.sleepHeap[0]
		rt.sleepHeapDelete(f)
		rt.wakeTimedOut(f)
	}
}

// wakeTimedOut transitions a fiber whose sleep/poll/wait deadline
// elapsed back onto the run queue, detaching it from the I/O queue if
// it was parked in Poll. checkClock calls it for every expired sleeper.
func (rt *Runtime) wakeTimedOut(f *Fiber) {
	f.flags |= FlagTimedOut
	if f.onIOQ {
		f.onIOQ = false
		f.SchedLink.Remove()
	} else if f.SchedLink.Linked() {
		f.SchedLink.Remove()
	}
	f.state = StateRunnable
	rt.runQ.PushBack(&f.SchedLink)
}
