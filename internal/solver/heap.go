// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package solver

import "container/heap"

// queueEntry is one pending upgrade: the unit, the hull position it would
// advance to, and the marginal ratio realized by that advance.
type queueEntry struct {
	unit  int
	pos   int
	ratio float64
}

// upgradeQueue is a max-heap over pending upgrades, ordered by marginal
// ratio with ties broken by unit tie rank (lower rank wins). A unit holds
// at most one entry at a time, so the ordering is total and two solves
// over identical inputs pop in identical order.
type upgradeQueue struct {
	entries []queueEntry
	rank    []int
}

func newUpgradeQueue(capacity int, rank []int) *upgradeQueue {
	return &upgradeQueue{
		entries: make([]queueEntry, 0, capacity),
		rank:    rank,
	}
}

func (q *upgradeQueue) Len() int { return len(q.entries) }

func (q *upgradeQueue) Less(i, j int) bool {
	a, b := q.entries[i], q.entries[j]
	if a.ratio != b.ratio {
		return a.ratio > b.ratio
	}
	return q.rank[a.unit] < q.rank[b.unit]
}

func (q *upgradeQueue) Swap(i, j int) {
	q.entries[i], q.entries[j] = q.entries[j], q.entries[i]
}

func (q *upgradeQueue) Push(x any) {
	q.entries = append(q.entries, x.(queueEntry))
}

func (q *upgradeQueue) Pop() any {
	old := q.entries
	n := len(old)
	e := old[n-1]
	q.entries = old[:n-1]
	return e
}

func (q *upgradeQueue) push(e queueEntry) {
	heap.Push(q, e)
}

func (q *upgradeQueue) pop() queueEntry {
	return heap.Pop(q).(queueEntry)
}
