package service

import (
	"container/heap"
	"strings"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

// passPlan is the dependency view of a device queue at the start of a pass.
type passPlan struct {
	// actions holds every non-terminal action by id.
	actions map[string]models.Action

	// blockedBy maps a blocked action to the conflicted or failed action
	// it waits for.
	blockedBy map[string]string

	// runnable actions are pending, unblocked, due and have every
	// dependency either synced or runnable.
	runnable map[string]bool

	// waiting actions are unblocked but not due yet, or depend on one that
	// is not.
	waiting map[string]bool

	// cyclic actions sit on a dependency cycle.
	cyclic map[string]bool

	// dependents maps an action id to the runnable actions that need it.
	dependents map[string][]string

	// indegree counts unsynced runnable dependencies per runnable action.
	indegree map[string]int
}

// buildPassPlan classifies queue. external holds the status of dependencies
// outside the queue; a dependency missing from both blocks its dependents.
func buildPassPlan(queue []models.Action, external map[string]models.ActionStatus, now time.Time) *passPlan {
	p := &passPlan{
		actions:    make(map[string]models.Action, len(queue)),
		blockedBy:  make(map[string]string),
		runnable:   make(map[string]bool),
		waiting:    make(map[string]bool),
		cyclic:     make(map[string]bool),
		dependents: make(map[string][]string),
		indegree:   make(map[string]int),
	}
	for _, action := range queue {
		p.actions[action.ID] = action
	}

	roots := make(map[string]string, len(queue))
	var blockRoot func(id string) string
	blockRoot = func(id string) string {
		if root, seen := roots[id]; seen {
			return root
		}
		roots[id] = ""
		for _, dep := range p.actions[id].Dependencies {
			if d, inQueue := p.actions[dep]; inQueue {
				if d.Status == models.StatusConflicted {
					roots[id] = dep
					return dep
				}
				if root := blockRoot(dep); root != "" {
					roots[id] = root
					return root
				}
				continue
			}
			if status, known := external[dep]; !known || status != models.StatusSynced {
				roots[id] = dep
				return dep
			}
		}
		return ""
	}

	for _, action := range queue {
		if action.Status != models.StatusPending {
			continue
		}
		if root := blockRoot(action.ID); root != "" {
			p.blockedBy[action.ID] = root
		}
	}

	// true while visiting so cycles stay runnable and surface in Kahn
	state := make(map[string]bool, len(queue))
	var canRun func(id string) bool
	canRun = func(id string) bool {
		if ok, seen := state[id]; seen {
			return ok
		}
		state[id] = true

		action := p.actions[id]
		ok := action.Status == models.StatusPending && p.blockedBy[id] == "" && action.ReadyAt(now)
		for _, dep := range action.Dependencies {
			if !ok {
				break
			}
			if _, inQueue := p.actions[dep]; inQueue {
				ok = canRun(dep)
			}
		}
		state[id] = ok
		return ok
	}

	for _, action := range queue {
		if action.Status != models.StatusPending || p.blockedBy[action.ID] != "" {
			continue
		}
		if canRun(action.ID) {
			p.runnable[action.ID] = true
		} else {
			p.waiting[action.ID] = true
		}
	}

	for id := range p.runnable {
		for _, dep := range p.actions[id].Dependencies {
			if p.runnable[dep] {
				p.dependents[dep] = append(p.dependents[dep], id)
				p.indegree[id]++
			}
		}
	}

	p.findCycles()
	return p
}

// findCycles runs Kahn over the runnable graph and marks the leftovers that
// can reach themselves.
func (p *passPlan) findCycles() {
	indegree := make(map[string]int, len(p.indegree))
	queue := make([]string, 0, len(p.runnable))
	for id := range p.runnable {
		indegree[id] = p.indegree[id]
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	done := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		done++
		for _, next := range p.dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if done == len(p.runnable) {
		return
	}

	for id, left := range indegree {
		if left > 0 && p.reaches(id, id) {
			p.cyclic[id] = true
		}
	}
}

func (p *passPlan) reaches(from, target string) bool {
	seen := make(map[string]bool)
	stack := append([]string(nil), p.dependents[from]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, p.dependents[id]...)
	}
	return false
}

// roots returns the runnable actions with no unsynced dependency.
func (p *passPlan) roots() []models.Action {
	out := make([]models.Action, 0, len(p.runnable))
	for id := range p.runnable {
		if p.indegree[id] == 0 && !p.cyclic[id] {
			out = append(out, p.actions[id])
		}
	}
	return out
}

// release records that id synced and returns the dependents that became
// ready.
func (p *passPlan) release(id string) []string {
	var ready []string
	for _, next := range p.dependents[id] {
		p.indegree[next]--
		if p.indegree[next] == 0 && !p.cyclic[next] {
			ready = append(ready, next)
		}
	}
	return ready
}

// dependentsOf returns every queued action that transitively depends on id.
func (p *passPlan) dependentsOf(id string) []string {
	direct := make(map[string][]string)
	for _, action := range p.actions {
		for _, dep := range action.Dependencies {
			direct[dep] = append(direct[dep], action.ID)
		}
	}

	var out []string
	seen := map[string]bool{id: true}
	stack := append([]string(nil), direct[id]...)
	for len(stack) > 0 {
		next := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[next] {
			continue
		}
		seen[next] = true
		out = append(out, next)
		stack = append(stack, direct[next]...)
	}
	return out
}

// readyQueue orders ready actions by priority desc, then client timestamp
// asc, then id.
type readyQueue []models.Action

func (q readyQueue) Len() int { return len(q) }

func (q readyQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.ClientTimestamp.Equal(b.ClientTimestamp) {
		return a.ClientTimestamp.Before(b.ClientTimestamp)
	}
	return strings.Compare(a.ID, b.ID) < 0
}

func (q readyQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *readyQueue) Push(x any) { *q = append(*q, x.(models.Action)) }

func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

func newReadyQueue(actions []models.Action) *readyQueue {
	q := readyQueue(actions)
	heap.Init(&q)
	return &q
}

func (q *readyQueue) push(action models.Action) { heap.Push(q, action) }

func (q *readyQueue) pop() models.Action { return heap.Pop(q).(models.Action) }
