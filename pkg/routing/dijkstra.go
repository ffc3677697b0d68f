package routing

import (
	"container/heap"
	"math"
)

type pqItem struct {
	nodeID   string
	distance float64
}

// distanceQueue is a min-heap of tentative distances. Entries are never
// decreased in place; stale ones are skipped when popped.
type distanceQueue []pqItem

func (q distanceQueue) Len() int           { return len(q) }
func (q distanceQueue) Less(i, j int) bool { return q[i].distance < q[j].distance }
func (q distanceQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *distanceQueue) Push(x any) {
	*q = append(*q, x.(pqItem))
}

func (q *distanceQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// ShortestPath finds the cheapest path from start to goal using Dijkstra's
// algorithm. It stops as soon as goal is popped. When goal cannot be reached
// it returns ErrUnreachable.
//
// Arc times must be non-negative. Ties between equal-cost paths are broken
// arbitrarily.
func ShortestPath(adj Adjacency, start, goal string) (float64, []string, error) {
	if start == goal {
		return 0, []string{start}, nil
	}

	distances := map[string]float64{start: 0}
	parent := make(map[string]string)

	pq := &distanceQueue{{nodeID: start, distance: 0}}
	reached := false

	for pq.Len() > 0 {
		current := heap.Pop(pq).(pqItem)
		if current.nodeID == goal {
			reached = true
			break
		}
		if current.distance > distanceOf(distances, current.nodeID) {
			continue
		}

		for _, arc := range adj[current.nodeID] {
			d := current.distance + arc.Time
			if d < distanceOf(distances, arc.To) {
				distances[arc.To] = d
				parent[arc.To] = current.nodeID
				heap.Push(pq, pqItem{nodeID: arc.To, distance: d})
			}
		}
	}

	if !reached {
		return 0, nil, ErrUnreachable
	}

	path := []string{goal}
	for node := goal; node != start; {
		node = parent[node]
		path = append(path, node)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return distances[goal], path, nil
}

func distanceOf(distances map[string]float64, id string) float64 {
	if d, ok := distances[id]; ok {
		return d
	}
	return math.Inf(1)
}

// Distances returns the cost of the cheapest path from start to every node it
// can reach.
func Distances(adj Adjacency, start string) map[string]float64 {
	distances := map[string]float64{start: 0}
	pq := &distanceQueue{{nodeID: start, distance: 0}}

	for pq.Len() > 0 {
		current := heap.Pop(pq).(pqItem)
		if current.distance > distanceOf(distances, current.nodeID) {
			continue
		}
		for _, arc := range adj[current.nodeID] {
			d := current.distance + arc.Time
			if d < distanceOf(distances, arc.To) {
				distances[arc.To] = d
				heap.Push(pq, pqItem{nodeID: arc.To, distance: d})
			}
		}
	}
	return distances
}
