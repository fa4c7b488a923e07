// Package channel implements multichannelling: channels inherit the objects of
// their master node, may localize them (channel-local copies sharing the
// channel set of the master) or hide them through disinheritance.
package channel

import (
	"errors"
	"fmt"
	"sort"

	"contentnode/internal/domain"
)

var (
	ErrNotVisible       = errors.New("object is not visible in channel")
	ErrNotChannel       = errors.New("not a channel of the node")
	ErrAlreadyLocalized = errors.New("object is already localized in channel")
	ErrNotLocalized     = errors.New("object is not localized in channel")
	ErrExcluded         = errors.New("object is excluded from multichannelling")
	ErrMaster           = errors.New("master objects cannot be unlocalized")
	ErrCycle            = errors.New("channel hierarchy contains a cycle")
)

// Hierarchy is the tree of master nodes and their channels
type Hierarchy struct {
	parent   map[int]int
	children map[int][]int
}

// NewHierarchy builds the hierarchy from all nodes
func NewHierarchy(nodes []*domain.Node) (*Hierarchy, error) {
	h := &Hierarchy{
		parent:   make(map[int]int, len(nodes)),
		children: make(map[int][]int),
	}
	for _, n := range nodes {
		h.parent[n.ID] = n.MasterNodeID
		if n.MasterNodeID != 0 {
			h.children[n.MasterNodeID] = append(h.children[n.MasterNodeID], n.ID)
		}
	}
	for id, master := range h.parent {
		if master != 0 {
			if _, ok := h.parent[master]; !ok {
				return nil, fmt.Errorf("channel %d references unknown master node %d", id, master)
			}
		}
	}
	for id := range h.parent {
		seen := map[int]bool{}
		for cur := id; cur != 0; cur = h.parent[cur] {
			if seen[cur] {
				return nil, fmt.Errorf("node %d: %w", id, ErrCycle)
			}
			seen[cur] = true
		}
	}
	for _, c := range h.children {
		sort.Ints(c)
	}
	return h, nil
}

// Contains reports whether the node is known
func (h *Hierarchy) Contains(nodeID int) bool {
	_, ok := h.parent[nodeID]
	return ok
}

// MasterOf returns the master node at the top of the channel's chain
func (h *Hierarchy) MasterOf(nodeID int) int {
	chain := h.ChainFor(nodeID)
	if len(chain) == 0 {
		return 0
	}
	return chain[len(chain)-1]
}

// ChainFor returns the channel followed by its masters up to the master node
func (h *Hierarchy) ChainFor(channelID int) []int {
	if !h.Contains(channelID) {
		return nil
	}
	var chain []int
	for cur := channelID; cur != 0; cur = h.parent[cur] {
		chain = append(chain, cur)
	}
	return chain
}

// IsChannelOf reports whether channel is a direct or indirect channel of node
func (h *Hierarchy) IsChannelOf(channelID, nodeID int) bool {
	if channelID == nodeID {
		return false
	}
	for _, id := range h.ChainFor(channelID) {
		if id == nodeID {
			return true
		}
	}
	return false
}

// Children returns the direct channels of the node
func (h *Hierarchy) Children(nodeID int) []int {
	out := make([]int, len(h.children[nodeID]))
	copy(out, h.children[nodeID])
	return out
}

// SubChannels returns all direct and indirect channels of the node
func (h *Hierarchy) SubChannels(nodeID int) []int {
	var out []int
	queue := h.Children(nodeID)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		out = append(out, id)
		queue = append(queue, h.children[id]...)
	}
	sort.Ints(out)
	return out
}
