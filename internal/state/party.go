package state

import (
	"slices"

	"github.com/roach88/overlay/internal/data"
)

// Party is the ordered list of member actor ids.
type Party struct {
	members []int
}

// Add appends id unless it is already a member.
func (p *Party) Add(id int) {
	if !slices.Contains(p.members, id) {
		p.members = append(p.members, id)
	}
}

// Remove drops id from the party.
func (p *Party) Remove(id int) {
	p.members = slices.DeleteFunc(p.members, func(m int) bool { return m == id })
}

// Members returns the member ids in order.
func (p *Party) Members() []int {
	return slices.Clone(p.members)
}

// Snapshot serializes the party as {"actors": [ids...]}.
func (p *Party) Snapshot() data.Object {
	ids := make(data.List, len(p.members))
	for i, id := range p.members {
		ids[i] = data.Int(id)
	}
	return data.Object{"actors": ids}
}

// Restore replaces the member list.
func (p *Party) Restore(obj data.Object) {
	p.members = nil
	for _, id := range obj.List("actors").Ints() {
		p.Add(int(id))
	}
}
