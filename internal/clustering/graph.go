package clustering

import (
	"math/big"
	"sort"

	"walletiq/internal/domain"
)

// node is one wallet in the funding graph arena. Edges are stored both
// ways so the engine can walk forward (funding tree) and backward (root
// detection) over the same arena.
type node struct {
	address  string
	out      []*edge
	in       []*edge
	received *big.Int
	sent     *big.Int
}

type edge struct {
	from  *node
	to    *node
	value *big.Int
}

// graph is a directed funding graph keyed by address. The funding
// relationship is deliberately not modeled as an acyclic type; cycle
// breaking happens at tree-construction time.
type graph struct {
	nodes map[string]*node
}

// buildGraph assembles the arena from transfer edges, dropping edges at
// or below the dust threshold and self-transfers.
func buildGraph(edges []domain.TransferEdge, dust domain.Amount) *graph {
	g := &graph{nodes: make(map[string]*node)}
	dustInt := dust.Int()

	for _, te := range edges {
		if te.From == "" || te.To == "" || te.From == te.To {
			continue
		}
		value := te.Value.Int()
		if value.Cmp(dustInt) <= 0 {
			continue
		}
		from := g.ensure(te.From)
		to := g.ensure(te.To)
		e := &edge{from: from, to: to, value: value}
		from.out = append(from.out, e)
		to.in = append(to.in, e)
		from.sent.Add(from.sent, value)
		to.received.Add(to.received, value)
	}

	// Deterministic adjacency order: ascending peer address.
	for _, n := range g.nodes {
		sort.Slice(n.out, func(i, j int) bool { return n.out[i].to.address < n.out[j].to.address })
		sort.Slice(n.in, func(i, j int) bool { return n.in[i].from.address < n.in[j].from.address })
	}
	return g
}

func (g *graph) ensure(address string) *node {
	if n, ok := g.nodes[address]; ok {
		return n
	}
	n := &node{
		address:  address,
		received: new(big.Int),
		sent:     new(big.Int),
	}
	g.nodes[address] = n
	return n
}

// volume returns received + sent for a node.
func (n *node) volume() *big.Int {
	return new(big.Int).Add(n.received, n.sent)
}

// neighbors returns the undirected peer set of a node.
func (n *node) neighbors() map[string]struct{} {
	peers := make(map[string]struct{}, len(n.out)+len(n.in))
	for _, e := range n.out {
		peers[e.to.address] = struct{}{}
	}
	for _, e := range n.in {
		peers[e.from.address] = struct{}{}
	}
	return peers
}

// undirectedVolume sums transfer value between two nodes in both
// directions.
func undirectedVolume(a, b *node) *big.Int {
	total := new(big.Int)
	for _, e := range a.out {
		if e.to == b {
			total.Add(total, e.value)
		}
	}
	for _, e := range a.in {
		if e.from == b {
			total.Add(total, e.value)
		}
	}
	return total
}

// sharedCounterparties counts addresses adjacent to both nodes,
// excluding the pair itself.
func sharedCounterparties(a, b *node) int {
	pa := a.neighbors()
	pb := b.neighbors()
	count := 0
	for addr := range pa {
		if addr == a.address || addr == b.address {
			continue
		}
		if _, ok := pb[addr]; ok {
			count++
		}
	}
	return count
}
