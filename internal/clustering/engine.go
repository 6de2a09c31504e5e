// Package clustering builds a directed funding graph from transfer
// edges, reconstructs an acyclic funding tree, and derives wallet
// clusters from the undirected projection.
package clustering

import (
	"fmt"
	"sort"

	"walletiq/internal/domain"
)

// Config bounds the clustering traversals.
type Config struct {
	DustThreshold           domain.Amount `yaml:"dust_threshold"`
	MaxDepth                int           `yaml:"max_depth"`
	MaxNodes                int           `yaml:"max_nodes"`
	HopLimit                int           `yaml:"hop_limit"`
	MinClusterVolume        domain.Amount `yaml:"min_cluster_volume"`
	MinSharedCounterparties int           `yaml:"min_shared_counterparties"`
}

// DefaultConfig returns the default traversal bounds.
func DefaultConfig() Config {
	return Config{
		DustThreshold:           "0",
		MaxDepth:                5,
		MaxNodes:                200,
		HopLimit:                2,
		MinClusterVolume:        "0",
		MinSharedCounterparties: 2,
	}
}

// Engine derives funding trees and clusters from transfer edges.
type Engine struct {
	cfg Config
}

// NewEngine creates a clustering engine with the given bounds; zero or
// negative bounds fall back to defaults.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = def.MaxNodes
	}
	if cfg.HopLimit <= 0 {
		cfg.HopLimit = def.HopLimit
	}
	return &Engine{cfg: cfg}
}

// Analyze builds the full clustering report for an address from its
// transfer edge set.
func (e *Engine) Analyze(address string, edges []domain.TransferEdge) *domain.ClusteringReport {
	g := buildGraph(edges, e.cfg.DustThreshold)

	return &domain.ClusteringReport{
		Address:        address,
		RelatedWallets: e.relatedWallets(g, address),
		Clusters:       e.clusters(g),
		FundingTree:    e.fundingTree(g, address),
	}
}

// fundingTree reconstructs the acyclic, single-parent funding tree. The
// root is the queried address or, when it was itself funded, the nearest
// upstream funder found by bounded backward traversal.
func (e *Engine) fundingTree(g *graph, address string) domain.FundingTree {
	start, ok := g.nodes[address]
	if !ok {
		return domain.FundingTree{
			Root:  address,
			Nodes: []domain.WalletNode{{Address: address, Received: domain.Zero, Sent: domain.Zero}},
		}
	}

	root := e.findRoot(start)
	tree := domain.FundingTree{Root: root.address}

	// BFS outward from the root. A node already placed in the tree is
	// never re-added, which both breaks cycles (a back edge targets an
	// ancestor that is already placed) and collapses diamonds (first
	// traversal path wins).
	type item struct {
		n      *node
		parent string
		depth  int
	}
	placed := make(map[string]struct{})
	queue := []item{{n: root, depth: 0}}
	placed[root.address] = struct{}{}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		tree.Nodes = append(tree.Nodes, domain.WalletNode{
			Address:  cur.n.address,
			Parent:   cur.parent,
			Depth:    cur.depth,
			Received: domain.Amount(cur.n.received.String()),
			Sent:     domain.Amount(cur.n.sent.String()),
		})
		if len(tree.Nodes) >= e.cfg.MaxNodes || cur.depth >= e.cfg.MaxDepth {
			continue
		}

		for _, out := range cur.n.out {
			if _, seen := placed[out.to.address]; seen {
				continue
			}
			if len(placed) >= e.cfg.MaxNodes {
				break
			}
			placed[out.to.address] = struct{}{}
			queue = append(queue, item{n: out.to, parent: cur.n.address, depth: cur.depth + 1})
		}
	}
	return tree
}

// findRoot walks incoming funding edges backward from the queried
// address, preferring the largest-volume funder at each hop, bounded by
// MaxDepth. The walk stops at a node with no unvisited funder.
func (e *Engine) findRoot(start *node) *node {
	visited := map[string]struct{}{start.address: {}}
	cur := start
	for hop := 0; hop < e.cfg.MaxDepth; hop++ {
		var best *edge
		for _, in := range cur.in {
			if _, seen := visited[in.from.address]; seen {
				continue
			}
			if best == nil || in.value.Cmp(best.value) > 0 {
				best = in
			}
		}
		if best == nil {
			break
		}
		cur = best.from
		visited[cur.address] = struct{}{}
	}
	return cur
}

// relatedWallets returns nodes within HopLimit undirected hops of the
// address, excluding the address itself, sorted by aggregate volume
// descending with ascending address breaking ties.
func (e *Engine) relatedWallets(g *graph, address string) []domain.RelatedWallet {
	start, ok := g.nodes[address]
	if !ok {
		return []domain.RelatedWallet{}
	}

	hops := map[string]int{address: 0}
	queue := []*node{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if hops[cur.address] >= e.cfg.HopLimit {
			continue
		}
		for peer := range cur.neighbors() {
			if _, seen := hops[peer]; seen {
				continue
			}
			hops[peer] = hops[cur.address] + 1
			queue = append(queue, g.nodes[peer])
		}
	}

	related := make([]domain.RelatedWallet, 0, len(hops)-1)
	for addr, h := range hops {
		if addr == address {
			continue
		}
		n := g.nodes[addr]
		related = append(related, domain.RelatedWallet{
			Address: addr,
			Hops:    h,
			Volume:  domain.Amount(n.volume().String()),
		})
	}
	sort.Slice(related, func(i, j int) bool {
		cmp := related[i].Volume.Cmp(related[j].Volume)
		if cmp != 0 {
			return cmp > 0
		}
		return related[i].Address < related[j].Address
	})
	return related
}

// clusters derives connected components of the undirected projection,
// restricted to edges that meet the similarity threshold. Isolated
// wallets belong to no cluster; clusters need not partition the graph.
func (e *Engine) clusters(g *graph) []domain.Cluster {
	addresses := make([]string, 0, len(g.nodes))
	for addr := range g.nodes {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)

	assigned := make(map[string]struct{})
	var clusters []domain.Cluster

	for _, addr := range addresses {
		if _, done := assigned[addr]; done {
			continue
		}
		members := e.component(g, g.nodes[addr], assigned)
		if len(members) < 2 {
			continue
		}
		sort.Strings(members)
		clusters = append(clusters, domain.Cluster{
			ID:      fmt.Sprintf("cluster-%d", len(clusters)+1),
			Members: members,
		})
	}
	return clusters
}

// component collects the qualifying-edge connected component containing
// start, marking every member assigned.
func (e *Engine) component(g *graph, start *node, assigned map[string]struct{}) []string {
	members := []string{start.address}
	assigned[start.address] = struct{}{}
	queue := []*node{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for peer := range cur.neighbors() {
			if _, done := assigned[peer]; done {
				continue
			}
			pn := g.nodes[peer]
			if !e.qualifies(cur, pn) {
				continue
			}
			assigned[peer] = struct{}{}
			members = append(members, peer)
			queue = append(queue, pn)
		}
	}
	return members
}

// qualifies applies the similarity threshold to an undirected edge:
// enough aggregate volume, or enough shared counterparties.
func (e *Engine) qualifies(a, b *node) bool {
	min := e.cfg.MinClusterVolume.Int()
	if min.Sign() == 0 {
		return true
	}
	if undirectedVolume(a, b).Cmp(min) >= 0 {
		return true
	}
	return e.cfg.MinSharedCounterparties > 0 &&
		sharedCounterparties(a, b) >= e.cfg.MinSharedCounterparties
}
