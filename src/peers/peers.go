package peers

import "fmt"

// Peer is another node of the local cluster, identified by its integer index
// and the address it listens on. Addresses follow a static convention, base
// port + index on a fixed host, which is only valid for single-host test
// networks; there is no discovery.
type Peer struct {
	Index   int
	NetAddr string
}

// NewPeer computes the peer for the given index.
func NewPeer(host string, basePort, index int) *Peer {
	return &Peer{
		Index:   index,
		NetAddr: fmt.Sprintf("%s:%d", host, basePort+index),
	}
}

// Mesh returns the peers that node self dials in a fully-connected cluster
// of the given size: every index in [0, nodes) except self, in order.
func Mesh(host string, basePort, nodes, self int) []*Peer {
	res := make([]*Peer, 0, nodes-1)
	for i := 0; i < nodes; i++ {
		if i == self {
			continue
		}
		res = append(res, NewPeer(host, basePort, i))
	}
	return res
}

// Line returns the peers that node self dials when the cluster is connected
// in a line: only the next node. The last node dials nobody; it waits for
// the node before it.
func Line(host string, basePort, nodes, self int) []*Peer {
	if self >= nodes-1 {
		return nil
	}
	return []*Peer{NewPeer(host, basePort, self+1)}
}

// Degree returns the number of connections node self ends up with in a line
// of the given size: 1 at either end, 2 in the middle.
func Degree(nodes, self int) int {
	if self == 0 || self == nodes-1 {
		return 1
	}
	return 2
}
