package builder

import (
	"hash/fnv"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/mcuforge/pic32forge/project"
)

// Unit is one emission step of a generation pass. Units are ordered so that
// every unit runs after the units whose derived values it consumes: the clock
// tree resolves first, the peripherals that divide bus clocks follow, and the
// scaffold that references all generated headers comes last.
type Unit string

const (
	UnitClock    Unit = "clock"
	UnitUART     Unit = "uart"
	UnitTimer    Unit = "timer"
	UnitGPIO     Unit = "gpio"
	UnitVendor   Unit = "vendor"
	UnitScaffold Unit = "scaffold"
)

type unitNode struct {
	unit Unit
	id   int64
}

func (n *unitNode) ID() int64 { return n.id }

type planner struct {
	nodes map[Unit]*unitNode
}

func (p *planner) makeNode(u Unit) *unitNode {
	if node, ok := p.nodes[u]; ok {
		return node
	}
	hasher := fnv.New64()
	hasher.Write([]byte(u))
	node := &unitNode{unit: u, id: int64(hasher.Sum64())}
	p.nodes[u] = node
	return node
}

// planUnits computes the emission order for the peripherals a project enables.
// The clock unit is always present since every downstream unit consumes bus
// frequencies from it.
func planUnits(cfg project.Config) ([]Unit, error) {
	p := &planner{nodes: make(map[Unit]*unitNode)}
	g := multi.NewDirectedGraph()

	clockNode := p.makeNode(UnitClock)
	scaffoldNode := p.makeNode(UnitScaffold)
	g.SetLine(g.NewLine(clockNode, scaffoldNode))

	depend := func(from, to *unitNode) {
		g.SetLine(g.NewLine(from, to))
	}

	if cfg.Peripherals.UART {
		n := p.makeNode(UnitUART)
		depend(clockNode, n)
		depend(n, scaffoldNode)
	}
	if cfg.Peripherals.Timer {
		n := p.makeNode(UnitTimer)
		depend(clockNode, n)
		depend(n, scaffoldNode)
	}
	if cfg.Peripherals.GPIO {
		n := p.makeNode(UnitGPIO)
		depend(clockNode, n)
		depend(n, scaffoldNode)
	}
	if cfg.Peripherals.DMA || cfg.Peripherals.SPI || cfg.Peripherals.I2C {
		n := p.makeNode(UnitVendor)
		depend(clockNode, n)
		depend(n, scaffoldNode)
	}

	sorted, err := topo.Sort(g)
	if err != nil {
		return nil, err
	}

	units := make([]Unit, len(sorted))
	for i, node := range sorted {
		units[i] = node.(*unitNode).unit
	}
	return units, nil
}

var _ graph.Node = (*unitNode)(nil)
