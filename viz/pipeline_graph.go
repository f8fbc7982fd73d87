// ABOUTME: Pipeline graph rendering via graphviz
// ABOUTME: One node per stage with count and value, edges follow stage order
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/calegray/revdeck/models"
)

type GraphGenerator struct {
	stats func(context.Context) (*models.Stats, error)
}

// NewGraphGenerator builds a generator over any stats source, typically
// db.Store.Stats.
func NewGraphGenerator(stats func(context.Context) (*models.Stats, error)) *GraphGenerator {
	return &GraphGenerator{stats: stats}
}

// PipelineSVG renders the stage funnel as an SVG document.
func (g *GraphGenerator) PipelineSVG(ctx context.Context) ([]byte, error) {
	stats, err := g.stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stats: %w", err)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.LRRank)

	nodes := make(map[string]*cgraph.Node, len(models.StageOrder))
	for _, stage := range models.StageOrder {
		node, err := graph.CreateNodeByName(stage)
		if err != nil {
			return nil, fmt.Errorf("failed to create node %s: %w", stage, err)
		}
		s := stats.DealsByStage[stage]
		node.SetLabel(fmt.Sprintf("%s\n%d deals · $%.0fK", stage, s.Count, s.Value/1000))
		node.SetShape("box")
		nodes[stage] = node
	}

	// Open stages flow into each other; the last open stage closes either way.
	open := models.OpenStages
	for i := 0; i < len(open)-1; i++ {
		if _, err := graph.CreateEdgeByName("", nodes[open[i]], nodes[open[i+1]]); err != nil {
			return nil, fmt.Errorf("failed to create edge: %w", err)
		}
	}
	last := nodes[open[len(open)-1]]
	for _, terminal := range []string{models.StageClosedWon, models.StageClosedLost} {
		if _, err := graph.CreateEdgeByName("", last, nodes[terminal]); err != nil {
			return nil, fmt.Errorf("failed to create edge: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.Bytes(), nil
}
