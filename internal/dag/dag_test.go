package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, nodes []string, edges [][2]string) *Graph {
	t.Helper()
	g := NewGraph()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]), "edge %v", e)
	}
	return g
}

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := build(t, []string{"Country", "Retailer", "Orders"}, [][2]string{
		{"Country", "Retailer"},
		{"Retailer", "Orders"},
		{"Retailer", "Orders"},
	})
	g.AddNode("Country")

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount(), "duplicate references count once")
	assert.Equal(t, []string{"Retailer"}, g.Parents("Orders"))
	assert.Equal(t, []string{"Retailer"}, g.Children("Country"))
	assert.Empty(t, g.Parents("Country"))
	assert.Nil(t, g.Parents("Product"))
	assert.True(t, g.HasNode("Orders"))
	assert.False(t, g.HasNode("Product"))
	assert.Equal(t, []string{"Country", "Orders", "Retailer"}, g.Nodes())
}

func TestGraph_AddEdge_Errors(t *testing.T) {
	g := NewGraph()
	g.AddNode("a")

	assert.ErrorContains(t, g.AddEdge("a", "nonexistent"), "child node")
	assert.ErrorContains(t, g.AddEdge("nonexistent", "a"), "parent node")
	assert.ErrorContains(t, g.AddEdge("a", "a"), "self-loop")
	assert.Zero(t, g.EdgeCount())
}

func TestGraph_HasCycle(t *testing.T) {
	acyclic := build(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
	has, _ := acyclic.HasCycle()
	assert.False(t, has)

	cyclic := build(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}})
	has, path := cyclic.HasCycle()
	require.True(t, has)
	assert.Equal(t, []string{"a", "b", "c", "a"}, path)

	_, err := cyclic.TopologicalSort()
	assert.ErrorContains(t, err, "cycle detected")
	_, err = cyclic.Chains()
	assert.ErrorContains(t, err, "cycle detected")
}

func TestGraph_TopologicalSort(t *testing.T) {
	g := build(t, []string{"Orders", "Product", "Retailer", "Country", "Staff"}, [][2]string{
		{"Country", "Retailer"},
		{"Country", "Product"},
		{"Retailer", "Orders"},
		{"Product", "Orders"},
	})

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"Country", "Staff", "Product", "Retailer", "Orders"}, order)
}

func TestGraph_Chains(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges [][2]string
		want  [][]string
	}{
		{
			name:  "no references",
			nodes: []string{"a", "b"},
		},
		{
			name:  "single reference is not a chain",
			nodes: []string{"Owner", "Item"},
			edges: [][2]string{{"Owner", "Item"}},
		},
		{
			name:  "chain",
			nodes: []string{"Country", "Retailer", "Orders"},
			edges: [][2]string{{"Country", "Retailer"}, {"Retailer", "Orders"}},
			want:  [][]string{{"Country", "Retailer", "Orders"}},
		},
		{
			name:  "branching",
			nodes: []string{"Country", "Retailer", "Staff", "Orders", "Returns"},
			edges: [][2]string{
				{"Country", "Retailer"}, {"Country", "Staff"},
				{"Retailer", "Orders"}, {"Staff", "Orders"}, {"Orders", "Returns"},
			},
			want: [][]string{
				{"Country", "Retailer", "Orders", "Returns"},
				{"Country", "Staff", "Orders", "Returns"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := build(t, tt.nodes, tt.edges).Chains()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
