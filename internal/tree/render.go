package tree

import (
	"fmt"
	"strings"

	"creditstudy/internal/dataset"
)

// Render returns a human-readable description of the fitted tree, one node
// per line, children indented below their parent. Nominal split values are
// decoded back to their category labels.
func (c *Classifier) Render() string {
	if !c.fitted {
		return "<unfitted tree>"
	}
	var b strings.Builder
	c.renderNode(&b, c.root, 0, "root")
	return b.String()
}

func (c *Classifier) renderNode(b *strings.Builder, nd *node, depth int, branch string) {
	indent := strings.Repeat("|  ", depth)

	if nd.leaf {
		fmt.Fprintf(b, "%s%s -> predict %s (n=%d%s)\n",
			indent, branch, c.classes[nd.pred], nd.n, c.leafDistribution(nd))
		return
	}

	f := c.features[nd.feature]
	var cond string
	if nd.isCat {
		cond = fmt.Sprintf("%s = %s", f.Name, dataset.DecodeCell(nd.threshold, f))
	} else {
		cond = fmt.Sprintf("%s <= %.4g", f.Name, nd.threshold)
	}
	defaultSide := "right"
	if nd.defaultLeft {
		defaultSide = "left"
	}
	fmt.Fprintf(b, "%s%s: split on %s (n=%d, missing -> %s)\n", indent, branch, cond, nd.n, defaultSide)

	c.renderNode(b, nd.left, depth+1, "yes")
	c.renderNode(b, nd.right, depth+1, "no")
}

// leafDistribution formats the class counts of a leaf, e.g. ", +:3 -:41"
func (c *Classifier) leafDistribution(nd *node) string {
	if len(nd.counts) == 0 {
		return ""
	}
	parts := make([]string, len(nd.counts))
	for i, cnt := range nd.counts {
		parts[i] = fmt.Sprintf("%s:%d", c.classes[i], cnt)
	}
	return ", " + strings.Join(parts, " ")
}
