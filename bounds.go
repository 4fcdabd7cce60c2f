package scenegraph

// ComputeBounds aggregates the world-space bounding box of every
// visible content drawable in the subtree rooted at node. Helper
// geometry (gizmos, selection boxes, debug lines) is excluded by its
// drawable role, not by name matching. The result is the empty box when
// no qualifying drawable exists; callers must treat that distinctly
// from a point box at the origin.
func ComputeBounds(node *VisualNode) Box {
	var box Box
	if node == nil || node.destroyed {
		return box
	}
	mergeBounds(node, &box)
	return box
}

func mergeBounds(n *VisualNode, box *Box) {
	backend := n.scene.backend

	merge := func(d NativeDrawable) {
		if d == nil || d.Role() != RoleContent || !backend.DrawableVisible(d) {
			return
		}
		box.Merge(backend.WorldBounds(d))
	}

	merge(n.meshDrawable)
	for _, l := range n.lines {
		merge(l.drawable)
	}
	for _, c := range n.children {
		mergeBounds(c, box)
	}
}
