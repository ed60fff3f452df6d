package comments

import "trailerhub/pkg/models"

// BuildTree nests a flat, oldest-first thread. Sibling order follows the
// input. A comment whose parent is missing from flat is promoted to a root.
func BuildTree(flat []models.Comment) []models.Comment {
	present := make(map[int64]bool, len(flat))
	for _, cm := range flat {
		present[cm.ID] = true
	}

	children := make(map[int64][]models.Comment)
	var roots []models.Comment
	for _, cm := range flat {
		if cm.ParentID != nil && present[*cm.ParentID] && *cm.ParentID != cm.ID {
			children[*cm.ParentID] = append(children[*cm.ParentID], cm)
			continue
		}
		roots = append(roots, cm)
	}

	var attach func(nodes []models.Comment) []models.Comment
	attach = func(nodes []models.Comment) []models.Comment {
		out := make([]models.Comment, len(nodes))
		for i, n := range nodes {
			n.Replies = attach(children[n.ID])
			out[i] = n
		}
		return out
	}
	return attach(roots)
}

// Count returns the number of comments in a nested thread.
func Count(tree []models.Comment) int {
	n := 0
	for _, cm := range tree {
		n += 1 + Count(cm.Replies)
	}
	return n
}
