package domain

import "sort"

// CommentNode is a comment with its replies and reactions resolved.
type CommentNode struct {
	Comment
	Replies   []*CommentNode
	Reactions []Reaction
}

func (n *CommentNode) LikeCount() int {
	if n == nil {
		return 0
	}
	return len(n.Reactions)
}

// Thread indexes a flat set of comments and reactions by parent so that
// nested trees can be assembled without further storage round trips.
type Thread struct {
	byID      map[int64]Comment
	children  map[int64][]int64
	reactions map[int64][]Reaction
	roots     []int64
	maxDepth  int
}

// NewThread indexes comments and reactions. maxDepth <= 0 disables the depth cap.
func NewThread(comments []Comment, reactions []Reaction, maxDepth int) *Thread {
	t := &Thread{
		byID:      make(map[int64]Comment, len(comments)),
		children:  make(map[int64][]int64),
		reactions: make(map[int64][]Reaction),
		maxDepth:  maxDepth,
	}

	ordered := make([]Comment, len(comments))
	copy(ordered, comments)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID > ordered[j].ID
		}
		return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
	})

	for _, c := range ordered {
		t.byID[c.ID] = c
		if c.ParentID == nil {
			t.roots = append(t.roots, c.ID)
			continue
		}
		t.children[*c.ParentID] = append(t.children[*c.ParentID], c.ID)
	}
	for _, r := range reactions {
		t.reactions[r.CommentID] = append(t.reactions[r.CommentID], r)
	}
	return t
}

// Node builds the subtree rooted at id.
func (t *Thread) Node(id int64) (*CommentNode, bool) {
	if _, ok := t.byID[id]; !ok {
		return nil, false
	}
	return t.build(id, 0, make(map[int64]struct{})), true
}

// Roots builds every top-level comment of the set, newest first.
func (t *Thread) Roots() []*CommentNode {
	visited := make(map[int64]struct{})
	nodes := make([]*CommentNode, 0, len(t.roots))
	for _, id := range t.roots {
		nodes = append(nodes, t.build(id, 0, visited))
	}
	return nodes
}

func (t *Thread) build(id int64, depth int, visited map[int64]struct{}) *CommentNode {
	visited[id] = struct{}{}
	node := &CommentNode{
		Comment:   t.byID[id],
		Replies:   []*CommentNode{},
		Reactions: t.reactions[id],
	}
	if node.Reactions == nil {
		node.Reactions = []Reaction{}
	}
	if t.maxDepth > 0 && depth >= t.maxDepth {
		return node
	}
	for _, childID := range t.children[id] {
		if _, seen := visited[childID]; seen {
			continue
		}
		node.Replies = append(node.Replies, t.build(childID, depth+1, visited))
	}
	return node
}
