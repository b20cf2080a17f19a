package syntax

// Visitor receives walk events. Enter runs before a node's children, Leave
// after all of them. parent is nil for the root.
type Visitor interface {
	Enter(n, parent Node)
	Leave(n, parent Node)
}

type frame struct {
	node   Node
	parent Node
	leave  bool
}

// Walk performs a depth-first pre-order traversal of root, visiting children
// left to right. It uses an explicit stack so deeply nested input cannot
// exhaust the goroutine stack.
func Walk(root Node, v Visitor) {
	if isNil(root) {
		return
	}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.leave {
			v.Leave(top.node, top.parent)
			continue
		}

		v.Enter(top.node, top.parent)
		stack = append(stack, frame{node: top.node, parent: top.parent, leave: true})

		kids := top.node.Children()
		for i := len(kids) - 1; i >= 0; i-- {
			if isNil(kids[i]) {
				continue
			}
			stack = append(stack, frame{node: kids[i], parent: top.node})
		}
	}
}

// Inspect calls fn for every node in pre-order. It is a convenience over Walk
// for callers that only need enter events.
func Inspect(root Node, fn func(n, parent Node)) {
	Walk(root, enterFunc(fn))
}

type enterFunc func(n, parent Node)

func (f enterFunc) Enter(n, parent Node) { f(n, parent) }
func (enterFunc) Leave(Node, Node)       {}
