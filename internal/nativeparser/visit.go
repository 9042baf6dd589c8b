package nativeparser

// VisitResult mirrors libclang's CXChildVisitResult: the visitor decides
// per-cursor whether to recurse into children, skip them, or stop the walk
// entirely.
type VisitResult uint8

const (
	VisitBreak VisitResult = iota
	VisitContinue
	VisitRecurse
)

// Visitor is called once per cursor during VisitChildren.
type Visitor func(cursor, parent Cursor) VisitResult

// VisitChildren implements spec.md §4.A's "visit_children(cursor, visitor)":
// a depth-first walk starting at cursor's direct children, where the
// visitor's return value controls descent exactly as CXChildVisitResult
// does in libclang.
func VisitChildren(cursor Cursor, visitor Visitor) {
	if cursor.IsNull() {
		return
	}
	visitChildrenRec(cursor, cursor, visitor)
}

func visitChildrenRec(parent Cursor, root Cursor, visitor Visitor) bool {
	for _, child := range parent.Children() {
		switch visitor(child, parent) {
		case VisitBreak:
			return false
		case VisitRecurse:
			if !visitChildrenRec(child, root, visitor) {
				return false
			}
		case VisitContinue:
			// sibling only, no descent
		}
	}
	return true
}
