package model

import (
	"fmt"

	"github.com/tipresias/tipresias-sub001/internal/sqltoken"
)

// resolveJoin links the table at arena index newIdx into the join chain
// using the ON comparison.
//
// The ON clause must equate an id/ref column of one table with a
// foreign-key column of the other; anything else has no sound index
// translation. The foreign-key owner always becomes the right neighbor
// of the referenced table, so walking right along the chain always
// moves from a referenced table to its referencing table.
func (q *Query) resolveJoin(newIdx int, on *sqltoken.Token) error {
	if len(on.Children) != 3 {
		return fmt.Errorf("malformed JOIN condition %q", on.Value())
	}
	left, opTok, right := on.Children[0], on.Children[1], on.Children[2]
	if opTok.Kind != sqltoken.KindOperator || opTok.Text != "=" {
		return NotSupportedMsg("JOIN",
			"Joins are only supported on equality between an id column and a foreign-key column")
	}

	colA, ownerA, err := ColumnFromIdentifier(left)
	if err != nil {
		return err
	}
	colB, ownerB, err := ColumnFromIdentifier(right)
	if err != nil {
		return err
	}
	if ownerA == "" || ownerB == "" {
		return fmt.Errorf("JOIN condition %q must qualify both columns with their tables", on.Value())
	}
	idxA := q.TableIndex(ownerA)
	idxB := q.TableIndex(ownerB)
	if idxA < 0 || idxB < 0 {
		return fmt.Errorf("JOIN condition %q references a table outside the query", on.Value())
	}
	if idxA != newIdx && idxB != newIdx {
		return fmt.Errorf("JOIN condition %q does not reference the joined table", on.Value())
	}

	aIsID, bIsID := colA.IsID(), colB.IsID()
	switch {
	case aIsID && bIsID:
		// Contract violation, not a SQL limitation: there is no way to
		// tell which side carries the foreign key.
		return fmt.Errorf("no identifiable foreign key in JOIN condition %q", on.Value())
	case !aIsID && !bIsID:
		return NotSupportedMsg("JOIN",
			"Joins are only supported between a table's id and a foreign key that references it")
	}

	refIdx, fkIdx := idxA, idxB
	fkCol := colB
	if bIsID {
		refIdx, fkIdx = idxB, idxA
		fkCol = colA
	}
	fkCol.Table = fkIdx

	parent := q.Tables[refIdx]
	child := q.Tables[fkIdx]
	if parent.Right != -1 {
		return NotSupportedMsg("JOIN",
			fmt.Sprintf("Table %q is already joined on that side: branching join graphs are not supported", parent.Name))
	}
	if child.Left != -1 {
		return NotSupportedMsg("JOIN",
			fmt.Sprintf("Table %q is already joined on that side: branching join graphs are not supported", child.Name))
	}

	parent.Right = fkIdx
	parent.RightKey = &fkCol
	child.Left = refIdx
	child.LeftKey = &fkCol
	return nil
}

// ChainLeftOf returns the arena indices from the leftmost chain end up
// to (excluding) the principal, in hop order toward the principal.
func (q *Query) ChainLeftOf() []int {
	var idxs []int
	for i := q.PrincipalTable().Left; i != -1; i = q.Tables[i].Left {
		idxs = append(idxs, i)
	}
	// Collected principal-outward; hops run outside-in.
	reverse(idxs)
	return idxs
}

// ChainRightOf returns the arena indices from the rightmost chain end
// up to (excluding) the principal, in hop order toward the principal.
func (q *Query) ChainRightOf() []int {
	var idxs []int
	for i := q.PrincipalTable().Right; i != -1; i = q.Tables[i].Right {
		idxs = append(idxs, i)
	}
	reverse(idxs)
	return idxs
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
