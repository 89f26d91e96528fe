// Entity-tree persistence. Every save assigns fresh surrogate node ids and
// rewrites the hierarchy's rows; the load pulls every row into an
// id-keyed map first and wires parent/child edges in a second pass, so
// reconstruction does not depend on row arrival order. Siblings order by
// materialized path, then the order column.
package sqlite

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/facets/pkg/types"
)

func saveEntityTree(tx *sql.Tx, c *types.Catalog, t *types.EntityTree) error {
	_, err := tx.Exec(
		"DELETE FROM hierarchy_entity_tree_node WHERE catalog_id = ? AND hierarchy_name = ?",
		c.ID.String(), t.Name(),
	)
	if err != nil {
		return fmt.Errorf("clearing tree rows: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO hierarchy_entity_tree_node
		 (node_id, catalog_id, hierarchy_name, parent_node_id, child_key, entity_id, path, ordinal)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("preparing tree insert: %w", err)
	}
	defer stmt.Close()

	nodeIDs := make(map[string]string) // path -> surrogate node id
	var saveErr error
	t.Walk(func(n types.TreeNode) bool {
		nodeID := uuid.NewString()
		nodeIDs[n.Path()] = nodeID

		var parentID, childKey any
		ordinal := 0
		if parent, ok := n.Parent(); ok {
			parentID = nodeIDs[parent.Path()]
			childKey = n.Key()
			for i, key := range parent.ChildKeys() {
				if key == n.Key() {
					ordinal = i
					break
				}
			}
		}
		var entityID any
		if e := n.Entity(); e != nil {
			if saveErr = ensureEntity(tx, e); saveErr != nil {
				return false
			}
			entityID = e.ID.String()
		}

		_, saveErr = stmt.Exec(
			nodeID, c.ID.String(), t.Name(),
			parentID, childKey, entityID, n.Path(), ordinal,
		)
		if saveErr != nil {
			saveErr = fmt.Errorf("writing tree node %q: %w", n.Path(), saveErr)
			return false
		}
		return true
	})
	return saveErr
}

// treeRow is one flat stored node.
type treeRow struct {
	nodeID   string
	parentID string
	childKey string
	entityID string
	path     string
	ordinal  int
}

func loadEntityTree(db *sql.DB, c *types.Catalog, name string, lc *loadContext) (*types.EntityTree, error) {
	rows, err := db.Query(
		`SELECT node_id, parent_node_id, child_key, entity_id, path, ordinal
		 FROM hierarchy_entity_tree_node WHERE catalog_id = ? AND hierarchy_name = ?`,
		c.ID.String(), name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flat []treeRow
	for rows.Next() {
		var r treeRow
		var parentID, childKey, entityID sql.NullString
		if err := rows.Scan(&r.nodeID, &parentID, &childKey, &entityID, &r.path, &r.ordinal); err != nil {
			return nil, fmt.Errorf("scanning tree row: %w", err)
		}
		r.parentID = parentID.String
		r.childKey = childKey.String
		r.entityID = entityID.String
		flat = append(flat, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reconstructTree(name, flat, lc)
}

// reconstructTree builds an EntityTree from flat rows in any permutation.
// First pass indexes every row by node id; second pass groups children
// under parents and attaches them top-down.
func reconstructTree(name string, flat []treeRow, lc *loadContext) (*types.EntityTree, error) {
	t := types.NewEntityTree(name)
	if len(flat) == 0 {
		return t, nil
	}

	byID := make(map[string]treeRow, len(flat))
	children := make(map[string][]treeRow)
	var root *treeRow
	for i := range flat {
		r := flat[i]
		byID[r.nodeID] = r
		if r.parentID == "" {
			if root != nil {
				return nil, fmt.Errorf("tree %q has multiple parentless rows: %w", name, types.ErrStructuralInconsistency)
			}
			root = &flat[i]
			continue
		}
		children[r.parentID] = append(children[r.parentID], r)
	}
	if root == nil {
		return nil, fmt.Errorf("tree %q has no parentless row: %w", name, types.ErrStructuralInconsistency)
	}
	for parentID := range children {
		if _, ok := byID[parentID]; !ok {
			return nil, fmt.Errorf("tree %q row references unknown parent %s: %w",
				name, parentID, types.ErrStructuralInconsistency)
		}
		siblings := children[parentID]
		sort.Slice(siblings, func(i, j int) bool {
			if siblings[i].path != siblings[j].path {
				return siblings[i].path < siblings[j].path
			}
			return siblings[i].ordinal < siblings[j].ordinal
		})
	}

	if err := attachTreeEntity(t.Root(), *root, lc); err != nil {
		return nil, err
	}
	attached, err := attachChildren(t.Root(), root.nodeID, children, lc)
	if err != nil {
		return nil, err
	}
	// Rows in a parent cycle pass the unknown-parent check but are never
	// reached from the root; a node count mismatch exposes them.
	if attached+1 != len(flat) {
		return nil, fmt.Errorf("tree %q has %d rows but only %d reachable from the root: %w",
			name, len(flat), attached+1, types.ErrStructuralInconsistency)
	}
	return t, nil
}

// attachChildren attaches the subtree below parentID and returns the number
// of nodes attached.
func attachChildren(parent types.TreeNode, parentID string, children map[string][]treeRow, lc *loadContext) (int, error) {
	attached := 0
	for _, r := range children[parentID] {
		child, err := parent.AddChild(r.childKey, nil)
		if err != nil {
			return attached, fmt.Errorf("attaching tree node %q: %w", r.path, err)
		}
		if err := attachTreeEntity(child, r, lc); err != nil {
			return attached, err
		}
		attached++
		below, err := attachChildren(child, r.nodeID, children, lc)
		attached += below
		if err != nil {
			return attached, err
		}
	}
	return attached, nil
}

func attachTreeEntity(n types.TreeNode, r treeRow, lc *loadContext) error {
	if r.entityID == "" {
		return nil
	}
	id, err := uuid.Parse(r.entityID)
	if err != nil {
		return fmt.Errorf("entity id %q: %w", r.entityID, err)
	}
	n.SetEntity(lc.registry.Entity(id))
	return nil
}
