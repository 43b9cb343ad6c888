package commentTree

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

func comment(id, parent string) models.Comment {
	return models.Comment{Id: id, PostId: "p1", ParentId: parent, Content: "body " + id}
}

func rootIds(t *Tree) []string {
	out := []string{}
	for _, n := range t.Roots {
		out = append(out, n.Id)
	}
	return out
}

func replyIds(n *Node) []string {
	out := []string{}
	for _, r := range n.Replies {
		out = append(out, r.Id)
	}
	return out
}

func nodeCount(t *Tree) int {
	n := 0
	t.Walk(func(*Node, int) { n++ })
	return n
}

func TestBuildScenario(t *testing.T) {
	tree := Build([]models.Comment{comment("1", ""), comment("2", "1"), comment("3", "")}, FlattenToRoot)

	assert.Equal(t, []string{"1", "3"}, rootIds(tree))
	assert.Equal(t, []string{"2"}, replyIds(tree.Roots[0]))
	assert.Empty(t, tree.Roots[1].Replies)
	assert.Equal(t, 3, tree.Count)
}

func TestBuildAllRoots(t *testing.T) {
	input := []models.Comment{comment("c", ""), comment("a", ""), comment("b", "")}
	for _, policy := range []Policy{FlattenToRoot, Nested} {
		tree := Build(input, policy)
		assert.Equal(t, []string{"c", "a", "b"}, rootIds(tree))
		for _, r := range tree.Roots {
			assert.Empty(t, r.Replies)
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	tree := Build(nil, "")
	assert.Equal(t, FlattenToRoot, tree.Policy)
	assert.Empty(t, tree.Roots)
	assert.Zero(t, tree.Count)
}

func TestBuildOrphansBecomeRoots(t *testing.T) {
	other := models.Comment{Id: "x", PostId: "p2"}
	tree := Build([]models.Comment{
		comment("1", ""),
		comment("2", "gone"),
		other,
		comment("3", "x"),
	}, Nested)

	assert.Equal(t, []string{"1", "2", "x", "3"}, rootIds(tree))
	assert.Equal(t, 4, tree.Count)
}

func TestBuildFlattensDeepReplies(t *testing.T) {
	input := []models.Comment{
		comment("1", ""),
		comment("2", "1"),
		comment("3", "2"),
		comment("4", "3"),
		comment("5", "1"),
	}

	flat := Build(input, FlattenToRoot)
	require.Len(t, flat.Roots, 1)
	assert.Equal(t, []string{"2", "3", "4", "5"}, replyIds(flat.Roots[0]))
	for _, r := range flat.Roots[0].Replies {
		assert.Empty(t, r.Replies)
	}
	// stored parent stays untouched
	n, ok := flat.Find("4")
	require.True(t, ok)
	assert.Equal(t, "3", n.ParentId)

	nested := Build(input, Nested)
	root := nested.Roots[0]
	assert.Equal(t, []string{"2", "5"}, replyIds(root))
	assert.Equal(t, []string{"3"}, replyIds(root.Replies[0]))
	assert.Equal(t, []string{"4"}, replyIds(root.Replies[0].Replies[0]))
	assert.Equal(t, 5, nested.Count)
}

func TestBuildChildBeforeParent(t *testing.T) {
	tree := Build([]models.Comment{comment("2", "1"), comment("1", "")}, FlattenToRoot)
	assert.Equal(t, []string{"1"}, rootIds(tree))
	assert.Equal(t, []string{"2"}, replyIds(tree.Roots[0]))
}

func TestBuildBreaksCycles(t *testing.T) {
	input := []models.Comment{comment("a", "b"), comment("b", "a"), comment("c", "c")}
	for _, policy := range []Policy{FlattenToRoot, Nested} {
		tree := Build(input, policy)
		assert.Equal(t, []string{"a", "c"}, rootIds(tree))
		assert.Equal(t, []string{"b"}, replyIds(tree.Roots[0]))
		assert.Equal(t, 3, nodeCount(tree))
	}
}

func TestBuildIgnoresDuplicateIds(t *testing.T) {
	tree := Build([]models.Comment{comment("1", ""), comment("1", ""), comment("2", "1")}, FlattenToRoot)
	assert.Equal(t, 2, tree.Count)
	assert.Equal(t, []string{"1"}, rootIds(tree))
}

func TestAddReplyThenRemoveRoot(t *testing.T) {
	tree := Build([]models.Comment{comment("1", ""), comment("2", "1"), comment("3", "")}, FlattenToRoot)
	before := tree.Count

	assert.Equal(t, 1, tree.AddReply("1", comment("4", "1")))
	assert.Equal(t, []string{"2", "4"}, replyIds(tree.Roots[0]))

	delta, err := tree.Remove("1")
	require.NoError(t, err)
	// one root plus its original reply plus the new one
	assert.Equal(t, -3, delta)
	assert.Equal(t, before+1+delta, tree.Count)
	for _, id := range []string{"1", "2", "4"} {
		_, ok := tree.Find(id)
		assert.False(t, ok, id)
	}
	assert.Equal(t, []string{"3"}, rootIds(tree))
}

func TestRemoveRootScenario(t *testing.T) {
	tree := Build([]models.Comment{comment("1", ""), comment("2", "1"), comment("3", "")}, FlattenToRoot)

	delta, err := tree.Remove("1")
	require.NoError(t, err)
	assert.Equal(t, -2, delta)
	assert.Equal(t, 1, tree.Count)
}

func TestRemoveReply(t *testing.T) {
	tree := Build([]models.Comment{comment("1", ""), comment("2", "1"), comment("3", "2")}, FlattenToRoot)

	delta, err := tree.Remove("2")
	require.NoError(t, err)
	assert.Equal(t, -1, delta)
	assert.Equal(t, []string{"3"}, replyIds(tree.Roots[0]))

	nested := Build([]models.Comment{comment("1", ""), comment("2", "1"), comment("3", "2")}, Nested)
	delta, err = nested.Remove("2")
	require.NoError(t, err)
	assert.Equal(t, -2, delta)
	assert.Empty(t, nested.Roots[0].Replies)
	assert.Equal(t, 1, nested.Count)
}

func TestRemoveThreadFollowsStoredParents(t *testing.T) {
	tree := Build([]models.Comment{
		comment("1", ""), comment("2", "1"), comment("3", "2"), comment("4", "3"), comment("5", "1"),
	}, FlattenToRoot)

	delta, err := tree.RemoveThread("2")
	require.NoError(t, err)
	assert.Equal(t, -3, delta)
	assert.Equal(t, []string{"5"}, replyIds(tree.Roots[0]))
	assert.Equal(t, 2, tree.Count)
	assert.Equal(t, tree.Count, nodeCount(tree))

	_, err = tree.RemoveThread("3")
	assert.ErrorIs(t, err, ErrCommentNotFound)

	nested := Build([]models.Comment{comment("1", ""), comment("2", "1"), comment("3", "2")}, Nested)
	delta, err = nested.RemoveThread("1")
	require.NoError(t, err)
	assert.Equal(t, -3, delta)
	assert.Zero(t, nested.Count)
}

func TestRemoveUnknown(t *testing.T) {
	tree := Build([]models.Comment{comment("1", "")}, FlattenToRoot)
	delta, err := tree.Remove("nope")
	assert.ErrorIs(t, err, ErrCommentNotFound)
	assert.Zero(t, delta)
	assert.Equal(t, 1, tree.Count)
}

func TestAddReplyToReply(t *testing.T) {
	flat := Build([]models.Comment{comment("1", ""), comment("2", "1")}, FlattenToRoot)
	flat.AddReply("2", comment("3", "2"))
	assert.Equal(t, []string{"2", "3"}, replyIds(flat.Roots[0]))

	nested := Build([]models.Comment{comment("1", ""), comment("2", "1")}, Nested)
	nested.AddReply("2", comment("3", "2"))
	assert.Equal(t, []string{"3"}, replyIds(nested.Roots[0].Replies[0]))
}

func TestAddReplyUnknownParent(t *testing.T) {
	tree := Build(nil, FlattenToRoot)
	assert.Equal(t, 1, tree.AddReply("ghost", comment("9", "ghost")))
	assert.Equal(t, []string{"9"}, rootIds(tree))
	assert.Equal(t, 1, tree.Count)
}

func TestAddDuplicateIsIgnored(t *testing.T) {
	tree := Build([]models.Comment{comment("1", "")}, FlattenToRoot)
	assert.Zero(t, tree.AddRoot(comment("1", "")))
	assert.Zero(t, tree.AddReply("1", comment("1", "1")))
	assert.Equal(t, 1, tree.Count)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, FlattenToRoot, p)

	p, err = ParsePolicy("nested")
	require.NoError(t, err)
	assert.Equal(t, Nested, p)

	_, err = ParsePolicy("deep")
	assert.Error(t, err)
}

func TestTreeJSONKeepsIndex(t *testing.T) {
	tree := Build([]models.Comment{comment("1", ""), comment("2", "1"), comment("3", "")}, Nested)
	data, err := json.Marshal(tree)
	require.NoError(t, err)

	var decoded Tree
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Nested, decoded.Policy)
	assert.Equal(t, 3, decoded.Count)

	assert.Equal(t, 1, decoded.AddReply("2", comment("4", "2")))
	delta, err := decoded.Remove("1")
	require.NoError(t, err)
	assert.Equal(t, -3, delta)
	assert.Equal(t, []string{"3"}, rootIds(&decoded))
}

func TestCountMatchesNodes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 100; round++ {
		var input []models.Comment
		for i := 0; i < rng.Intn(30); i++ {
			parent := ""
			if i > 0 && rng.Intn(3) > 0 {
				parent = fmt.Sprint(rng.Intn(i + 2)) // sometimes unknown
			}
			input = append(input, comment(fmt.Sprint(i), parent))
		}
		policy := FlattenToRoot
		if round%2 == 1 {
			policy = Nested
		}
		tree := Build(input, policy)
		require.Equal(t, nodeCount(tree), tree.Count)

		for step := 0; step < 20; step++ {
			id := fmt.Sprint(rng.Intn(40))
			before := tree.Count
			switch rng.Intn(3) {
			case 0:
				delta := tree.AddReply(fmt.Sprint(rng.Intn(40)), comment("n"+id, ""))
				assert.Equal(t, before+delta, tree.Count)
			default:
				delta, err := tree.Remove(id)
				if err != nil {
					assert.ErrorIs(t, err, ErrCommentNotFound)
				}
				assert.Equal(t, before+delta, tree.Count)
			}
			require.Equal(t, nodeCount(tree), tree.Count)
		}
	}
}
