package client

import (
	"context"
	"errors"
	"strings"
	"sync"

	pb "github.com/roweshkalloe/qualogy-ai-connect/bindings"
	"github.com/roweshkalloe/qualogy-ai-connect/commentTree"
	"github.com/roweshkalloe/qualogy-ai-connect/models"
)

var (
	ErrEmptyBody    = errors.New("comment cannot be empty")
	ErrNotComposing = errors.New("no comment is being composed")
)

const (
	submitFailedNotice = "Could not post your comment. Please try again."
	deleteFailedNotice = "Could not delete the comment. Please try again."
)

type ThreadState int

const (
	Viewing ThreadState = iota
	Composing
	ComposingReply
)

func (s ThreadState) String() string {
	switch s {
	case Composing:
		return "composing"
	case ComposingReply:
		return "composing-reply"
	}
	return "viewing"
}

// CommentAPI is the part of Client a Thread needs.
type CommentAPI interface {
	CreateComment(ctx context.Context, postId, parentId, content string) (models.Comment, error)
	DeleteComment(ctx context.Context, commentId string) (*pb.DeleteCommentResponse, error)
}

// Thread is the comment section of one post. The tree only changes after the
// gateway confirmed a write.
type Thread struct {
	mu       sync.Mutex
	api      CommentAPI
	postId   string
	tree     *commentTree.Tree
	state    ThreadState
	parentId string
	notice   string
	onCount  func(delta int)
}

type ThreadOption func(*Thread)

// OnCountChange is called with +1 and negative deltas whenever the number
// of displayed comments changes.
func OnCountChange(fn func(delta int)) ThreadOption {
	return func(t *Thread) { t.onCount = fn }
}

func NewThread(api CommentAPI, postId string, tree *commentTree.Tree, opts ...ThreadOption) *Thread {
	if tree == nil {
		tree = commentTree.Build(nil, commentTree.FlattenToRoot)
	}
	t := &Thread{api: api, postId: postId, tree: tree}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *Thread) State() ThreadState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// ReplyTo is the comment a reply is being composed for.
func (t *Thread) ReplyTo() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.parentId
}

// Notice is the transient message of the last failed write.
func (t *Thread) Notice() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.notice
}

func (t *Thread) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tree.Count
}

// Tree returns the live tree. It must not be read while Submit or Delete is
// in flight; use View for that.
func (t *Thread) Tree() *commentTree.Tree {
	return t.tree
}

// View calls fn with the tree while no write can change it.
func (t *Thread) View(fn func(tree *commentTree.Tree)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t.tree)
}

func (t *Thread) Compose() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state, t.parentId, t.notice = Composing, "", ""
}

func (t *Thread) Reply(parentId string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.tree.Find(parentId); !ok {
		return commentTree.ErrCommentNotFound
	}
	t.state, t.parentId, t.notice = ComposingReply, parentId, ""
	return nil
}

func (t *Thread) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state, t.parentId = Viewing, ""
}

// Submit posts body as a comment or reply depending on the state. A blank
// body never reaches the gateway. On failure the thread stays in its compose
// state so the text can be sent again.
func (t *Thread) Submit(ctx context.Context, body string) (models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return models.Comment{}, ErrEmptyBody
	}
	t.mu.Lock()
	state, parentId := t.state, t.parentId
	t.mu.Unlock()
	if state == Viewing {
		return models.Comment{}, ErrNotComposing
	}

	c, err := t.api.CreateComment(ctx, t.postId, parentId, body)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.notice = submitFailedNotice
		return models.Comment{}, err
	}
	var delta int
	if state == ComposingReply {
		delta = t.tree.AddReply(parentId, c)
	} else {
		delta = t.tree.AddRoot(c)
	}
	t.state, t.parentId, t.notice = Viewing, "", ""
	t.count(delta)
	return c, nil
}

// Delete removes a comment once the gateway confirmed it, together with
// every reply stored below it. The count change reported is the number of
// rows the gateway removed when it tells.
func (t *Thread) Delete(ctx context.Context, commentId string) error {
	res, err := t.api.DeleteComment(ctx, commentId)
	if err != nil {
		t.mu.Lock()
		t.notice = deleteFailedNotice
		t.mu.Unlock()
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	delta, err := t.tree.RemoveThread(commentId)
	if err != nil {
		return err
	}
	if res != nil && res.Removed > 0 {
		delta = -int(res.Removed)
	}
	// the reply target may have gone with it
	if t.state == ComposingReply {
		if _, ok := t.tree.Find(t.parentId); !ok {
			t.state, t.parentId = Viewing, ""
		}
	}
	t.notice = ""
	t.count(delta)
	return nil
}

func (t *Thread) count(delta int) {
	if t.onCount != nil && delta != 0 {
		t.onCount(delta)
	}
}
