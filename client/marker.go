package client

import (
	"context"
	"errors"
	"sync"

	pb "github.com/roweshkalloe/qualogy-ai-connect/bindings"
)

var ErrPending = errors.New("a change of this marker is still pending")

type TxState int

const (
	Pending TxState = iota
	Confirmed
	Rejected
)

func (s TxState) String() string {
	switch s {
	case Confirmed:
		return "confirmed"
	case Rejected:
		return "rejected"
	}
	return "pending"
}

// Marker is the displayed state of a like or favorite toggle with its count.
// A toggle shows its result right away; the Transaction it opens decides
// whether the shown value stays.
type Marker struct {
	mu      sync.Mutex
	on      bool
	count   int64
	pending *Transaction
}

func NewMarker(on bool, count int64) *Marker {
	return &Marker{on: on, count: max(count, 0)}
}

func (m *Marker) State() (on bool, count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.on, m.count
}

type Transaction struct {
	m         *Marker
	prevOn    bool
	prevCount int64
	state     TxState
}

// Toggle flips the marker and adjusts the count by one. Only one
// transaction may be open per marker.
func (m *Marker) Toggle() (*Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending != nil {
		return nil, ErrPending
	}
	tx := &Transaction{m: m, prevOn: m.on, prevCount: m.count}
	m.on = !m.on
	if m.on {
		m.count++
	} else {
		m.count = max(m.count-1, 0)
	}
	m.pending = tx
	return tx, nil
}

// Resolve confirms the transaction when err is nil and otherwise rolls the
// marker back to what it showed before the toggle. Resolving twice is a
// no-op.
func (tx *Transaction) Resolve(err error) TxState {
	return tx.resolve(err, -1)
}

// Confirm is Resolve(nil) that also adopts the count the server reported.
func (tx *Transaction) Confirm(count int64) TxState {
	return tx.resolve(nil, count)
}

func (tx *Transaction) resolve(err error, count int64) TxState {
	m := tx.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.state != Pending {
		return tx.state
	}
	if err != nil {
		m.on, m.count = tx.prevOn, tx.prevCount
		tx.state = Rejected
	} else {
		if count >= 0 {
			m.count = count
		}
		tx.state = Confirmed
	}
	m.pending = nil
	return tx.state
}

func (tx *Transaction) State() TxState {
	tx.m.mu.Lock()
	defer tx.m.mu.Unlock()
	return tx.state
}

// ToggleLike toggles m and sends the matching like or unlike.
func (c *Client) ToggleLike(ctx context.Context, postId string, m *Marker) (TxState, error) {
	return c.toggle(ctx, m, func(on bool) (*pb.MarkerResponse, error) {
		if on {
			return c.Like(ctx, postId)
		}
		return c.Unlike(ctx, postId)
	})
}

// ToggleFavorite toggles m and sends the matching favorite or unfavorite.
func (c *Client) ToggleFavorite(ctx context.Context, postId string, m *Marker) (TxState, error) {
	return c.toggle(ctx, m, func(on bool) (*pb.MarkerResponse, error) {
		if on {
			return c.Favorite(ctx, postId)
		}
		return c.Unfavorite(ctx, postId)
	})
}

func (c *Client) toggle(ctx context.Context, m *Marker, send func(on bool) (*pb.MarkerResponse, error)) (TxState, error) {
	tx, err := m.Toggle()
	if err != nil {
		return Pending, err
	}
	on, _ := m.State()
	res, err := send(on)
	if err != nil {
		return tx.Resolve(err), err
	}
	return tx.Confirm(res.Count), nil
}
