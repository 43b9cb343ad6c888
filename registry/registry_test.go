package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/mvccpb"
	etcd "go.etcd.io/etcd/client/v3"
)

type fakeKV struct {
	kvs     []*mvccpb.KeyValue
	err     error
	lastKey string
}

func (f *fakeKV) Get(ctx context.Context, key string, opts ...etcd.OpOption) (*etcd.GetResponse, error) {
	f.lastKey = key
	if f.err != nil {
		return nil, f.err
	}
	return &etcd.GetResponse{Kvs: f.kvs}, nil
}

func TestResolve(t *testing.T) {
	kv := &fakeKV{kvs: []*mvccpb.KeyValue{
		{Key: []byte("/services/post_service/a"), Value: []byte("10.0.0.1:50051")},
		{Key: []byte("/services/post_service/b"), Value: []byte("")},
		{Key: []byte("/services/post_service/c"), Value: []byte("10.0.0.2:50051")},
	}}

	addrs, err := Resolve(context.Background(), kv, "post_service")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1:50051", "10.0.0.2:50051"}, addrs)
	assert.Equal(t, "/services/post_service/", kv.lastKey)
}

func TestResolveEmpty(t *testing.T) {
	_, err := Resolve(context.Background(), &fakeKV{}, "feed_service")
	assert.ErrorIs(t, err, ErrNoInstances)
}

func TestResolveError(t *testing.T) {
	boom := errors.New("etcd down")
	_, err := Resolve(context.Background(), &fakeKV{err: boom}, "feed_service")
	assert.ErrorIs(t, err, boom)
}

func TestParseKey(t *testing.T) {
	svc, id, ok := ParseKey("/services/feed_service/1f0c")
	assert.True(t, ok)
	assert.Equal(t, "feed_service", svc)
	assert.Equal(t, "1f0c", id)

	for _, key := range []string{"/services/feed_service", "/services//x", "/other/feed_service/1", "/services/feed_service/"} {
		_, _, ok := ParseKey(key)
		assert.False(t, ok, key)
	}
}
