// Package registry announces service instances in etcd and lets callers
// find them again. Instances live under /services/<name>/<uuid> and are
// bound to a lease, so a crashed instance disappears once the lease expires.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	etcd "go.etcd.io/etcd/client/v3"
)

const (
	prefix     = "/services/"
	DefaultTTL = 5 // seconds
)

var ErrNoInstances = errors.New("no registered instances")

func Prefix(service string) string {
	return prefix + service + "/"
}

// Root is the prefix every instance key lives under.
func Root() string {
	return prefix
}

// ParseKey splits an instance key into its service name and instance id.
func ParseKey(key string) (service, id string, ok bool) {
	rest, found := strings.CutPrefix(key, prefix)
	if !found {
		return "", "", false
	}
	service, id, ok = strings.Cut(rest, "/")
	return service, id, ok && service != "" && id != ""
}

func NewClient(endpoints string) (*etcd.Client, error) {
	eps := strings.Split(endpoints, ",")
	return etcd.New(etcd.Config{Endpoints: eps, DialTimeout: 5 * time.Second})
}

type Registration struct {
	client  *etcd.Client
	key     string
	leaseID etcd.LeaseID
	cancel  context.CancelFunc
}

// Register puts addr under a fresh instance key and keeps the lease alive
// until ctx is cancelled or Close is called.
func Register(ctx context.Context, client *etcd.Client, service, addr string) (*Registration, error) {
	lease, err := client.Grant(ctx, DefaultTTL)
	if err != nil {
		log.Printf("Error in Creating Lease to instance of %v: %v", service, err)
		return nil, err
	}
	key := Prefix(service) + uuid.New().String()
	if _, err := client.Put(ctx, key, addr, etcd.WithLease(lease.ID)); err != nil {
		log.Printf("Error in Register instance of %v: %v", service, err)
		return nil, err
	}

	kaCtx, cancel := context.WithCancel(ctx)
	ch, err := client.KeepAlive(kaCtx, lease.ID)
	if err != nil {
		cancel()
		return nil, err
	}
	// responses must be drained or the client logs a full channel
	go func() {
		for range ch {
		}
		log.Printf("Lease of %v ended", key)
	}()

	log.Printf("Registered %v at %v", key, addr)
	return &Registration{client: client, key: key, leaseID: lease.ID, cancel: cancel}, nil
}

// Close removes the instance right away instead of waiting for the lease.
func (r *Registration) Close(ctx context.Context) error {
	r.cancel()
	if _, err := r.client.Revoke(ctx, r.leaseID); err != nil {
		return fmt.Errorf("revoke lease of %v: %w", r.key, err)
	}
	return nil
}

type Getter interface {
	Get(ctx context.Context, key string, opts ...etcd.OpOption) (*etcd.GetResponse, error)
}

// Resolve lists the addresses registered for service, sorted by key.
func Resolve(ctx context.Context, kv Getter, service string) ([]string, error) {
	res, err := kv.Get(ctx, Prefix(service), etcd.WithPrefix(), etcd.WithSort(etcd.SortByKey, etcd.SortAscend))
	if err != nil {
		return nil, err
	}
	addrs := make([]string, 0, len(res.Kvs))
	for _, kv := range res.Kvs {
		if len(kv.Value) == 0 {
			continue
		}
		addrs = append(addrs, string(kv.Value))
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w for %v", ErrNoInstances, service)
	}
	return addrs, nil
}
