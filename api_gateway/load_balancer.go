package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	etcd "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/roweshkalloe/qualogy-ai-connect/registry"
)

/*
   Instances of a service are picked round robin. All instances of a
   service are identical so plain round robin is enough.
*/

var errNoInstance = errors.New("no healthy instance for this service now")

// connSource hands out a connection to some instance of a service.
type connSource interface {
	ServiceConn(service string) (grpc.ClientConnInterface, error)
}

type LoadBalancer struct {
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	balancers map[string]*RoundRobin
	client    *etcd.Client
}

type RoundRobin struct {
	mu    sync.RWMutex
	idx   atomic.Uint32
	conns []*instance
}

type instance struct {
	conn *grpc.ClientConn
	ID   string
}

func newLoadBalancer() *LoadBalancer {
	ctx, cancel := context.WithCancel(context.Background())
	return &LoadBalancer{ctx: ctx, cancel: cancel, balancers: make(map[string]*RoundRobin)}
}

// NewStaticLoadBalancer serves the instances listed in the config file.
func NewStaticLoadBalancer(services map[string][]string) *LoadBalancer {
	lb := newLoadBalancer()
	for name, addrs := range services {
		if len(addrs) == 0 {
			log.Printf("Warning: No instances configured for service %s", name)
		}
		for _, addr := range addrs {
			lb.balancer(name).update(addr, addr)
		}
	}
	return lb
}

// NewLoadBalancer follows the instances registered in etcd.
func NewLoadBalancer(endpoints string) (*LoadBalancer, error) {
	client, err := registry.NewClient(endpoints)
	if err != nil {
		return nil, fmt.Errorf("Error in intiallizing etcd Client: %w", err)
	}
	lb := newLoadBalancer()
	lb.client = client
	lb.wg.Add(1)
	go func() {
		defer lb.wg.Done()
		lb.watch(registry.Root())
	}()
	return lb, nil
}

func (lb *LoadBalancer) balancer(service string) *RoundRobin {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	rr, ok := lb.balancers[service]
	if !ok {
		rr = &RoundRobin{}
		lb.balancers[service] = rr
	}
	return rr
}

func (lb *LoadBalancer) watch(prefix string) {
	watchChan := lb.client.Watch(lb.ctx, prefix, etcd.WithPrefix())
	resp, err := lb.client.Get(lb.ctx, prefix, etcd.WithPrefix())
	if err != nil {
		log.Printf("Error in getting previous Keys in registery if any: %v", err)
	}
	if resp != nil {
		for _, kv := range resp.Kvs {
			if service, id, ok := registry.ParseKey(string(kv.Key)); ok {
				lb.balancer(service).update(string(kv.Value), id)
			}
		}
	}
	for watchRes := range watchChan {
		if watchRes.Canceled {
			log.Printf("Etcd Watcher Failed: %v", watchRes.Err())
			break
		}
		if err := watchRes.Err(); err != nil {
			log.Printf("watch error: %v", err)
			continue
		}
		for _, ev := range watchRes.Events {
			service, id, ok := registry.ParseKey(string(ev.Kv.Key))
			if !ok {
				continue
			}
			switch ev.Type {
			case etcd.EventTypePut:
				log.Printf("PUT %s/%s = %s", service, id, ev.Kv.Value)
				lb.balancer(service).update(string(ev.Kv.Value), id)
			case etcd.EventTypeDelete:
				log.Printf("DELETE instance %s in Service %s", id, service)
				lb.balancer(service).delete(id)
			}
		}
	}
}

// ServiceConn fails with codes.Unavailable so callers can treat a missing
// instance like an unreachable one.
func (lb *LoadBalancer) ServiceConn(service string) (grpc.ClientConnInterface, error) {
	lb.mu.RLock()
	rr, ok := lb.balancers[service]
	lb.mu.RUnlock()
	if !ok {
		return nil, status.Errorf(codes.Unavailable, "%s: %v", service, errNoInstance)
	}
	conn, err := rr.ServiceConn()
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "%s: %v", service, err)
	}
	return conn, nil
}

func (lb *LoadBalancer) close() {
	lb.cancel()
	if lb.client != nil {
		lb.client.Close()
	}
	lb.wg.Wait()
	lb.mu.Lock()
	defer lb.mu.Unlock()
	for _, rr := range lb.balancers {
		rr.close()
	}
}

func (r *RoundRobin) update(serviceURL string, ID string) {
	conn, err := grpc.NewClient(serviceURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		log.Printf("error connecting to url: %s, err: %v", serviceURL, err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// a re-put of a known instance replaces its connection
	for i, inst := range r.conns {
		if inst.ID == ID {
			inst.conn.Close()
			r.conns[i] = &instance{conn: conn, ID: ID}
			return
		}
	}
	r.conns = append(r.conns, &instance{conn: conn, ID: ID})
	log.Printf("New Instance Added: %v %v", serviceURL, ID)
}

func (r *RoundRobin) delete(ID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, inst := range r.conns {
		if inst.ID == ID {
			inst.conn.Close()
			r.conns[i] = r.conns[len(r.conns)-1]
			r.conns = r.conns[:len(r.conns)-1]
			return
		}
	}
	log.Printf("%v not found", ID)
}

func (r *RoundRobin) ServiceConn() (*grpc.ClientConn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.conns) == 0 {
		return nil, errNoInstance
	}
	idx := r.idx.Add(1) % uint32(len(r.conns))
	return r.conns[idx].conn, nil
}

func (r *RoundRobin) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *RoundRobin) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inst := range r.conns {
		inst.conn.Close()
	}
	r.conns = nil
}
