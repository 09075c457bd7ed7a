package ledger

import (
	"context"
	"hash/fnv"

	"maplecase/pkg/domain"
)

const lockShards = 64

// ShardedLocker serializes case writers in-process. Cases hash onto a
// fixed set of mutexes, so unrelated cases rarely contend and the lock
// table never grows.
type ShardedLocker struct {
	shards [lockShards]chan struct{}
}

// NewShardedLocker returns a locker with free shards.
func NewShardedLocker() *ShardedLocker {
	l := &ShardedLocker{}
	for i := range l.shards {
		l.shards[i] = make(chan struct{}, 1)
	}
	return l
}

// Lock acquires the shard for the case, respecting context cancellation.
// The returned function releases the shard.
func (l *ShardedLocker) Lock(ctx context.Context, caseID domain.CaseID) (func(), error) {
	shard := l.shards[shardIndex(caseID)]
	select {
	case shard <- struct{}{}:
		return func() { <-shard }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func shardIndex(caseID domain.CaseID) int {
	h := fnv.New32a()
	h.Write([]byte(caseID.String()))
	return int(h.Sum32() % lockShards)
}
