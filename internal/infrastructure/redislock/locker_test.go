package redislock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLocker_LockYUnlock(t *testing.T) {
	mr, client := setupTestRedis(t)
	l := New(client, time.Minute)

	unlock, err := l.Lock(context.Background(), "fiscal:series:t1:A")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:fiscal:series:t1:A"))
	assert.Equal(t, time.Minute, mr.TTL("lock:fiscal:series:t1:A"))

	unlock()
	assert.False(t, mr.Exists("lock:fiscal:series:t1:A"))
}

func TestLocker_SegundoLockEspera(t *testing.T) {
	_, client := setupTestRedis(t)
	l := New(client, time.Minute)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	again, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	again()
}

func TestLocker_NoBorraLockAjeno(t *testing.T) {
	mr, client := setupTestRedis(t)
	l := New(client, time.Second)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	// El TTL vence y otro proceso toma el lock.
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("lock:k", "otro-token"))

	unlock()
	v, err := mr.Get("lock:k")
	require.NoError(t, err)
	assert.Equal(t, "otro-token", v)
}

func TestLocker_UnlockConcurrenteEsIdempotente(t *testing.T) {
	mr, client := setupTestRedis(t)
	l := New(client, time.Minute)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock()
		}()
	}
	wg.Wait()
	assert.False(t, mr.Exists("lock:k"))

	again, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
	assert.True(t, mr.Exists("lock:k"), "un unlock repetido no toca el lock nuevo")
	again()
}

func TestLocker_SerializaConcurrentes(t *testing.T) {
	_, client := setupTestRedis(t)
	l := New(client, time.Minute)

	var mu sync.Mutex
	inside, maxInside := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "k")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()
			time.Sleep(2 * time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxInside)
}
