package xconf

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	path := writeFile(t, "config.yaml", yamlContent)
	cfg, err := New(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan error, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, cfg, func(_ Config, err error) {
			select {
			case reloaded <- err:
			default:
			}
		}, WithDebounce(20*time.Millisecond))
	}()

	// 等待监视器注册，重复写入直到收到回调
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600)
		select {
		case err := <-reloaded:
			return err == nil && cfg.Client().String("log.level") == "warn"
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchReportsReloadFailure(t *testing.T) {
	path := writeFile(t, "config.json", jsonContent)
	cfg, err := New(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan error, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, cfg, func(_ Config, err error) {
			select {
			case reloaded <- err:
			default:
			}
		}, WithDebounce(10*time.Millisecond))
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("{"), 0o600)
		select {
		case err := <-reloaded:
			return err != nil
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, cfg.Client().Int("pool.workers"))
	cancel()
	<-done
}

func TestWatchErrors(t *testing.T) {
	cfg, err := NewFromBytes([]byte(yamlContent), FormatYAML)
	require.NoError(t, err)

	//nolint:staticcheck // 验证 nil ctx
	assert.ErrorIs(t, Watch(nil, cfg, nil), ErrNilContext)
	assert.ErrorIs(t, Watch(context.Background(), cfg, nil), ErrNotFileBacked)
	assert.ErrorIs(t, Watch(context.Background(), nil, nil), ErrNotFileBacked)
}

func TestWatchReturnsOnCancelledContext(t *testing.T) {
	cfg, err := New(writeFile(t, "config.yaml", yamlContent))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, Watch(ctx, cfg, nil))
}
