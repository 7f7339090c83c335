package valkey

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_KeyAndBytes(t *testing.T) {
	vk, err := NewClient(Config{Address: "localhost:6379", KeyPrefix: "engage-test", ConnectTimeout: 500 * time.Millisecond})
	if err != nil {
		t.Skip("No valkey")
	}
	defer vk.Close()

	assert.Equal(t, "engage-test", vk.Key())
	assert.Equal(t, "engage-test:blacklist:acc", vk.Key("blacklist", "acc"))

	ctx := context.Background()
	key := vk.Key("bytes_check")
	_ = vk.Inner().Do(ctx, vk.Inner().B().Del().Key(key).Build())

	missing, err := vk.GetBytes(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, vk.SetBytes(ctx, key, []byte(`[1,2]`)))
	got, err := vk.GetBytes(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got))
}
