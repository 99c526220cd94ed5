package extension

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tokensale/store/memory"
)

func TestMergeConfigurations(t *testing.T) {
	yaml := Config{Address: "0x00000000000000000000000000000000000000aa"}
	prog := Config{
		DisableMigrate: true,
		Address:        "0x00000000000000000000000000000000000000bb",
		Owner:          "0x0000000000000000000000000000000000000001",
		PluginTimeout:  time.Second,
	}

	got := mergeConfigurations(yaml, prog)
	assert.True(t, got.DisableMigrate)
	assert.Equal(t, yaml.Address, got.Address)
	assert.Equal(t, prog.Owner, got.Owner)
	assert.Equal(t, DriverMemory, got.Driver)
	assert.Equal(t, time.Second, got.PluginTimeout)
}

func TestMergeWithDefaults(t *testing.T) {
	got := mergeWithDefaults(Config{})
	assert.Equal(t, DefaultConfig(), got)

	got = mergeWithDefaults(Config{Driver: DriverPostgres, PluginTimeout: time.Minute})
	assert.Equal(t, DriverPostgres, got.Driver)
	assert.Equal(t, time.Minute, got.PluginTimeout)
}

func TestBuildStore(t *testing.T) {
	s, err := buildStore("", nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)

	s, err = buildStore(" Memory ", nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)

	for _, d := range []string{DriverPostgres, DriverSQLite, DriverMongo} {
		_, err = buildStore(d, nil)
		assert.Error(t, err, d)
	}
}

func TestBuildEngine(t *testing.T) {
	owner := "0x0000000000000000000000000000000000000001"
	addr := "0x5a1e00000000000000000000000000000000005a"

	e := New(WithAddress(addr), WithOwner(owner), WithDisableMigrate())
	e.config = mergeWithDefaults(e.config)
	require.NoError(t, e.build())

	l := e.Engine()
	require.NotNil(t, l)
	assert.Equal(t, common.HexToAddress(addr), l.Address())
	assert.Equal(t, common.HexToAddress(owner), l.Owner())

	bad := New(WithAddress("not-an-address"))
	bad.config = mergeWithDefaults(bad.config)
	assert.Error(t, bad.build())
}
