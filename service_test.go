package procbatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	srv, err := New(4, "1G")
	assert.Nil(t, err)
	cpu, memory := srv.Capacity()
	assert.Equal(t, 4, cpu)
	assert.EqualValues(t, 1_000_000_000, memory)
	assert.NotNil(t, srv.Runtime())
}

func TestNew_AutoDetect(t *testing.T) {
	srv, err := New(nil, nil)
	assert.Nil(t, err)
	cpu, memory := srv.Capacity()
	assert.True(t, cpu >= 1)
	assert.True(t, memory > 0)

	srv, err = New("auto", "auto")
	assert.Nil(t, err)
	autoCPU, _ := srv.Capacity()
	assert.Equal(t, cpu, autoCPU)
}

func TestNew_InvalidCapacity(t *testing.T) {
	_, err := New(0, "1G")
	assert.NotNil(t, err)

	_, err = New(4, "unlimited")
	assert.NotNil(t, err)

	_, err = New(4, "not a size")
	assert.NotNil(t, err)
}

func TestNew_ConfigValidation(t *testing.T) {
	config := DefaultConfig()
	config.Scheduler.PollInterval = -time.Second
	_, err := New(4, "1G", WithConfig(config))
	assert.NotNil(t, err)
}

func TestConfig_Defaults(t *testing.T) {
	config := DefaultConfig()
	assert.Nil(t, config.Validate())
	assert.True(t, config.Scheduler.PollInterval > 0)
	assert.True(t, config.Scheduler.SamplingInterval > 0)

	var nilConfig *Config
	assert.Nil(t, nilConfig.Validate())
}
