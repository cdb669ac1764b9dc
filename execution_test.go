package procbatch

import (
	"context"
	"fmt"
	"os"
	"path"
	"testing"
	"time"

	"github.com/procbatch/procbatch/model"
	"github.com/procbatch/procbatch/policy"
	"github.com/procbatch/procbatch/progress"
	"github.com/stretchr/testify/assert"
)

func TestRuntime_Drain(t *testing.T) {
	srv, err := New(2, "512M")
	if !assert.Nil(t, err) {
		return
	}
	rt := srv.Runtime()

	assert.Nil(t, rt.Add(NewJob("echo", "alpha").WithID("alpha").Memory("16M")))
	assert.Nil(t, rt.Add(NewJob("sh", "-c", "exit 2").WithID("beta").Memory("16M")))
	assert.Nil(t, rt.Add(NewJob("printf", "c\nb\na\n").Pipe("sort").WithID("gamma").Memory("16M")))

	result, err := rt.Drain(context.Background())
	assert.Nil(t, err)
	if !assert.NotNil(t, result) {
		return
	}
	assert.Equal(t, 3, result.TotalJobs)
	assert.Equal(t, 2, len(result.Completed))
	assert.Equal(t, 1, len(result.Failed))

	alpha, err := rt.Result(context.Background(), "alpha")
	assert.Nil(t, err)
	if assert.NotNil(t, alpha) {
		assert.True(t, alpha.Success)
		assert.Equal(t, "alpha\n", alpha.Stdout)
	}

	beta, _ := rt.Result(context.Background(), "beta")
	if assert.NotNil(t, beta) {
		assert.False(t, beta.Success)
		assert.Equal(t, model.ErrorKindExit, beta.Kind)
		assert.Equal(t, 2, beta.ExitCode)
	}

	gamma, _ := rt.Result(context.Background(), "gamma")
	if assert.NotNil(t, gamma) {
		assert.True(t, gamma.Success)
		assert.Equal(t, "a\nb\nc\n", gamma.Stdout)
	}
}

func TestRuntime_DrainWithProgress(t *testing.T) {
	srv, err := New(2, "512M")
	if !assert.Nil(t, err) {
		return
	}
	rt := srv.Runtime()
	for i := 0; i < 3; i++ {
		assert.Nil(t, rt.Add(NewJob("true").WithID(fmt.Sprintf("job-%d", i)).Memory("8M")))
	}

	var last progress.Tracker
	result, err := rt.DrainWithProgress(context.Background(), func(snapshot progress.Tracker) {
		last = snapshot
	})
	assert.Nil(t, err)
	assert.Equal(t, 3, len(result.Completed))
	assert.Equal(t, 3, last.TotalJobs)
	assert.Equal(t, 3, last.CompletedJobs)
}

func TestRuntime_Timeout(t *testing.T) {
	srv, err := New(2, "512M")
	if !assert.Nil(t, err) {
		return
	}
	rt := srv.Runtime()
	assert.Nil(t, rt.Add(NewJob("sleep", "30").WithID("napper").Memory("8M").WithTimeout(200*time.Millisecond)))

	started := time.Now()
	result, err := rt.Drain(context.Background())
	assert.Nil(t, err)
	assert.True(t, time.Since(started) < 10*time.Second)
	if assert.Equal(t, 1, len(result.Failed)) {
		assert.Equal(t, model.ErrorKindTimeout, result.Failed[0].Kind)
	}
}

func TestRuntime_Profile(t *testing.T) {
	srv, err := New(4, "512M")
	if !assert.Nil(t, err) {
		return
	}
	rt := srv.Runtime()
	assert.Nil(t, rt.Add(NewJob("sleep", "0.3").WithID("measured")))

	result, err := rt.Profile(context.Background())
	assert.Nil(t, err)
	if !assert.Equal(t, 1, len(result.Completed)) {
		return
	}
	assert.True(t, result.Completed[0].PeakMemory > 0)

	recommendations := Recommend(result)
	recommended, ok := recommendations["measured"]
	assert.True(t, ok)
	assert.True(t, recommended > result.Completed[0].PeakMemory)
}

func TestRuntime_LoadBatch(t *testing.T) {
	document := `
name: smoke
jobs:
  - cmd: [echo, one]
    id: one
    memory: 8M
  - cmd: [echo, two]
    id: two
    memory: 8M
`
	URL := path.Join(t.TempDir(), "batch.yaml")
	assert.Nil(t, os.WriteFile(URL, []byte(document), 0o644))

	srv, err := New(2, "512M")
	if !assert.Nil(t, err) {
		return
	}
	rt := srv.Runtime()
	loaded, err := rt.LoadBatch(context.Background(), URL)
	assert.Nil(t, err)
	if assert.NotNil(t, loaded) {
		assert.Equal(t, "smoke", loaded.Name)
	}

	result, err := rt.Drain(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, 2, len(result.Completed))
}

func TestRuntime_DefaultPolicy(t *testing.T) {
	srv, err := New(2, "512M", WithPolicy(&policy.Policy{Admission: policy.AdmissionStrictOrder}))
	if !assert.Nil(t, err) {
		return
	}
	rt := srv.Runtime()
	assert.Nil(t, rt.Add(NewJob("echo", "ordered").Memory("8M")))

	result, err := rt.Drain(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, 1, len(result.Completed))
}
