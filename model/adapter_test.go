package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromMap(t *testing.T) {
	testCases := []struct {
		name      string
		input     map[string]interface{}
		expect    *JobSpec
		expectErr bool
	}{
		{
			name: "short keys",
			input: map[string]interface{}{
				"cmd": []interface{}{"bwa", "mem", "ref.fa"},
				"p":   2,
				"m":   "4G",
				"id":  "align",
			},
			expect: &JobSpec{ID: "align", Cmd: []string{"bwa", "mem", "ref.fa"}, CPU: 2, Memory: 4_000_000_000},
		},
		{
			name: "long keys with env and timeout",
			input: map[string]interface{}{
				"cmd":     []string{"sleep", "1"},
				"cpu":     "1",
				"memory":  1024,
				"cwd":     "/work",
				"env":     map[string]interface{}{"THREADS": 4},
				"timeout": "90s",
			},
			expect: &JobSpec{
				Cmd: []string{"sleep", "1"}, CPU: 1, Memory: 1024,
				Dir: "/work", Env: map[string]string{"THREADS": "4"}, Timeout: 90 * time.Second,
			},
		},
		{
			name: "numeric timeout in seconds",
			input: map[string]interface{}{
				"cmd":     []string{"true"},
				"timeout": 2.5,
			},
			expect: &JobSpec{Cmd: []string{"true"}, CPU: 1, Memory: MemoryUnlimited, Timeout: 2500 * time.Millisecond},
		},
		{
			name: "pipeline",
			input: map[string]interface{}{
				"pipeline": []interface{}{
					[]interface{}{"zcat", "reads.gz"},
					[]interface{}{"head", "-100"},
				},
			},
			expect: &JobSpec{
				Pipeline: [][]string{{"zcat", "reads.gz"}, {"head", "-100"}},
				CPU:      1, Memory: MemoryUnlimited,
			},
		},
		{
			name:      "unknown key",
			input:     map[string]interface{}{"cmd": []string{"true"}, "priority": 3},
			expectErr: true,
		},
		{
			name:      "missing command",
			input:     map[string]interface{}{"p": 1},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := FromMap(tc.input)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.EqualValues(t, tc.expect, actual)
		})
	}
}
