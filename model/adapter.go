package model

import (
	"fmt"
	"time"

	"github.com/viant/toolbox"
)

// FromMap builds a JobSpec from a loosely typed dictionary, the shape a
// caller gets from decoded JSON/YAML or an embedding host language. The
// recognised keys mirror the builder: cmd, pipeline, id, cpu (alias p),
// memory (alias m), dir (alias cwd), env, timeout, stdout, stderr.
func FromMap(values map[string]interface{}) (*JobSpec, error) {
	job := &Job{}
	for key, value := range values {
		if value == nil {
			continue
		}
		switch key {
		case "cmd":
			cmd, err := asCommand(value)
			if err != nil {
				return nil, fmt.Errorf("invalid cmd: %w", err)
			}
			job.cmd = cmd
		case "pipeline":
			stages, ok := value.([]interface{})
			if !ok {
				return nil, fmt.Errorf("invalid pipeline: expected list of stages, got %T", value)
			}
			for _, stage := range stages {
				cmd, err := asCommand(stage)
				if err != nil {
					return nil, fmt.Errorf("invalid pipeline stage: %w", err)
				}
				job.pipeline = append(job.pipeline, cmd)
			}
		case "id":
			job.id = toolbox.AsString(value)
		case "cpu", "p":
			job.cpu = value
		case "memory", "m":
			job.memory = value
		case "dir", "cwd":
			job.dir = toolbox.AsString(value)
		case "env":
			env, err := asEnv(value)
			if err != nil {
				return nil, err
			}
			job.env = env
		case "timeout":
			timeout, err := asTimeout(value)
			if err != nil {
				return nil, err
			}
			job.timeout = timeout
		case "stdout":
			job.stdout = toolbox.AsString(value)
		case "stderr":
			job.stderr = toolbox.AsString(value)
		default:
			return nil, fmt.Errorf("unknown job key %q", key)
		}
	}
	return job.Spec()
}

func asCommand(value interface{}) ([]string, error) {
	switch actual := value.(type) {
	case []string:
		return actual, nil
	case []interface{}:
		cmd := make([]string, 0, len(actual))
		for _, item := range actual {
			cmd = append(cmd, toolbox.AsString(item))
		}
		return cmd, nil
	}
	return nil, fmt.Errorf("expected list of strings, got %T", value)
}

func asEnv(value interface{}) (map[string]string, error) {
	switch actual := value.(type) {
	case map[string]string:
		return actual, nil
	case map[string]interface{}:
		env := make(map[string]string, len(actual))
		for k, v := range actual {
			env[k] = toolbox.AsString(v)
		}
		return env, nil
	case map[interface{}]interface{}:
		env := make(map[string]string, len(actual))
		for k, v := range actual {
			env[toolbox.AsString(k)] = toolbox.AsString(v)
		}
		return env, nil
	}
	return nil, fmt.Errorf("invalid env: expected string map, got %T", value)
}

// asTimeout accepts a duration string ("90s", "5m") or a plain number of
// seconds.
func asTimeout(value interface{}) (time.Duration, error) {
	switch actual := value.(type) {
	case string:
		timeout, err := time.ParseDuration(actual)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout %q: %w", actual, err)
		}
		return timeout, nil
	case int, int32, int64, float64:
		return time.Duration(toolbox.AsFloat(value) * float64(time.Second)), nil
	case time.Duration:
		return actual, nil
	}
	return 0, fmt.Errorf("invalid timeout: unsupported type %T", value)
}
