package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Job describes a training job.
type Job struct {
	Name       string  `json:"name" yaml:"name"`
	Model      string  `json:"model" yaml:"model"`
	N          int     `json:"n" yaml:"n"`
	D          int     `json:"d" yaml:"d"`
	K          int     `json:"k" yaml:"k"`
	Iterations int     `json:"iterations" yaml:"iterations"`
	Partitions int     `json:"partitions" yaml:"partitions"`
	Seed       int64   `json:"seed" yaml:"seed"`
	Lambda     float64 `json:"lambda" yaml:"lambda"`
	Input      string  `json:"input" yaml:"input"`
	Out        string  `json:"out" yaml:"out"`
}

// Load decodes the config file into v, as yaml for '.yaml' and '.yml' files and as json otherwise.
func Load(file string, v interface{}) error {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return fmt.Errorf("could not read config '%s': %w", file, err)
	}
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, v)
	default:
		err = json.Unmarshal(b, v)
	}
	if err != nil {
		return fmt.Errorf("could not decode config '%s': %w", file, err)
	}
	log.Info().Str("file", file).Msg("loaded config")
	return nil
}
