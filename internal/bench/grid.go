package bench

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"malleableSched/internal/generate"
)

//go:embed schema.json
var gridSchema string

// Grid describes a batch of benchmark runs.
type Grid struct {
	Runs        int        `yaml:"runs"`
	BaseSeed    int64      `yaml:"base_seed"`
	Timeout     string     `yaml:"timeout"`
	Concurrency int        `yaml:"concurrency"`
	Compact     bool       `yaml:"compact"`
	Output      string     `yaml:"output"`
	Engines     []string   `yaml:"engines"`
	Cases       []CaseSpec `yaml:"cases"`
}

type CaseSpec struct {
	Name     string `yaml:"name"`
	Jobs     int    `yaml:"jobs"`
	Machines int    `yaml:"machines"`
	Omega    int    `yaml:"omega"`
	MinChain int    `yaml:"min_chain"`
	MaxChain int    `yaml:"max_chain"`
	MinTime  int    `yaml:"min_time"`
	MaxTime  int    `yaml:"max_time"`
	Concave  *bool  `yaml:"concave"`
	Seed     int64  `yaml:"seed"`
}

// Case fills generator defaults for omitted fields.
func (cs CaseSpec) Case(baseSeed int64) Case {
	def := generate.DefaultConfig()
	cfg := generate.Config{
		Jobs:     cs.Jobs,
		Machines: cs.Machines,
		MinTime:  orDefault(cs.MinTime, def.MinTime),
		MaxTime:  orDefault(cs.MaxTime, def.MaxTime),
		Omega:    cs.Omega,
		MinChain: orDefault(cs.MinChain, 1),
		MaxChain: orDefault(cs.MaxChain, cs.Jobs),
		Concave:  def.Concave,
	}
	if cs.Concave != nil {
		cfg.Concave = *cs.Concave
	}
	name := cs.Name
	if name == "" {
		name = fmt.Sprintf("n%d_m%d_w%d", cs.Jobs, cs.Machines, cs.Omega)
	}
	return Case{Name: name, Gen: cfg, InstanceSeed: baseSeed + cs.Seed}
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// ParseGrid decodes YAML, checks it against the embedded JSON schema and
// validates every case's generator settings.
func ParseGrid(data []byte) (*Grid, error) {
	schema, err := jsonschema.CompileString("grid.schema.json", gridSchema)
	if err != nil {
		return nil, err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	// the validator expects JSON shaped values
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	var doc any
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}

	var g Grid
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	if g.Concurrency == 0 {
		g.Concurrency = 1
	}
	if _, err := g.PerRunTimeout(); err != nil {
		return nil, err
	}
	for i, cs := range g.Cases {
		if err := cs.Case(g.BaseSeed).Gen.Validate(); err != nil {
			return nil, fmt.Errorf("grid: case %d: %w", i, err)
		}
	}
	return &g, nil
}

func LoadGrid(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseGrid(data)
}

// PerRunTimeout parses Timeout; empty means no timeout.
func (g *Grid) PerRunTimeout() (time.Duration, error) {
	if g.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(g.Timeout)
	if err != nil {
		return 0, fmt.Errorf("grid: timeout: %w", err)
	}
	return d, nil
}
