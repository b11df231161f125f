package config

import (
	yaml3 "gopkg.in/yaml.v3"
	"sigs.k8s.io/kustomize/kyaml/yaml"
	"sigs.k8s.io/kustomize/kyaml/yaml/merge2"
	"sigs.k8s.io/kustomize/kyaml/yaml/walk"
)

// defaultConfig is a variable rather than a constant so that distributions can ship other defaults.
var defaultConfig = `
path: "."
url: ""
testsDir: "tests"
language: "auto"
debug: false
disableANSI: false
disableTele: false
record:
  pollInterval: 500ms
  drainGrace: 200ms
  waitDelay: 5s
  liveInsert: false
  insertInto: ""
  line: 0
bridge:
  scriptDir: ""
  locator: ""
check:
  probeTimeout: 5s
debugModules: {}
`

func GetDefaultConfig() string {
	return defaultConfig
}

func SetDefaultConfig(cfgStr string) {
	defaultConfig = cfgStr
}

const InternalConfig = `
configPath: "."
`

// New returns the defaults merged with the internal config. It panics on malformed
// defaults, which can only come from a broken build.
func New() *Config {
	mergedConfig, err := Merge(defaultConfig, InternalConfig)
	if err != nil {
		panic(err)
	}
	config := &Config{}
	err = yaml3.Unmarshal([]byte(mergedConfig), config)
	if err != nil {
		panic(err)
	}
	return config
}

// Merge combines the two documents. Scalars set in srcStr take precedence over destStr.
func Merge(srcStr, destStr string) (string, error) {
	return mergeStrings(srcStr, destStr, false, yaml.MergeOptions{})
}

// Reference: https://github.com/kubernetes-sigs/kustomize/blob/537c4fa5c2bf3292b273876f50c62ce1c81714d7/kyaml/yaml/merge2/merge2.go#L24
// VisitKeysAsScalars is set to true to enable merging comments.
// infer is false to disable merging associative lists.
func mergeStrings(srcStr, destStr string, infer bool, mergeOptions yaml.MergeOptions) (string, error) {
	src, err := yaml.Parse(srcStr)
	if err != nil {
		return "", err
	}

	dest, err := yaml.Parse(destStr)
	if err != nil {
		return "", err
	}

	result, err := walk.Walker{
		Sources:               []*yaml.RNode{dest, src},
		Visitor:               merge2.Merger{},
		InferAssociativeLists: infer,
		VisitKeysAsScalars:    true,
		MergeOptions:          mergeOptions,
	}.Walk()
	if err != nil {
		return "", err
	}

	return result.String()
}

// Render marshals cfg back to YAML, used when generating a config file.
func Render(cfg *Config) (string, error) {
	out, err := yaml3.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
