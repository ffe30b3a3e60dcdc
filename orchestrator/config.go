package orchestrator

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the optional per-repository configuration file.
const ConfigFileName = ".codedozer.yaml"

// StageModels selects the model per stage; empty means the runtime's
// default model.
type StageModels struct {
	Researcher    string `yaml:"researcher"`
	Planner       string `yaml:"planner"`
	DetailPlanner string `yaml:"detail_planner"`
	Coder         string `yaml:"coder"`
	Reviewer      string `yaml:"reviewer"`
}

// RepoConfig holds per-repository defaults from .codedozer.yaml.
type RepoConfig struct {
	Models       StageModels `yaml:"models"`
	DetailPlan   bool        `yaml:"detail_plan"`
	Review       bool        `yaml:"review"`
	ShowThinking bool        `yaml:"show_thinking"`
	ShowTools    bool        `yaml:"show_tools"`
}

// LoadRepoConfig loads .codedozer.yaml from a repository path.
// Returns a default config if the file doesn't exist; a malformed
// file is an error, reported at startup.
func LoadRepoConfig(repoPath string) (*RepoConfig, error) {
	configPath := filepath.Join(repoPath, ConfigFileName)

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return &RepoConfig{}, nil
	}
	if err != nil {
		return nil, err
	}

	var config RepoConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}
