package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the name of the repository config file inside the git directory
const FileName = "pstack.json"

// Config keys
const (
	KeyLogFile          = "log.file"
	KeyCommitterName    = "committer.name"
	KeyCommitterEmail   = "committer.email"
	KeyConflictPolicy   = "push.conflictPolicy"
	KeyUndoRequireClean = "undo.requireClean"
)

// ConflictPolicy decides what happens to the rest of a compound operation when
// one of its pushes conflicts
type ConflictPolicy string

const (
	// PolicyHold keeps the whole operation open until the conflict is resolved or aborted
	PolicyHold ConflictPolicy = "hold"
	// PolicyStop commits the patches that applied cleanly and leaves the rest unapplied
	PolicyStop ConflictPolicy = "stop"
)

// RepoConfig is the on-disk form of the repository configuration
type RepoConfig struct {
	Log       *LogConfig       `json:"log,omitempty"`
	Committer *CommitterConfig `json:"committer,omitempty"`
	Push      *PushConfig      `json:"push,omitempty"`
	Undo      *UndoConfig      `json:"undo,omitempty"`
}

// LogConfig configures the log file
type LogConfig struct {
	File string `json:"file,omitempty"`
}

// CommitterConfig overrides the identity recorded on rewritten commits
type CommitterConfig struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// PushConfig configures push behavior
type PushConfig struct {
	ConflictPolicy ConflictPolicy `json:"conflictPolicy,omitempty"`
}

// UndoConfig configures undo and redo
type UndoConfig struct {
	RequireClean *bool `json:"requireClean,omitempty"`
}

// Settings are the resolved configuration values
type Settings struct {
	LogFile          string
	CommitterName    string
	CommitterEmail   string
	ConflictPolicy   ConflictPolicy
	UndoRequireClean bool
}

// DefaultLogFile returns ~/.pstack/logs/pstack.log
func DefaultLogFile() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "pstack.log"
	}
	return filepath.Join(homeDir, ".pstack", "logs", "pstack.log")
}

// NewViper returns a viper instance with pstack defaults, PSTACK_ environment
// overrides and the config file search path set up. PSTACK_CONFIG names an
// explicit config file, which then must exist.
func NewViper(gitDir string) *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("PSTACK")
	v.AutomaticEnv()

	v.SetDefault(KeyLogFile, DefaultLogFile())
	v.SetDefault(KeyCommitterName, "")
	v.SetDefault(KeyCommitterEmail, "")
	v.SetDefault(KeyConflictPolicy, string(PolicyHold))
	v.SetDefault(KeyUndoRequireClean, true)

	v.SetConfigType("json")
	if explicit := os.Getenv("PSTACK_CONFIG"); explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		if gitDir != "" {
			v.AddConfigPath(gitDir)
		}
	}
	return v
}

// BindFlags binds command-line flags to config keys. Flags that are absent
// from the set are skipped.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for flagName, key := range keys {
		f := flags.Lookup(flagName)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flagName, err)
		}
	}
	return nil
}

// Load reads the config file, if any, and resolves the settings
func Load(v *viper.Viper) (*Settings, error) {
	if err := v.ReadInConfig(); err != nil {
		// A missing file is only fine when it was searched for, not named explicitly
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || v.ConfigFileUsed() != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	settings := &Settings{
		LogFile:          v.GetString(KeyLogFile),
		CommitterName:    v.GetString(KeyCommitterName),
		CommitterEmail:   v.GetString(KeyCommitterEmail),
		ConflictPolicy:   ConflictPolicy(strings.ToLower(v.GetString(KeyConflictPolicy))),
		UndoRequireClean: v.GetBool(KeyUndoRequireClean),
	}
	switch settings.ConflictPolicy {
	case PolicyHold, PolicyStop:
	default:
		return nil, fmt.Errorf("invalid %s %q: must be %q or %q", KeyConflictPolicy, settings.ConflictPolicy, PolicyHold, PolicyStop)
	}
	return settings, nil
}

// LoadRepo loads the settings for the repository with the given git directory
func LoadRepo(gitDir string) (*Settings, error) {
	return Load(NewViper(gitDir))
}

// GetRepoConfig reads the raw repository config file
func GetRepoConfig(gitDir string) (*RepoConfig, error) {
	data, err := os.ReadFile(filepath.Join(gitDir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &RepoConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read repo config: %w", err)
	}

	var config RepoConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse repo config: %w", err)
	}
	return &config, nil
}

// SaveRepoConfig writes the repository config file
func SaveRepoConfig(gitDir string, config *RepoConfig) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal repo config: %w", err)
	}
	return os.WriteFile(filepath.Join(gitDir, FileName), append(data, '\n'), 0600)
}

// SetConflictPolicy records the conflict policy in the repository config file
func SetConflictPolicy(gitDir string, policy ConflictPolicy) error {
	if policy != PolicyHold && policy != PolicyStop {
		return fmt.Errorf("invalid conflict policy %q", policy)
	}
	config, err := GetRepoConfig(gitDir)
	if err != nil {
		return err
	}
	config.Push = &PushConfig{ConflictPolicy: policy}
	return SaveRepoConfig(gitDir, config)
}
