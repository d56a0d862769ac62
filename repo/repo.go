package repo

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	rootPathEnvVar = "GOVERNOR_PATH"

	envPrefix = "GOVERNOR"

	cfgFileName = "governor.toml"

	defaultRepoRoot = "~/.governor"

	LogsDirName = "logs"

	StorageDirName = "leveldb"

	GovernorContractAddr = "0x0000000000000000000000000000000000001001"

	TokenContractAddr = "0x00000000000000000000000000000000000e2c20"

	DefaultChairAddr = "0xc7f999b83af6df9e67d0a37ee7e900bf38b3d013"
)

type Repo struct {
	Config *Config
}

// Exist reports whether anything is present at path.
func Exist(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !os.IsNotExist(err)
}

// Load reads the config under repoRoot, writing the default one first when the repo is new.
// Environment variables prefixed with GOVERNOR_ override file values.
func Load(repoRoot string) (*Repo, error) {
	rootPath, err := LoadRepoRootFromEnv(repoRoot)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig(rootPath)
	cfgPath := filepath.Join(rootPath, cfgFileName)

	if Exist(cfgPath) {
		if err := CheckWritable(rootPath); err != nil {
			return nil, err
		}
		if err := readConfigFromFile(cfgPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "read %s", cfgPath)
		}
	} else {
		if err := os.MkdirAll(rootPath, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create repo root")
		}
		if err := writeConfigWithEnv(cfgPath, cfg); err != nil {
			return nil, errors.Wrap(err, "failed to build default config")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Repo{Config: cfg}, nil
}

func (r *Repo) Flush() error {
	if err := writeConfigWithEnv(filepath.Join(r.Config.RepoRoot, cfgFileName), r.Config); err != nil {
		return errors.Wrap(err, "failed to write config")
	}
	return nil
}

// writeConfigWithEnv persists config after letting the environment override it.
func writeConfigWithEnv(cfgPath string, config any) error {
	if err := writeConfig(cfgPath, config); err != nil {
		return err
	}
	if err := readConfigFromFile(cfgPath, config); err != nil {
		return errors.Wrap(err, "failed to read cfg from environment")
	}
	return writeConfig(cfgPath, config)
}

func writeConfig(cfgPath string, config any) error {
	raw, err := MarshalConfig(config)
	if err != nil {
		return err
	}
	return os.WriteFile(cfgPath, []byte(raw), 0644)
}

func MarshalConfig(config any) (string, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	enc.SetArraysMultiline(true)
	if err := enc.Encode(config); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// LoadRepoRootFromEnv resolves the repo root: the explicit path, then GOVERNOR_PATH,
// then ~/.governor.
func LoadRepoRootFromEnv(repoRoot string) (string, error) {
	if repoRoot != "" {
		return repoRoot, nil
	}
	if repoRoot = os.Getenv(rootPathEnvVar); repoRoot != "" {
		return repoRoot, nil
	}
	return homedir.Expand(defaultRepoRoot)
}

func readConfigFromFile(cfgFilePath string, config any) error {
	vp := viper.New()
	vp.SetConfigFile(cfgFilePath)
	vp.SetConfigType("toml")
	vp.AutomaticEnv()
	vp.SetEnvPrefix(envPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := vp.ReadInConfig(); err != nil {
		return err
	}
	return vp.Unmarshal(config)
}

// CheckWritable makes sure dir can be written, creating it when missing.
func CheckWritable(dir string) error {
	_, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return os.Mkdir(dir, 0775)
	case os.IsPermission(err):
		return errors.Errorf("cannot write to %s, incorrect permissions", dir)
	case err != nil:
		return err
	}

	probe := filepath.Join(dir, ".writable")
	f, err := os.Create(probe)
	if err != nil {
		if os.IsPermission(err) {
			return errors.Errorf("%s is not writeable by the current user", dir)
		}
		return errors.Wrap(err, "unexpected error while checking writeablility of repo root")
	}
	_ = f.Close()
	return os.Remove(probe)
}
