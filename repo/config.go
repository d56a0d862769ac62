package repo

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

type Config struct {
	RepoRoot string   `mapstructure:"-" toml:"-"`
	Log      Log      `mapstructure:"log" toml:"log"`
	Governor Governor `mapstructure:"governor" toml:"governor"`
	Token    Token    `mapstructure:"token" toml:"token"`
	Remote   Remote   `mapstructure:"remote" toml:"remote"`
}

type Log struct {
	Level        string        `mapstructure:"level" toml:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Filename     string        `mapstructure:"filename" toml:"filename" validate:"required"`
	ReportCaller bool          `mapstructure:"report_caller" toml:"report_caller"`
	MaxAge       time.Duration `mapstructure:"max_age" toml:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time" toml:"rotation_time"`
}

type Governor struct {
	// custodian address holding the deposited stake
	Address       string        `mapstructure:"address" toml:"address" validate:"eth_addr"`
	Chair         string        `mapstructure:"chair" toml:"chair" validate:"eth_addr"`
	DebatePeriod  time.Duration `mapstructure:"debate_period" toml:"debate_period" validate:"gte=0"`
	QuorumPercent uint64        `mapstructure:"quorum_percent" toml:"quorum_percent" validate:"max=100"`
}

// Token describes the value ledger the stake is kept in.
type Token struct {
	Address  string `mapstructure:"address" toml:"address" validate:"eth_addr"`
	Name     string `mapstructure:"name" toml:"name" validate:"required"`
	Symbol   string `mapstructure:"symbol" toml:"symbol" validate:"required"`
	Decimals uint8  `mapstructure:"decimals" toml:"decimals"`
}

// Remote is used for proposals whose target is not hosted locally.
type Remote struct {
	Enable     bool   `mapstructure:"enable" toml:"enable"`
	DialUrl    string `mapstructure:"dial_url" toml:"dial_url" validate:"required_if=Enable true"`
	PrivateKey string `mapstructure:"private_key" toml:"private_key" validate:"required_if=Enable true"`
	ChainID    uint64 `mapstructure:"chain_id" toml:"chain_id" validate:"required_if=Enable true"`
}

func DefaultConfig(repoRoot string) *Config {
	return &Config{
		RepoRoot: repoRoot,
		Log: Log{
			Level:        "info",
			Filename:     "governor.log",
			ReportCaller: false,
			MaxAge:       30 * 24 * time.Hour,
			RotationTime: 24 * time.Hour,
		},
		Governor: Governor{
			Address:       GovernorContractAddr,
			Chair:         DefaultChairAddr,
			DebatePeriod:  3 * 24 * time.Hour,
			QuorumPercent: 20,
		},
		Token: Token{
			Address:  TokenContractAddr,
			Name:     "platinum",
			Symbol:   "PL",
			Decimals: 18,
		},
		Remote: Remote{
			Enable:  false,
			DialUrl: "ws://localhost:9991",
			ChainID: 1356,
		},
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}
