package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSettingsPath = "configs/config.yaml"
	DefaultAccountsPath = "configs/accounts.json"
)

type Config struct {
	AccountsPath string        `yaml:"-"`
	Settings     Settings      `yaml:"settings"`
	Captcha      CaptchaConfig `yaml:"captcha"`
	Invite       InviteConfig  `yaml:"invite"`
	Bridge       BridgeConfig  `yaml:"bridge_to_xterio"`
	Binance      BinanceConfig `yaml:"binance"`
}

type Settings struct {
	PauseBetweenTasks    [2]int  `yaml:"pause_between_tasks"`
	PauseBetweenAccounts [2]int  `yaml:"pause_between_accounts"`
	UseChatGPT           bool    `yaml:"use_chatgpt"`
	ChatGPTAPIKey        string  `yaml:"chat_gpt_api_key"`
	ChatGPTModel         string  `yaml:"chat_gpt_model"`
	RequestsPerSecond    float64 `yaml:"requests_per_second"`
	WithdrawBeforeBridge bool    `yaml:"withdraw_before_bridge"`
	BridgeBeforeTasks    bool    `yaml:"bridge_before_tasks"`
	InitAttempts         int     `yaml:"init_attempts"`
}

type CaptchaConfig struct {
	APIKey   string `yaml:"captcha_api_key"`
	Proxy    string `yaml:"captcha_proxy"`
	Attempts int    `yaml:"solve_captcha_attempts"`
}

type InviteConfig struct {
	Codes []string `yaml:"invite_codes"`
}

type BridgeConfig struct {
	XterioRPC string     `yaml:"XTERIO_RPC"`
	BNBRPC    string     `yaml:"BNB_RPC"`
	Amount    [2]float64 `yaml:"AMOUNT"`
	Contract  string     `yaml:"CONTRACT"`
}

type BinanceConfig struct {
	APIKey         string     `yaml:"BINANCE_API_KEY"`
	APISecret      string     `yaml:"BINANCE_API_SECRET"`
	WithdrawAmount [2]float64 `yaml:"withdraw_amount"`
	MinBNBBalance  float64    `yaml:"min_bnb_balance"`
}

type Account struct {
	PrivateKey string `json:"pk"`
	Proxy      string `json:"proxy,omitempty"`
}

func Default() Config {
	return Config{
		AccountsPath: DefaultAccountsPath,
		Settings: Settings{
			PauseBetweenTasks:    [2]int{10, 20},
			PauseBetweenAccounts: [2]int{5, 30},
			ChatGPTModel:         "gpt-4o-mini",
			RequestsPerSecond:    2,
			InitAttempts:         5,
		},
		Captcha: CaptchaConfig{Attempts: 3},
		Bridge: BridgeConfig{
			XterioRPC: XterioChain.RPCURL,
			BNBRPC:    BNBSmartChain.RPCURL,
			Amount:    [2]float64{0.001, 0.002},
		},
		Binance: BinanceConfig{
			WithdrawAmount: [2]float64{0.005, 0.007},
			MinBNBBalance:  0.003,
		},
	}
}

// Load reads the yaml settings file (when present) over the defaults and then
// applies secrets from the environment / .env file.
func Load(path string) (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using config file values")
	}

	cfg := Default()
	if path == "" {
		path = DefaultSettingsPath
	}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		log.Printf("No settings file at %s, using default values", path)
	default:
		return Config{}, err
	}

	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&c.AccountsPath, "ACCOUNTS_PATH")
	override(&c.Settings.ChatGPTAPIKey, "OPENAI_API_KEY")
	override(&c.Captcha.APIKey, "TWO_CAPTCHA_API_KEY")
	override(&c.Captcha.Proxy, "CAPTCHA_PROXY")
	override(&c.Bridge.XterioRPC, "XTERIO_RPC")
	override(&c.Bridge.BNBRPC, "BNB_RPC")
	override(&c.Bridge.Contract, "BRIDGE_CONTRACT")
	override(&c.Binance.APIKey, "BINANCE_API_KEY")
	override(&c.Binance.APISecret, "BINANCE_API_SECRET")
}

func (c *Config) normalize() {
	c.Settings.PauseBetweenTasks = orderedInts(c.Settings.PauseBetweenTasks)
	c.Settings.PauseBetweenAccounts = orderedInts(c.Settings.PauseBetweenAccounts)
	c.Bridge.Amount = orderedFloats(c.Bridge.Amount)
	c.Binance.WithdrawAmount = orderedFloats(c.Binance.WithdrawAmount)
	if c.Captcha.Attempts <= 0 {
		c.Captcha.Attempts = 1
	}
	if c.Settings.InitAttempts <= 0 {
		c.Settings.InitAttempts = 1
	}
	if strings.TrimSpace(c.Settings.ChatGPTModel) == "" {
		c.Settings.ChatGPTModel = "gpt-4o-mini"
	}
	codes := c.Invite.Codes[:0]
	for _, code := range c.Invite.Codes {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	c.Invite.Codes = codes
}

func orderedInts(v [2]int) [2]int {
	for i := range v {
		if v[i] < 0 {
			v[i] = 0
		}
	}
	if v[1] < v[0] {
		v[1] = v[0]
	}
	return v
}

func orderedFloats(v [2]float64) [2]float64 {
	if v[1] < v[0] {
		v[0], v[1] = v[1], v[0]
	}
	return v
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Captcha.APIKey) == "" {
		return errors.New("captcha solver API key required (captcha.captcha_api_key or TWO_CAPTCHA_API_KEY)")
	}
	if c.Settings.UseChatGPT && strings.TrimSpace(c.Settings.ChatGPTAPIKey) == "" {
		return errors.New("use_chatgpt is enabled but no API key is configured (settings.chat_gpt_api_key or OPENAI_API_KEY)")
	}
	if strings.TrimSpace(c.Bridge.XterioRPC) == "" {
		return errors.New("XTERIO_RPC is required")
	}
	return nil
}

func (c Config) ValidateBridge() error {
	if strings.TrimSpace(c.Bridge.BNBRPC) == "" {
		return errors.New("BNB_RPC is required for bridging")
	}
	if strings.TrimSpace(c.Bridge.Contract) == "" {
		return errors.New("bridge contract address required (bridge_to_xterio.CONTRACT or BRIDGE_CONTRACT)")
	}
	if c.Bridge.Amount[1] <= 0 {
		return errors.New("bridge_to_xterio.AMOUNT must be positive")
	}
	return nil
}

func (c Config) ValidateWithdraw() error {
	if strings.TrimSpace(c.Binance.APIKey) == "" || strings.TrimSpace(c.Binance.APISecret) == "" {
		return errors.New("binance API key and secret are required for withdrawals")
	}
	if c.Binance.WithdrawAmount[1] <= 0 {
		return errors.New("binance.withdraw_amount must be positive")
	}
	return nil
}

func (c Config) LoadAccounts() ([]Account, error) {
	b, err := os.ReadFile(c.AccountsPath)
	if err != nil {
		return nil, err
	}

	var rawAccounts []string
	if err := json.Unmarshal(b, &rawAccounts); err == nil {
		accounts := make([]Account, 0, len(rawAccounts))
		for idx, entry := range rawAccounts {
			pk := strings.TrimSpace(entry)
			if pk == "" {
				return nil, fmt.Errorf("invalid account input: empty private key at index %d", idx)
			}
			accounts = append(accounts, Account{PrivateKey: pk})
		}
		return accounts, nil
	}

	var accounts []Account
	if err := json.Unmarshal(b, &accounts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal accounts: %w", err)
	}
	for idx := range accounts {
		accounts[idx].PrivateKey = strings.TrimSpace(accounts[idx].PrivateKey)
		accounts[idx].Proxy = strings.TrimSpace(accounts[idx].Proxy)
		if accounts[idx].PrivateKey == "" {
			return nil, fmt.Errorf("invalid account input: empty private key at index %d", idx)
		}
	}

	return accounts, nil
}
