package main

import "sync"

type Config struct {
	AiDepth          int             `json:"ai_depth"`
	AiTimeBudgetMs   int             `json:"ai_time_budget_ms"`
	AiRootThreads    int             `json:"ai_root_threads"`
	AiTtSize         uint64          `json:"ai_tt_size"`
	AiTtBuckets      int             `json:"ai_tt_buckets"`
	AiShuffleTies    bool            `json:"ai_shuffle_ties"`
	AiLogSearchStats bool            `json:"ai_log_search_stats"`
	Heuristics       HeuristicConfig `json:"heuristics"`
}

type HeuristicConfig struct {
	ThreeInWindow int `json:"three_in_window"`
	TwoInWindow   int `json:"two_in_window"`
	CenterColumn  int `json:"center_column"`
}

type ConfigStore struct {
	mu     sync.RWMutex
	config Config
}

func DefaultConfig() Config {
	return Config{
		AiDepth:        8,
		AiTimeBudgetMs: 0, // depth is the only bound unless set
		AiRootThreads:  1,

		// TT: power-of-two slots x set-associative buckets
		AiTtSize:    1 << 18,
		AiTtBuckets: 4,

		AiShuffleTies:    true,
		AiLogSearchStats: false,

		Heuristics: HeuristicConfig{
			ThreeInWindow: 50,
			TwoInWindow:   10,
			CenterColumn:  30,
		},
	}
}

var configStore = &ConfigStore{config: DefaultConfig()}

func GetConfig() Config {
	return configStore.Get()
}

func (c *ConfigStore) Get() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *ConfigStore) Update(newConfig Config) {
	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()
}
