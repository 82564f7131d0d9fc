package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/tarstars/xgb_grn/golang/grn_boost/gbl"
	"github.com/tarstars/xgb_grn/golang/grn_boost/grn"
)

//decodeConfig reads a JSON config and applies GRN_* environment overrides on top of it.
func decodeConfig(srcConfig string, out interface{}) error {
	file, err := os.Open(filepath.Clean(srcConfig))
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer func() { gbl.HandleError(file.Close()) }()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode config %s: %w", srcConfig, err)
	}
	return ParseEnv(out)
}

//ParseEnv loads configuration from environment variables.
func ParseEnv(target interface{}) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

type NetworkConfig struct {
	Description      string `json:"description"`
	FileNameData     string `json:"filename_data"`
	NoHeader         bool   `json:"no_header"`
	FileNameResult   string `json:"filename_result"`
	FileNameLinkList string `json:"filename_link_list"`
	ModelDir         string `json:"model_dir"`
}

type InferConfig struct {
	Networks        []NetworkConfig `json:"networks"`
	IterNum         int             `json:"iter_num" env:"GRN_ITER_NUM"`
	Eta             float64         `json:"eta" env:"GRN_ETA"`
	Gamma           float64         `json:"gamma" env:"GRN_GAMMA"`
	MaxDepth        int             `json:"max_depth" env:"GRN_MAX_DEPTH"`
	MinChildWeight  float64         `json:"min_child_weight" env:"GRN_MIN_CHILD_WEIGHT"`
	Lambda          float64         `json:"lambda" env:"GRN_LAMBDA"`
	Subsample       float64         `json:"subsample" env:"GRN_SUBSAMPLE"`
	ColsampleByTree float64         `json:"colsample_bytree" env:"GRN_COLSAMPLE_BYTREE"`
	BaseScore       float64         `json:"base_score" env:"GRN_BASE_SCORE"`
	Seed            uint64          `json:"seed" env:"GRN_SEED"`
	ThreadsNum      int             `json:"threads_num" env:"GRN_THREADS_NUM"`
	Workers         int             `json:"workers" env:"GRN_WORKERS"`
	Regulators      int             `json:"regulators" env:"GRN_REGULATORS"`
	ImportanceType  string          `json:"importance_type" env:"GRN_IMPORTANCE_TYPE"`
	TopK            int             `json:"top_k" env:"GRN_TOP_K"`
	Verbose         bool            `json:"verbose" env:"GRN_VERBOSE"`
}

//defaultInferConfig is the reference setup: 1000 rounds of the default booster on one worker.
func defaultInferConfig() InferConfig {
	params := gbl.DefaultBoosterParams()
	return InferConfig{
		IterNum:         params.NRounds,
		Eta:             params.Eta,
		Gamma:           params.Gamma,
		MaxDepth:        params.MaxDepth,
		MinChildWeight:  params.MinChildWeight,
		Lambda:          params.Lambda,
		Subsample:       params.Subsample,
		ColsampleByTree: params.ColsampleByTree,
		BaseScore:       params.BaseScore,
		ThreadsNum:      params.ThreadsNum,
		Workers:         1,
	}
}

//inferOptions converts the config into pipeline options.
func (config InferConfig) inferOptions() (grn.InferOptions, error) {
	kind, err := gbl.ParseImportanceType(config.ImportanceType)
	if err != nil {
		return grn.InferOptions{}, err
	}
	opts := grn.DefaultInferOptions(config.IterNum)
	opts.Params.Eta = config.Eta
	opts.Params.Gamma = config.Gamma
	opts.Params.MaxDepth = config.MaxDepth
	opts.Params.MinChildWeight = config.MinChildWeight
	opts.Params.Lambda = config.Lambda
	opts.Params.Subsample = config.Subsample
	opts.Params.ColsampleByTree = config.ColsampleByTree
	opts.Params.BaseScore = config.BaseScore
	opts.Params.Seed = config.Seed
	opts.Params.ThreadsNum = config.ThreadsNum
	opts.Params.Verbose = config.Verbose
	opts.Workers = config.Workers
	opts.Regulators = config.Regulators
	opts.ImportanceType = kind
	if err := opts.Params.Validate(); err != nil {
		return grn.InferOptions{}, err
	}
	return opts, nil
}

type RankConfig struct {
	FileNameResult   string `json:"filename_result"`
	FileNameGenes    string `json:"filename_genes"`
	FileNameLinkList string `json:"filename_link_list"`
	TopK             int    `json:"top_k" env:"GRN_TOP_K"`
}

type GraphConfig struct {
	FileNameResult string `json:"filename_result"`
	FileNameGenes  string `json:"filename_genes"`
	FileNameFigure string `json:"filename_figure"`
	FigureType     string `json:"figure_type"`
	TopK           int    `json:"top_k" env:"GRN_TOP_K"`
}

type TreesConfig struct {
	ModelFileName     string `json:"filename_model"`
	FigureType        string `json:"figure_type"`
	PicturesDirectory string `json:"pictures_directory"`
	DumpPrefix        string `json:"dump_prefix"`
}
