package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tarstars/xgb_grn/golang/grn_boost/gbl"
)

func writeFile(t *testing.T, fileName, content string) string {
	t.Helper()
	if err := os.WriteFile(fileName, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return fileName
}

func TestDecodeConfigAppliesEnvironment(t *testing.T) {
	dir := t.TempDir()
	configName := writeFile(t, filepath.Join(dir, "config.json"), `{"iter_num": 10, "eta": 0.1, "networks": [{"filename_data": "a.csv"}]}`)
	t.Setenv("GRN_ETA", "0.25")
	t.Setenv("GRN_WORKERS", "3")

	config := defaultInferConfig()
	if err := decodeConfig(configName, &config); err != nil {
		t.Fatal(err)
	}
	if config.IterNum != 10 || config.Eta != 0.25 || config.Workers != 3 {
		t.Fatalf("unexpected config %+v", config)
	}
	if config.MaxDepth != 4 || config.Gamma != 0.2 {
		t.Fatalf("defaults must survive decoding, got %+v", config)
	}
	if len(config.Networks) != 1 || config.Networks[0].FileNameData != "a.csv" {
		t.Fatalf("unexpected networks %+v", config.Networks)
	}
}

func TestDecodeConfigRejectsUnknownFields(t *testing.T) {
	configName := writeFile(t, filepath.Join(t.TempDir(), "config.json"), `{"iter_nmu": 10}`)
	config := defaultInferConfig()
	if err := decodeConfig(configName, &config); err == nil {
		t.Fatal("expected an error for a misspelled field")
	}
}

func TestInferOptions(t *testing.T) {
	config := defaultInferConfig()
	config.ImportanceType = "total_gain"
	config.Seed = 5

	opts, err := config.inferOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.ImportanceType != gbl.ImportanceTotalGain || opts.Params.Seed != 5 || opts.Params.NRounds != 1000 {
		t.Fatalf("unexpected options %+v", opts)
	}

	config.ImportanceType = "entropy"
	if _, err := config.inferOptions(); err == nil {
		t.Fatal("expected an error for an unknown importance type")
	}
	config.ImportanceType = ""
	config.Subsample = 0
	if _, err := config.inferOptions(); err == nil {
		t.Fatal("expected an error for subsample 0")
	}
}

func TestInferAndRankModes(t *testing.T) {
	dir := t.TempDir()

	var sb strings.Builder
	sb.WriteString("G1,G2,G3\n")
	for p := 0; p < 40; p++ {
		g1 := math.Sin(0.4 * float64(p))
		fmt.Fprintf(&sb, "%g,%g,%g\n", g1, math.Cos(1.7*float64(p)), 2*g1)
	}
	dataName := writeFile(t, filepath.Join(dir, "data.csv"), sb.String())
	resultName := filepath.Join(dir, "result.csv")
	linkListName := filepath.Join(dir, "links.tsv")

	inferConfig := writeFile(t, filepath.Join(dir, "infer.json"), fmt.Sprintf(`{
		"iter_num": 10,
		"eta": 0.3,
		"min_child_weight": 1,
		"networks": [{"description": "toy", "filename_data": %q, "filename_result": %q, "filename_link_list": %q}]
	}`, dataName, resultName, linkListName))

	if err := infer(inferConfig); err != nil {
		t.Fatal(err)
	}
	result, err := os.ReadFile(resultName)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(result)), "\n")
	if len(lines) != 4 || lines[0] != "0,1,2" {
		t.Fatalf("unexpected result file:\n%s", result)
	}
	if _, err := os.Stat(linkListName); err != nil {
		t.Fatal(err)
	}

	rankedName := filepath.Join(dir, "ranked.tsv")
	rankConfig := writeFile(t, filepath.Join(dir, "rank.json"), fmt.Sprintf(
		`{"filename_result": %q, "filename_genes": %q, "filename_link_list": %q, "top_k": 1}`,
		resultName, dataName, rankedName))
	if err := rank(rankConfig); err != nil {
		t.Fatal(err)
	}
	ranked, err := os.ReadFile(rankedName)
	if err != nil {
		t.Fatal(err)
	}
	if fields := strings.Split(strings.TrimSpace(string(ranked)), "\t"); len(fields) != 3 || !strings.HasPrefix(fields[0], "G") {
		t.Fatalf("unexpected link list %q", ranked)
	}
}
