package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/tarstars/xgb_grn/golang/grn_boost/gbl"
	"github.com/tarstars/xgb_grn/golang/grn_boost/grn"
)

func infer(srcConfig string) error {
	config := defaultInferConfig()
	if err := decodeConfig(srcConfig, &config); err != nil {
		return err
	}
	opts, err := config.inferOptions()
	if err != nil {
		return err
	}
	if len(config.Networks) == 0 {
		return fmt.Errorf("config %s has no networks", srcConfig)
	}

	for _, networkConfig := range config.Networks {
		log.Printf("network %s: load <%s>", networkConfig.Description, networkConfig.FileNameData)
		expression, err := grn.ReadExpression(networkConfig.FileNameData, !networkConfig.NoHeader)
		if err != nil {
			return err
		}

		networkOpts := opts
		networkOpts.ModelDir = networkConfig.ModelDir
		if networkOpts.ModelDir != "" {
			if err := os.MkdirAll(networkOpts.ModelDir, 0o755); err != nil {
				return err
			}
		}

		network, err := grn.Infer(expression, networkOpts)
		if err != nil {
			return fmt.Errorf("network %s: %w", networkConfig.Description, err)
		}

		if err := network.Save(networkConfig.FileNameResult); err != nil {
			return err
		}
		log.Printf("network %s: weights written to <%s>", networkConfig.Description, networkConfig.FileNameResult)

		if networkConfig.FileNameLinkList != "" {
			if err := network.SaveLinkList(networkConfig.FileNameLinkList, config.TopK); err != nil {
				return err
			}
		}
	}
	return nil
}

//readNetwork loads a result matrix; gene names come from the header of an expression file when it is given.
func readNetwork(fileNameResult, fileNameGenes string) (*grn.Network, error) {
	var genes []string
	if fileNameGenes != "" {
		expression, err := grn.ReadExpression(fileNameGenes, true)
		if err != nil {
			return nil, err
		}
		genes = expression.Genes
	}
	return grn.ReadNetwork(fileNameResult, genes)
}

func rank(srcConfig string) error {
	var rankConfig RankConfig
	if err := decodeConfig(srcConfig, &rankConfig); err != nil {
		return err
	}

	network, err := readNetwork(rankConfig.FileNameResult, rankConfig.FileNameGenes)
	if err != nil {
		return err
	}
	return network.SaveLinkList(rankConfig.FileNameLinkList, rankConfig.TopK)
}

func graph(srcConfig string) error {
	graphConfig := GraphConfig{FigureType: "svg", TopK: 100}
	if err := decodeConfig(srcConfig, &graphConfig); err != nil {
		return err
	}

	network, err := readNetwork(graphConfig.FileNameResult, graphConfig.FileNameGenes)
	if err != nil {
		return err
	}
	return network.RenderNetworkFile(graphConfig.FileNameFigure, graphConfig.FigureType, graphConfig.TopK)
}

func trees(srcConfig string) error {
	treesConfig := TreesConfig{FigureType: "svg", PicturesDirectory: ".", DumpPrefix: "tree"}
	if err := decodeConfig(srcConfig, &treesConfig); err != nil {
		return err
	}

	clf, err := gbl.LoadModel(treesConfig.ModelFileName)
	if err != nil {
		return err
	}
	return clf.RenderTrees(treesConfig.DumpPrefix, treesConfig.FigureType, treesConfig.PicturesDirectory)
}

func main() {
	runMode := flag.String("mode", "infer", "you can select either 'infer', 'rank', 'graph' or 'trees' modes")
	config := flag.String("config", "grn_config.json", "a config file for the run of the program")
	memprofile := flag.String("memprofile", "", "write memory profile to `file`")

	flag.Parse()

	modeFunc, ok := map[string]func(string) error{
		"infer": infer,
		"rank":  rank,
		"graph": graph,
		"trees": trees,
	}[*runMode]
	if !ok {
		flag.Usage()
		os.Exit(2)
	}

	if err := modeFunc(*config); err != nil {
		log.Fatal(err)
	}

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		gbl.HandleError(err)
		defer func() { gbl.HandleError(f.Close()) }()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal("could not write memory profile: ", err)
		}
	}
}
