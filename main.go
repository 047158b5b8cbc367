package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nikolaydubina/cgbert.go/cgbert"
	"github.com/nikolaydubina/cgbert.go/nn"
)

func main() {
	var (
		configFilePath     string
		checkpointFilePath string
		input              string
		contextID          int
		numLabels          int
	)

	flag.StringVar(&configFilePath, "config", "config.json", "model config JSON file")
	flag.StringVar(&checkpointFilePath, "checkpoint", "out/model.bin", "checkpoint binary file with weights")
	flag.StringVar(&input, "input", "", "comma-separated token ids to classify")
	flag.IntVar(&contextID, "context", 0, "context id for the sequence")
	flag.IntVar(&numLabels, "num-labels", 2, "number of classification labels")
	flag.Parse()

	configFile, err := os.Open(configFilePath)
	if err != nil {
		log.Fatal(err)
	}
	defer configFile.Close()

	config, err := cgbert.NewConfigFromJSON(configFile)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	log.Printf("config: %#v\n", config)

	classifier, err := cgbert.NewClassifier(config, numLabels)
	if err != nil {
		log.Fatal(err)
	}

	checkpointFile, err := os.Open(checkpointFilePath)
	if err != nil {
		log.Fatal(err)
	}
	defer checkpointFile.Close()

	if err := classifier.ReadCheckpoint(checkpointFile); err != nil {
		log.Fatalf("cannot read checkpoint: %s", err)
	}

	inputIDs, err := parseTokenIDs(input)
	if err != nil {
		log.Fatalf("cannot parse input: %s", err)
	}
	if len(inputIDs) == 0 {
		log.Fatal("empty input")
	}

	seqLen := len(inputIDs)
	attentionMask := cgbert.PaddingMask([]int{seqLen}, seqLen)

	timeStart := time.Now()
	// nil rng: inference, dropout disabled
	logits, err := classifier.Forward(inputIDs, nil, []int{contextID}, attentionMask, 1, seqLen, nil)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("forward pass took %s\n", time.Since(timeStart))

	probs := make([]float32, len(logits))
	copy(probs, logits)
	nn.SoftMax(probs)

	for label, p := range probs {
		fmt.Printf("label %d: %f\n", label, p)
	}
	fmt.Printf("predicted label: %d\n", nn.ArgMax(logits))
}

func parseTokenIDs(s string) ([]int, error) {
	var ids []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
