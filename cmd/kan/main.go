// Package main provides the KAN command line tool.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"

	"k8s.io/klog/v2"

	"github.com/born-ml/kan/internal/checkpoint"
	"github.com/born-ml/kan/internal/config"
	"github.com/born-ml/kan/internal/dataset"
	"github.com/born-ml/kan/internal/kan"
	"github.com/born-ml/kan/internal/train"
)

const version = "v0.1.0-dev"

var errFeatureMismatch = errors.New("feature count does not match the model")

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "version":
		fmt.Printf("kan %s\n", version)
	case "train":
		err = runTrain(args)
	case "eval":
		err = runEval(args)
	case "info":
		err = runInfo(args)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
	klog.Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("kan - Kolmogorov-Arnold Networks for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  train      Train a network: train -config run.yaml -out model.kan")
	fmt.Println("  eval       Evaluate a checkpoint: eval -model model.kan -data data.csv")
	fmt.Println("  info       Describe a checkpoint: info -model model.kan")
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	klog.InitFlags(fs)
	return fs
}

func runTrain(args []string) error {
	fs := newFlagSet("train")
	configPath := fs.String("config", "", "YAML run file (defaults apply when empty)")
	out := fs.String("out", "model.kan", "checkpoint output path")
	data := fs.String("data", "", "CSV training data, overrides data.csv")
	epochs := fs.Int("epochs", 0, "override train.epochs")
	lr := fs.Float64("lr", 0, "override train.lr")
	workers := fs.Int("workers", -1, "override parallel.workers; >1 enables parallel layers")
	if err := fs.Parse(args); err != nil {
		return err
	}

	run := config.Default()
	if *configPath != "" {
		var err error
		if run, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *data != "" {
		run.Data.CSV = *data
	}
	if *epochs != 0 {
		run.Train.Epochs = *epochs
	}
	if *lr != 0 {
		run.Train.LR = *lr
	}
	if *workers >= 0 {
		run.Parallel.NumWorkers = *workers
		run.Parallel.Enabled = *workers > 1
	}
	if err := run.Validate(); err != nil {
		return err
	}

	ds, err := loadData(run)
	if err != nil {
		return err
	}
	trainSet, valSet := ds.Split(run.Data.Validation)
	klog.Infof("data: %d training samples, %d validation samples", trainSet.Len(), valSet.Len())

	//nolint:gosec // G404: math/rand is fine for weight initialization
	net := kan.Build(run.Model.Inputs, run.Model.Widths, rand.New(rand.NewSource(run.Model.Seed)))
	net.SetParallel(run.Parallel)
	klog.Infof("model: %s", net.Describe())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	trainer := train.New(run.Train)
	hist, err := trainer.Fit(ctx, net, trainSet.Samples, trainSet.Targets)
	switch {
	case errors.Is(err, context.Canceled):
		klog.Warningf("interrupted after %d epochs, saving partial model", len(hist.Epochs))
	case err != nil:
		return err
	}
	fmt.Printf("trained %d epochs, final loss %.6g\n", len(hist.Epochs), hist.Final())

	if valSet.Len() > 0 {
		mse, skipped, err := train.Evaluate(net, valSet.Samples, valSet.Targets, run.Train.SkipDomainErrors)
		if err != nil {
			return fmt.Errorf("validation: %w", err)
		}
		fmt.Printf("validation mse %.6g (%d skipped)\n", mse, skipped)
	}

	meta := checkpoint.Meta{
		Metadata: map[string]string{"data": dataName(run)},
		Training: &checkpoint.TrainingMeta{
			Epochs: len(hist.Epochs),
			Loss:   hist.Final(),
			LR:     trainer.Config().LR,
		},
	}
	hdr, err := checkpoint.Save(*out, net, meta)
	if err != nil {
		return err
	}
	fmt.Printf("saved %s (run %s)\n", *out, hdr.RunID)
	return nil
}

func runEval(args []string) error {
	fs := newFlagSet("eval")
	model := fs.String("model", "model.kan", "checkpoint path")
	data := fs.String("data", "", "CSV evaluation data")
	function := fs.String("function", "", "evaluate on a synthetic function instead: "+strings.Join(dataset.Functions(), ", "))
	samples := fs.Int("samples", 256, "synthetic sample count")
	seed := fs.Int64("seed", 2, "synthetic data seed")
	skip := fs.Bool("skip-domain-errors", true, "leave out samples that leave the spline domain")
	if err := fs.Parse(args); err != nil {
		return err
	}

	net, hdr, err := checkpoint.Load(*model)
	if err != nil {
		return err
	}
	klog.V(1).Infof("loaded %s: run %s, %s", *model, hdr.RunID, net.Describe())

	run := config.Default()
	run.Data.CSV = *data
	run.Data.Function = *function
	run.Data.Samples = *samples
	run.Data.Seed = *seed
	run.Model.Inputs = net.NumInputs()
	if run.Data.CSV == "" && run.Data.Function == "" {
		return errors.New("eval needs -data or -function")
	}
	ds, err := loadData(run)
	if err != nil {
		return err
	}

	mse, skipped, err := train.Evaluate(net, ds.Samples, ds.Targets, *skip)
	if err != nil {
		return err
	}
	fmt.Printf("mse %.6g over %d samples (%d skipped)\n", mse, ds.Len()-skipped, skipped)
	return nil
}

func runInfo(args []string) error {
	fs := newFlagSet("info")
	model := fs.String("model", "model.kan", "checkpoint path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	net, hdr, err := checkpoint.Load(*model)
	if err != nil {
		return err
	}
	fmt.Printf("run:     %s\n", hdr.RunID)
	fmt.Printf("created: %s\n", hdr.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("model:   %s\n", net.Describe())
	if hdr.Training != nil {
		fmt.Printf("trained: %d epochs, loss %.6g, lr %g\n", hdr.Training.Epochs, hdr.Training.Loss, hdr.Training.LR)
	}
	for k, v := range hdr.Metadata {
		fmt.Printf("%s: %s\n", k, v)
	}
	return nil
}

// loadData reads or generates the run's data and checks that every sample
// has exactly run.Model.Inputs features.
func loadData(run config.Run) (*dataset.Dataset, error) {
	if run.Data.CSV != "" {
		ds, err := dataset.LoadCSV(run.Data.CSV)
		if err != nil {
			return nil, err
		}
		if ds.NumFeatures() != run.Model.Inputs {
			return nil, fmt.Errorf("%w: %s has %d features, model takes %d",
				errFeatureMismatch, run.Data.CSV, ds.NumFeatures(), run.Model.Inputs)
		}
		return ds, nil
	}
	//nolint:gosec // G404: math/rand is fine for synthetic data
	return dataset.Synthetic(dataset.SyntheticConfig{
		Function:   run.Data.Function,
		Samples:    run.Data.Samples,
		Features:   run.Model.Inputs,
		InputScale: run.Data.InputScale,
	}, rand.New(rand.NewSource(run.Data.Seed)))
}

func dataName(run config.Run) string {
	if run.Data.CSV != "" {
		return run.Data.CSV
	}
	return run.Data.Function
}
