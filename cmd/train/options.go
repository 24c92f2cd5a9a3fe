package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/drakos74/free-ml/infra/config"
	"github.com/drakos74/free-ml/internal/data"
	mlmath "github.com/drakos74/free-ml/internal/math"
	"github.com/drakos74/free-ml/internal/math/ml"
	"github.com/drakos74/free-ml/internal/metrics"
	"github.com/drakos74/free-ml/internal/storage"
	"github.com/drakos74/free-ml/internal/storage/file/json"
	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// options are the flags shared by all commands.
type options struct {
	config.Job
	file    string
	metrics string
	debug   bool
}

func newCommand(name, usage, short string, defaults config.Job, run func(o *options) error) *commander.Command {
	o := &options{}
	cmd := &commander.Command{
		UsageLine: usage,
		Short:     short,
		Flag:      *flag.NewFlagSet(name, flag.ExitOnError),
	}
	cmd.Flag.StringVar(&o.Name, "name", name, "name of the trainer, used for logs, metrics and storage")
	cmd.Flag.IntVar(&o.N, "n", defaults.N, "number of generated records")
	cmd.Flag.IntVar(&o.D, "d", defaults.D, "number of features")
	cmd.Flag.IntVar(&o.K, "k", defaults.K, "number of clusters")
	cmd.Flag.IntVar(&o.Iterations, "iterations", defaults.Iterations, "max number of training rounds")
	cmd.Flag.IntVar(&o.Partitions, "partitions", defaults.Partitions, "number of dataset partitions")
	cmd.Flag.Int64Var(&o.Seed, "seed", defaults.Seed, "seed for the generated data")
	cmd.Flag.Float64Var(&o.Lambda, "lambda", defaults.Lambda, "rate of the poisson sampler")
	cmd.Flag.StringVar(&o.Input, "input", "", "text file with one 'label f1 f2 ...' record per line, instead of generated data")
	cmd.Flag.StringVar(&o.Out, "out", "", "directory to store the model snapshot and the round events")
	cmd.Flag.StringVar(&o.file, "config", "", "json or yaml job file, overrides the flags")
	cmd.Flag.StringVar(&o.metrics, "metrics", "", "address to expose the prometheus metrics on e.g. ':6060'")
	cmd.Flag.BoolVar(&o.debug, "debug", false, "log every round and dataset action")
	cmd.Run = func(cmd *commander.Command, args []string) error {
		o.Model = name
		if err := o.setup(); err != nil {
			return err
		}
		return run(o)
	}
	return cmd
}

// setup applies the job file and starts the ambient services.
func (o *options) setup() error {
	if o.debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if o.file != "" {
		var job config.Job
		if err := config.Load(o.file, &job); err != nil {
			return err
		}
		o.Job = merge(job, o.Job)
	}
	if o.metrics != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(o.metrics, mux); err != nil {
				log.Error().Err(err).Str("address", o.metrics).Msg("could not start metrics server")
			}
		}()
		log.Info().Str("address", o.metrics).Msg("serving metrics")
	}
	log.Info().
		Str("name", o.Name).
		Str("model", o.Model).
		Int("n", o.N).
		Int("d", o.D).
		Int("k", o.K).
		Int("iterations", o.Iterations).
		Int("partitions", o.Partitions).
		Int64("seed", o.Seed).
		Uint32("job", mlmath.Cksum(o.Job)).
		Msg("starting job")
	return nil
}

// merge takes the non-zero values of the job file.
func merge(job, flags config.Job) config.Job {
	if job.Name == "" {
		job.Name = flags.Name
	}
	if job.N == 0 {
		job.N = flags.N
	}
	if job.D == 0 {
		job.D = flags.D
	}
	if job.K == 0 {
		job.K = flags.K
	}
	if job.Iterations == 0 {
		job.Iterations = flags.Iterations
	}
	if job.Partitions == 0 {
		job.Partitions = flags.Partitions
	}
	if job.Seed == 0 {
		job.Seed = flags.Seed
	}
	if job.Lambda == 0 {
		job.Lambda = flags.Lambda
	}
	if job.Input == "" {
		job.Input = flags.Input
	}
	if job.Out == "" {
		job.Out = flags.Out
	}
	job.Model = flags.Model
	return job
}

func (o *options) engine() *data.Engine {
	return data.NewEngine(o.Name).WithParallelism(o.Partitions)
}

// stores returns the snapshot storage and the round event log, both void without an output directory.
func (o *options) stores() (storage.Shard, storage.EventRegistry) {
	if o.Out == "" {
		return storage.VoidShard(), storage.VoidEventRegistry()
	}
	return json.BlobShard(o.Out, "ml"), json.EventRegistry(o.Out, "ml")
}

func (o *options) trainerOptions() ([]ml.Option, error) {
	_, events := o.stores()
	registry, err := events("")
	if err != nil {
		return nil, fmt.Errorf("could not create event registry: %w", err)
	}
	return []ml.Option{
		ml.WithName(o.Name),
		ml.WithRegistry(registry),
	}, nil
}

// save stores the snapshot, if there is an output directory.
func (o *options) save(s ml.Snapshot) error {
	shard, _ := o.stores()
	store, err := shard(s.Kind)
	if err != nil {
		return fmt.Errorf("could not create storage: %w", err)
	}
	if err := ml.Save(store, s); err != nil {
		return err
	}
	if o.Out != "" {
		log.Info().
			Str("path", filepath.Join(o.Out, "ml", s.Kind, s.Key().Path()+".json")).
			Msg("stored snapshot")
	}
	return nil
}

func check(o *options) error {
	if o.Input != "" {
		if _, err := os.Stat(o.Input); err != nil {
			return fmt.Errorf("could not access input: %w", err)
		}
		return nil
	}
	if o.N < 1 || o.D < 1 {
		return fmt.Errorf("need positive -n and -d to generate data: %d %d", o.N, o.D)
	}
	return nil
}
