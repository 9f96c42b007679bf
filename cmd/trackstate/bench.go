package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/delaneyj/trackstate/cmd/trackstate/templates"
	"github.com/delaneyj/trackstate/reactive"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	widthKey  = "width"
	heightKey = "height"
	itersKey  = "iters"
	formatKey = "format"
)

func benchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Measure propagation through signal graphs",
		Commands: []*cli.Command{
			{
				Name:  "propagate",
				Usage: "Signal -> chain of computeds -> watcher, timed per write",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: widthKey, Usage: "Largest number of parallel chains", Value: 1_000},
					&cli.IntFlag{Name: heightKey, Usage: "Largest chain length", Value: 100},
					&cli.IntFlag{Name: itersKey, Usage: "Writes per graph shape", Value: 100},
					&cli.StringFlag{Name: formatKey, Usage: "table or markdown", Value: "table"},
				},
				Action: benchPropagate,
			},
			{
				Name:  "graph",
				Usage: "Layered graphs with static and dynamic dependencies",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: itersKey, Usage: "Scale factor for the iteration counts (percent)", Value: 100},
				},
				Action: benchGraph,
			},
		},
	}
}

// sizesUpTo returns 1, 10, 100 ... up to and including limit.
func sizesUpTo(limit int) []int {
	sizes := []int{}
	for n := 1; n <= limit; n *= 10 {
		sizes = append(sizes, n)
	}
	if len(sizes) > 0 && sizes[len(sizes)-1] != limit {
		sizes = append(sizes, limit)
	}
	return sizes
}

func propagateShape(cmd *cli.Command) (ww, hh []int, iters int, err error) {
	for _, key := range []string{widthKey, heightKey, itersKey} {
		if cmd.Int(key) <= 0 {
			return nil, nil, 0, fmt.Errorf("--%s must be positive", key)
		}
	}
	return sizesUpTo(int(cmd.Int(widthKey))), sizesUpTo(int(cmd.Int(heightKey))), int(cmd.Int(itersKey)), nil
}

func benchPropagate(ctx context.Context, cmd *cli.Command) error {
	ww, hh, iters, err := propagateShape(cmd)
	if err != nil {
		return err
	}
	_, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	logger.Info("warming up")
	start := time.Now()

	var rows []templates.PropagateRow
	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rt := reactive.NewRuntime(reactive.WithLogger(logger))
			src := reactive.New(rt, 1)
			for i := 0; i < w; i++ {
				var last reactive.Readable[int] = src
				for j := 0; j < h; j++ {
					prev := last
					last = reactive.NewComputed(rt, func() int {
						return prev.Read() + 1
					})
				}
				reactive.Watch(rt, last, func(int) {})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Set(src.Peek() + 1)
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			rows = append(rows, templates.PropagateRow{
				Name: fmt.Sprintf("propagate: %d * %d", w, h),
				Avg:  calc.Time.Avg,
				Min:  calc.Time.Min,
				P75:  calc.Time.P75,
				P99:  calc.Time.P99,
				Max:  calc.Time.Max,
			})
			logger.Debug("shape done", "width", w, "height", h, "avg", calc.Time.Avg)
		}
	}

	switch cmd.String(formatKey) {
	case "markdown", "md":
		templates.WritePropagateMarkdown(os.Stdout, "Signal propagation", iters, time.Since(start), rows)
	case "table", "":
		tbl := table.NewWriter()
		tbl.SetTitle("Signal propagation")
		tbl.SetOutputMirror(os.Stdout)
		tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
		for _, r := range rows {
			tbl.AppendRow(table.Row{r.Name, r.Avg, r.Min, r.P75, r.P99, r.Max})
		}
		tbl.Render()
	default:
		return fmt.Errorf("unknown format %q", cmd.String(formatKey))
	}
	return nil
}

type graphTestConfig struct {
	name           string  // friendly name for the test, should be unique
	width          int     // width of dependency graph to construct
	totalLayers    int     // depth of dependency graph to construct
	staticFraction float64 // fraction of nodes that are static
	nSources       int     // number of sources each node reads
	readFraction   float64 // fraction of leaves read each iteration
	iterations     int64
}

// Propagation is eager and per edge, so a node sees one recompute per
// changed source. Shapes keep nSources^layers small.
var graphTestConfigs = []graphTestConfig{
	{name: "simple component", width: 10, totalLayers: 5, staticFraction: 1, nSources: 2, readFraction: 0.2, iterations: 60_000},
	{name: "dynamic component", width: 10, totalLayers: 6, staticFraction: 0.75, nSources: 3, readFraction: 0.2, iterations: 5_000},
	{name: "large web app", width: 1000, totalLayers: 4, staticFraction: 0.95, nSources: 3, readFraction: 1, iterations: 2_000},
	{name: "wide dense", width: 1000, totalLayers: 3, staticFraction: 1, nSources: 25, readFraction: 1, iterations: 500},
	{name: "deep", width: 5, totalLayers: 500, staticFraction: 1, nSources: 1, readFraction: 1, iterations: 500},
	{name: "very dynamic", width: 100, totalLayers: 5, staticFraction: 0.5, nSources: 4, readFraction: 1, iterations: 1_000},
}

type graphResult struct {
	sum      int
	count    int64
	duration time.Duration
}

func benchGraph(ctx context.Context, cmd *cli.Command) error {
	_, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	scale := float64(cmd.Int(itersKey)) / 100
	if scale <= 0 {
		return fmt.Errorf("--%s must be positive", itersKey)
	}

	log.Print("Starting graph benchmark, please wait...")
	defer log.Print("Finished graph benchmark")

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{
		"size", "nSources", "read%", "static%",
		"nTimes", "test", "time", "recomputes", "updateRate", "title",
	})

	const testRepeats = 3
	for _, cfg := range graphTestConfigs {
		cfg.iterations = max(1, int64(float64(cfg.iterations)*scale))
		log.Printf("Running '%s' config", cfg.name)

		best := graphResult{duration: time.Hour}
		for i := 0; i < testRepeats; i++ {
			counter := new(int64)
			rt := reactive.NewRuntime(reactive.WithLogger(logger))
			g := makeGraph(rt, cfg, counter)
			*counter = 0

			start := time.Now()
			sum := runGraph(g, cfg)
			duration := time.Since(start)
			log.Printf("Running '%s' config, iteration %d/%d %d%%", cfg.name, i+1, testRepeats, (i+1)*100/testRepeats)

			if duration < best.duration {
				best = graphResult{sum: sum, count: *counter, duration: duration}
			}
		}

		title := func() string {
			sb := strings.Builder{}
			sb.WriteString(fmt.Sprintf("%dx%d %d sources", cfg.width, cfg.totalLayers, cfg.nSources))
			if cfg.staticFraction < 1 {
				sb.WriteString(" dynamic")
			}
			if cfg.readFraction < 1 {
				sb.WriteString(fmt.Sprintf(" read %0.2f%%", 100*cfg.readFraction))
			}
			return sb.String()
		}

		updateRate := float64(best.count) / (float64(best.duration) / float64(time.Millisecond))
		tbl.Append([]string{
			fmt.Sprintf("%dx%d", cfg.width, cfg.totalLayers),
			fmt.Sprint(cfg.nSources),
			fmt.Sprint(cfg.readFraction),
			fmt.Sprint(cfg.staticFraction),
			humanize.Comma(cfg.iterations),
			cfg.name,
			fmt.Sprint(best.duration),
			humanize.Comma(best.count),
			humanize.Comma(int64(updateRate)),
			title(),
		})
		logger.Debug("graph done", "test", cfg.name, "sum", best.sum)
	}
	tbl.Render()
	return nil
}

type graph struct {
	sources []*reactive.Signal[int]
	layers  [][]*reactive.Computed[int]
}

func makeGraph(rt *reactive.Runtime, cfg graphTestConfig, counter *int64) *graph {
	g := &graph{sources: make([]*reactive.Signal[int], cfg.width)}
	prev := make([]reactive.Readable[int], cfg.width)
	for i := range g.sources {
		g.sources[i] = reactive.New(rt, i)
		prev[i] = g.sources[i]
	}

	random := rand.New(rand.NewSource(0))
	for l := 0; l < cfg.totalLayers-1; l++ {
		row := makeRow(rt, prev, cfg, counter, random)
		g.layers = append(g.layers, row)
		prev = make([]reactive.Readable[int], len(row))
		for i, c := range row {
			prev[i] = c
		}
	}
	return g
}

func makeRow(rt *reactive.Runtime, sources []reactive.Readable[int], cfg graphTestConfig, counter *int64, random *rand.Rand) []*reactive.Computed[int] {
	row := make([]*reactive.Computed[int], len(sources))
	for myDex := range sources {
		mySources := make([]reactive.Readable[int], 0, cfg.nSources)
		for sourceDex := 0; sourceDex < cfg.nSources; sourceDex++ {
			mySources = append(mySources, sources[(myDex+sourceDex)%len(sources)])
		}

		if random.Float64() < cfg.staticFraction {
			// static node, always reads every source
			row[myDex] = reactive.NewComputed(rt, func() int {
				*counter++
				sum := 0
				for _, source := range mySources {
					sum += source.Read()
				}
				return sum
			})
			continue
		}

		first, tail := mySources[0], mySources[1:]
		row[myDex] = reactive.NewComputed(rt, func() int {
			*counter++
			sum := first.Read()
			if len(tail) == 0 {
				return sum
			}
			shouldDrop := sum&0x1 > 0
			dropDex := sum % len(tail)
			for i, source := range tail {
				if shouldDrop && i == dropDex {
					continue
				}
				sum += source.Read()
			}
			return sum
		})
	}
	return row
}

// runGraph writes one source per iteration and peeks the selected leaves.
// It returns the sum of those leaves.
func runGraph(g *graph, cfg graphTestConfig) int {
	random := rand.New(rand.NewSource(0))
	var readLeaves []reactive.Readable[int]
	if len(g.layers) == 0 {
		for _, s := range g.sources {
			readLeaves = append(readLeaves, s)
		}
	} else {
		last := g.layers[len(g.layers)-1]
		skipCount := int(math.Round(float64(len(last)) * (1 - cfg.readFraction)))
		for _, c := range removeElems(last, skipCount, random) {
			readLeaves = append(readLeaves, c)
		}
	}

	for i := 0; i < int(cfg.iterations); i++ {
		sourceDex := i % len(g.sources)
		g.sources[sourceDex].Set(i + sourceDex)
		for _, leaf := range readLeaves {
			leaf.Peek()
		}
	}

	sum := 0
	for _, leaf := range readLeaves {
		sum += leaf.Peek()
	}
	return sum
}

func removeElems[T any](src []T, rmCount int, random *rand.Rand) []T {
	out := make([]T, len(src))
	copy(out, src)
	for i := 0; i < rmCount; i++ {
		rmDex := random.Intn(len(out))
		out[rmDex] = out[len(out)-1]
		out = out[:len(out)-1]
	}
	return out
}
