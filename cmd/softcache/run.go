package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/softcache/bench"
	"github.com/sarchlab/softcache/cache"
	"github.com/sarchlab/softcache/datarecording"
	"github.com/sarchlab/softcache/monitoring"
)

var runFlags = struct {
	remoteBufferSize uint32
	residentSetSize  uint32
	lineSize         int
	fetchCount       int
	dataType         string
	iterations       int
	seed             int64
	pipelined        bool
	verify           bool

	record     bool
	dbName     string
	clickhouse bool

	monitor     bool
	monitorPort int
	dashboard   bool
}{}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one cache benchmark.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBenchmark()
	},
}

//nolint:funlen // flag registration
func init() {
	defaults := bench.DefaultConfig()

	runCmd.Flags().Uint32Var(&runFlags.remoteBufferSize,
		"remote-buffer-size", defaults.CacheableSetSize,
		"number of lines in the backing store")
	runCmd.Flags().Uint32Var(&runFlags.residentSetSize,
		"resident-set-size", defaults.TotalCacheLines,
		"number of lines held in the resident set")
	runCmd.Flags().IntVar(&runFlags.lineSize,
		"line-size", defaults.LineSize,
		"number of elements per cache line")
	runCmd.Flags().IntVar(&runFlags.fetchCount,
		"fetch-count", 0,
		"number of lines fetched per update")
	runCmd.Flags().StringVar(&runFlags.dataType,
		"data-type", "int32", "element type, int32 or float32")
	runCmd.Flags().IntVar(&runFlags.iterations,
		"iterations", defaults.Iterations,
		"number of cache updates to run")
	runCmd.Flags().Int64Var(&runFlags.seed,
		"seed", defaults.Seed, "random index generation seed")
	runCmd.Flags().BoolVar(&runFlags.pipelined,
		"pipelined", false,
		"overlap fetches with scatters using double buffering")
	runCmd.Flags().BoolVar(&runFlags.verify,
		"verify", defaults.Verify,
		"check the final resident set against a replay of the run")

	runCmd.Flags().BoolVar(&runFlags.record,
		"record", false, "record results into a database")
	runCmd.Flags().StringVar(&runFlags.dbName,
		"db-name", "",
		"name of the SQLite output database, a unique name if empty")
	runCmd.Flags().BoolVar(&runFlags.clickhouse,
		"clickhouse", false,
		"record into ClickHouse instead of SQLite, "+
			"configured with CLICKHOUSE_* environment variables")

	runCmd.Flags().BoolVar(&runFlags.monitor,
		"monitor", false, "serve run progress over HTTP")
	runCmd.Flags().IntVar(&runFlags.monitorPort,
		"monitor-port", 0,
		"monitoring server port, a random free port if 0")
	runCmd.Flags().BoolVar(&runFlags.dashboard,
		"dashboard", false,
		"open the monitoring server in a browser, implies --monitor")

	err := runCmd.MarkFlagRequired("fetch-count")
	if err != nil {
		panic(err)
	}

	rootCmd.AddCommand(runCmd)
}

func runBenchmark() error {
	config, err := benchConfig()
	if err != nil {
		return err
	}

	harness := bench.NewHarness(config)

	if runFlags.record {
		recorder := makeRecorder()
		defer recorder.Close()

		harness.WithDataRecorder(recorder)
	}

	if runFlags.monitor || runFlags.dashboard {
		monitor := monitoring.NewMonitor().
			WithPortNumber(runFlags.monitorPort)
		url := monitor.StartServer()

		if runFlags.dashboard {
			if err := browser.OpenURL(url); err != nil {
				fmt.Fprintf(os.Stderr,
					"Failed to open browser: %v\n", err)
			}
		}

		harness.WithMonitor(monitor)
	}

	result, err := harness.Run()
	if err != nil {
		return err
	}

	reportResult(config, result)

	if config.Verify && !result.Verified {
		atexit.Exit(1)
	}

	return nil
}

func benchConfig() (bench.Config, error) {
	config := bench.DefaultConfig()

	config.CacheableSetSize = runFlags.remoteBufferSize
	config.TotalCacheLines = runFlags.residentSetSize
	config.LineSize = runFlags.lineSize
	config.FetchCount = runFlags.fetchCount
	config.Iterations = runFlags.iterations
	config.Seed = runFlags.seed
	config.Pipelined = runFlags.pipelined
	config.Verify = runFlags.verify

	elemType, err := cache.ParseElemType(runFlags.dataType)
	if err != nil {
		return config, err
	}
	config.ElemType = elemType

	return config, nil
}

func makeRecorder() datarecording.DataRecorder {
	if !runFlags.clickhouse {
		return datarecording.NewSQLiteRecorder(runFlags.dbName)
	}

	port := 9000
	if p := os.Getenv("CLICKHOUSE_PORT"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil {
			panic(fmt.Errorf("invalid CLICKHOUSE_PORT: %w", err))
		}
		port = parsed
	}

	host := os.Getenv("CLICKHOUSE_HOST")
	if host == "" {
		host = "localhost"
	}

	return datarecording.NewClickHouseRecorder(datarecording.ClickHouseOptions{
		Host:     host,
		Port:     port,
		Database: os.Getenv("CLICKHOUSE_DATABASE"),
		Username: os.Getenv("CLICKHOUSE_USERNAME"),
		Password: os.Getenv("CLICKHOUSE_PASSWORD"),
	})
}

func reportResult(config bench.Config, result bench.Result) {
	fmt.Printf("Run %s\n", result.RunID)
	fmt.Printf("Fill: %v, %.3f GB/s\n",
		result.FillTime, result.FillGBPerSec)
	fmt.Printf("Updates: %d, fetched %d bytes in %v, %.3f GB/s\n",
		result.Stats.Updates, result.Stats.BytesFetched,
		result.Stats.TotalTime, result.FetchGBPerSec)

	if !config.Verify {
		return
	}

	if result.Verified {
		fmt.Println("Verification passed")
		return
	}

	fmt.Printf("Verification FAILED, %d mismatching slots\n",
		len(result.Mismatches))
	for i, m := range result.Mismatches {
		if i >= 10 {
			fmt.Printf("... and %d more\n", len(result.Mismatches)-10)
			break
		}
		fmt.Println(m)
	}
}
