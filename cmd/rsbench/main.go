// Copyright 2024-2025 the vora authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/voradb/vora/pkg/common"
	"github.com/voradb/vora/pkg/rowset"
	"github.com/voradb/vora/pkg/util"
)

var rootCmd = &cobra.Command{
	Use:   "rsbench",
	Short: "result set build, iteration and conversion benchmark",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runBench(cfg)
	},
}

func init() {
	rootCmd.Flags().String("config", "", "toml config file")
	rootCmd.Flags().Int("rows", 0, "row count")
	rootCmd.Flags().Int("cols", 0, "column count")
	rootCmd.Flags().String("layout", "", "rowwise or columnar")
	rootCmd.Flags().Int("workers", 0, "conversion worker count")
	rootCmd.Flags().Bool("print", false, "print the result set shape and first rows")
	_ = viper.BindPFlags(rootCmd.Flags())
}

func loadConfig() (*util.Config, error) {
	cfg := util.DefaultConfig()
	if path := viper.GetString("config"); path != "" {
		if !util.FileIsValid(path) {
			return nil, fmt.Errorf("config file %s does not exist", path)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if v := viper.GetInt("rows"); v > 0 {
		cfg.Bench.Rows = v
	}
	if v := viper.GetInt("cols"); v > 0 {
		cfg.Bench.Columns = v
	}
	if v := viper.GetString("layout"); v != "" {
		cfg.Bench.Layout = v
	}
	if v := viper.GetInt("workers"); v > 0 {
		cfg.Convert.WorkerCount = v
	}
	if viper.GetBool("print") {
		cfg.Bench.PrintRows = true
	}
	return cfg, nil
}

// buildSyntheticResultSet fills a dense projection with pseudo random
// bigints, with a sprinkling of nulls.
func buildSyntheticResultSet(cfg *util.Config) *rowset.ResultSet {
	targets := make([]rowset.TargetInfo, cfg.Bench.Columns)
	for i := range targets {
		targets[i] = rowset.ProjectedTarget(common.BigintType())
	}
	widths := make([]int, cfg.Bench.Columns)
	for i := range widths {
		widths[i] = 8
	}
	layout := rowset.NewResultSetLayout(rowset.LayoutArgs{
		QueryType:     rowset.QDT_Projection,
		EntryCount:    cfg.Bench.Rows,
		IsColumnar:    cfg.Bench.Layout == "columnar",
		PaddedWidths:  widths,
		LogicalWidths: widths,
	})
	rs := rowset.NewResultSet(targets, layout, rowset.NewRowSetMemoryOwner())
	storage := rs.AllocateStorage()

	rng := rand.New(rand.NewSource(42))
	for entryIdx := 0; entryIdx < cfg.Bench.Rows; entryIdx++ {
		for slotIdx := 0; slotIdx < cfg.Bench.Columns; slotIdx++ {
			if rng.Intn(100) == 0 {
				storage.SetSlotInt(entryIdx, slotIdx, common.NullBigint, 8)
			} else {
				storage.SetSlotInt(entryIdx, slotIdx, rng.Int63n(1<<40), 8)
			}
		}
	}
	return rs
}

func runBench(cfg *util.Config) error {
	start := time.Now()
	rs := buildSyntheticResultSet(cfg)
	util.Info("built result set",
		zap.Int("rows", cfg.Bench.Rows),
		zap.Int("cols", cfg.Bench.Columns),
		zap.String("layout", cfg.Bench.Layout),
		zap.Duration("took", time.Since(start)))

	if cfg.Bench.PrintRows {
		fmt.Print(rs.Describe())
		for i := 0; i < util.Min(5, rs.EntryCount()); i++ {
			row := rs.GetRowAt(i, true, true)
			for _, val := range row {
				fmt.Printf("%s\t", val.String())
			}
			fmt.Println()
		}
	}

	start = time.Now()
	var iterated int64
	rs.MoveToBegin()
	for {
		if row := rs.GetNextRow(false, false); row == nil {
			break
		}
		iterated++
	}
	util.Info("iterated",
		zap.Int64("rows", iterated),
		zap.Duration("took", time.Since(start)))

	start = time.Now()
	cr, err := rowset.ConvertToColumnar(rs, &cfg.Convert)
	if err != nil {
		return err
	}
	util.Info("converted to columnar",
		zap.Int64("rows", cr.RowCount()),
		zap.Bool("direct", cr.WasDirect()),
		zap.Duration("took", time.Since(start)))

	start = time.Now()
	rec, err := rowset.GetArrowBatch(rs, nil)
	if err != nil {
		return err
	}
	defer rec.Release()
	util.Info("exported arrow batch",
		zap.Int64("rows", rec.NumRows()),
		zap.Duration("took", time.Since(start)))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		util.Error("rsbench failed", zap.Error(err))
		os.Exit(1)
	}
}
