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

package util

type ConvertOptions struct {
	WorkerCount          int     `toml:"workerCount"`
	MinRowsForParallel   int     `toml:"minRowsForParallel"`
	DictPluckThreshold   float64 `toml:"dictPluckThreshold"`
	ForceRowWiseFallback bool    `toml:"forceRowWiseFallback"`
}

type BenchOptions struct {
	Rows       int    `toml:"rows"`
	Columns    int    `toml:"columns"`
	GroupCount int    `toml:"groupCount"`
	Layout     string `toml:"layout"`
	PrintRows  bool   `toml:"printRows"`
}

type Config struct {
	Convert ConvertOptions `toml:"convert"`
	Bench   BenchOptions   `toml:"bench"`
}

func DefaultConfig() *Config {
	return &Config{
		Convert: ConvertOptions{
			WorkerCount:        8,
			MinRowsForParallel: 8192,
			DictPluckThreshold: 0.1,
		},
		Bench: BenchOptions{
			Rows:       1 << 20,
			Columns:    4,
			GroupCount: 1 << 16,
			Layout:     "rowwise",
		},
	}
}
