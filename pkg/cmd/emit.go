// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/consensys/semagen/pkg/emit"
)

var emitCmd = &cobra.Command{
	Use:   "emit [flags] target.json",
	Short: "Flatten a target description and emit its semantics tables.",
	Long:  "Flatten every instruction's pattern trees into a semantics stream, opcode-to-offset table and constant pool, then write them to stdout or the given output file.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}

		ctx, overrides := readTargetFile(args[0])
		res := emit.Run(ctx, overrides)

		for _, d := range res.Diagnostics {
			log.WithField("instruction", d.Instruction).Warn(d.Message)
		}

		out := os.Stdout

		if outfile := GetString(cmd, "output"); outfile != "" {
			f, err := os.Create(outfile)
			if err != nil {
				fmt.Println(err)
				os.Exit(2)
			}

			defer f.Close()

			out = f
		}

		if err := emit.WriteText(out, ctx, res); err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
	},
}

func init() {
	rootCmd.AddCommand(emitCmd)
	emitCmd.Flags().StringP("output", "o", "", "write generated tables to this file instead of stdout")
}
