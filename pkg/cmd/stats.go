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

	"github.com/spf13/cobra"

	"github.com/consensys/semagen/pkg/emit"
)

var statsCmd = &cobra.Command{
	Use:   "stats [flags] target.json",
	Short: "Report summary statistics about a target description's emission.",
	Long:  "Flatten every instruction's pattern trees and report how many instructions produced semantics, how many recoverable diagnostics were raised, and the size of the resulting tables.",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}

		ctx, overrides := readTargetFile(args[0])
		res := emit.Run(ctx, overrides)

		var withSemantics int

		for _, off := range res.OpcodeToSemaIdx {
			if off != 0 {
				withSemantics++
			}
		}

		fmt.Printf("target:           %s\n", ctx.Name)
		fmt.Printf("instructions:     %d\n", ctx.NumInstructions())
		fmt.Printf("with semantics:   %d\n", withSemantics)
		fmt.Printf("stream nodes:     %d\n", len(res.InstSemantics))
		fmt.Printf("constant pool:    %d\n", len(res.ConstantArray))
		fmt.Printf("diagnostics:      %d\n", len(res.Diagnostics))

		for _, d := range res.Diagnostics {
			fmt.Printf("  %s: %s\n", d.Instruction, d.Message)
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
